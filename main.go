package main

import "github.com/theirongolddev/bizdash/cmd"

func main() {
	cmd.Execute()
}
