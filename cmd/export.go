package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/bizdash/internal/model"
)

var (
	flagExportFormat string
	flagExportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the snapshot (records and metrics) as JSON or YAML",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringVarP(&flagExportOutput, "output", "o", "-", "Output file (- for stdout)")
	rootCmd.AddCommand(exportCmd)
}

// exportDoc is the exported shape: the snapshot plus the run error, if any.
type exportDoc struct {
	model.Snapshot `yaml:",inline"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runExport(cmd *cobra.Command, _ []string) error {
	res := loadSnapshot(cmd.Context())
	snap := res.Snapshot
	if filtersActive() {
		snap.Metrics, snap.Records = metricsFor(snap)
	}

	doc := exportDoc{Snapshot: snap}
	if res.Err != nil {
		doc.Error = res.Err.Error()
	}

	var w io.Writer = os.Stdout
	if flagExportOutput != "-" {
		f, err := os.Create(flagExportOutput)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return writeExport(w, flagExportFormat, doc)
}

func writeExport(w io.Writer, format string, doc exportDoc) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.New("unknown export format " + format + " (want json or yaml)")
	}
}
