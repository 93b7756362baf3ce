// Package assistant exposes the dashboard to MCP clients: the chat assistant
// reads metrics through it and asks for a refresh after it changes the sheet.
package assistant

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/theirongolddev/bizdash/internal/model"
	"github.com/theirongolddev/bizdash/internal/pipeline"
)

const (
	serverName    = "bizdash"
	serverVersion = "0.1.0"

	instructions = `bizdash serves business metrics derived from a project spreadsheet.
Call get_metrics for the current totals. After changing the sheet, call
refresh_dashboard so the next reads reflect the change.`
)

// Dashboard is the snapshot store as seen by the assistant.
type Dashboard interface {
	View() model.View
	Current() (model.Snapshot, bool)
	RefreshAndWait(ctx context.Context) (pipeline.Result, bool)
}

// NewServer builds an MCP server with the dashboard tools registered.
func NewServer(d Dashboard, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		Instructions: instructions,
		Logger:       logger,
	})

	h := NewHandlers(d)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_metrics",
		Description: "Get the current dashboard metrics, running the pipeline once if nothing has loaded yet",
	}, h.GetMetrics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh_dashboard",
		Description: "Re-fetch the spreadsheet, recompute metrics and return them",
	}, h.RefreshDashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List project records, optionally filtered by client, status or payment status",
	}, h.ListProjects)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return server },
		&mcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)
}

// ServeStdio runs server on stdin/stdout until ctx is canceled or the client disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
