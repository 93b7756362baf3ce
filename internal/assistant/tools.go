package assistant

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/theirongolddev/bizdash/internal/model"
	"github.com/theirongolddev/bizdash/internal/pipeline"
)

// Handlers implements the MCP tools over a Dashboard.
type Handlers struct {
	dash Dashboard
}

// NewHandlers returns tool handlers reading from d.
func NewHandlers(d Dashboard) *Handlers {
	return &Handlers{dash: d}
}

type GetMetricsInput struct{}

type MetricsOutput struct {
	Metrics   model.BusinessMetrics `json:"metrics"`
	State     string                `json:"state"`
	Fallback  bool                  `json:"fallback"`
	Error     string                `json:"error,omitempty"`
	UpdatedAt string                `json:"updated_at,omitempty"`
}

type RefreshInput struct{}

type RefreshOutput struct {
	View      MetricsOutput `json:"view"`
	RunID     string        `json:"run_id"`
	Committed bool          `json:"committed"`
	Records   int           `json:"records"`
	Dropped   int           `json:"dropped_lines"`
}

type ListProjectsInput struct {
	Client  string `json:"client,omitempty" jsonschema:"Case-insensitive substring of the client name"`
	Status  string `json:"status,omitempty" jsonschema:"Case-insensitive substring of the project status"`
	Payment string `json:"payment,omitempty" jsonschema:"Case-insensitive substring of the payment status"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum rows to return (default 50)"`
}

// ProjectRow is a flattened record with the price as a number.
type ProjectRow struct {
	Client        string  `json:"client"`
	Headshots     int     `json:"headshots"`
	Price         float64 `json:"price"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Photographer  string  `json:"photographer"`
	Date          string  `json:"date"`
	DeliveryDate  string  `json:"delivery_date"`
}

type ListProjectsOutput struct {
	Projects []ProjectRow `json:"projects"`
	Count    int          `json:"count"`
	Total    int          `json:"total"`
}

func (h *Handlers) GetMetrics(ctx context.Context, _ *mcp.CallToolRequest, _ GetMetricsInput) (*mcp.CallToolResult, MetricsOutput, error) {
	if _, ok := h.dash.Current(); !ok {
		h.dash.RefreshAndWait(ctx)
	}
	return nil, metricsOutput(h.dash.View()), nil
}

// RefreshDashboard re-runs the pipeline and reports the resulting view. The
// assistant's own sheet edits are not checked here; a refetch is the check.
func (h *Handlers) RefreshDashboard(ctx context.Context, _ *mcp.CallToolRequest, _ RefreshInput) (*mcp.CallToolResult, RefreshOutput, error) {
	res, committed := h.dash.RefreshAndWait(ctx)
	out := RefreshOutput{
		View:      metricsOutput(h.dash.View()),
		RunID:     res.Snapshot.RunID,
		Committed: committed,
		Records:   len(res.Snapshot.Records),
		Dropped:   res.DroppedLines,
	}
	return nil, out, nil
}

func (h *Handlers) ListProjects(ctx context.Context, _ *mcp.CallToolRequest, in ListProjectsInput) (*mcp.CallToolResult, ListProjectsOutput, error) {
	if in.Limit <= 0 {
		in.Limit = 50
	}
	snap, ok := h.dash.Current()
	if !ok {
		h.dash.RefreshAndWait(ctx)
		snap, _ = h.dash.Current()
	}

	records := pipeline.FilterByClient(snap.Records, in.Client)
	records = pipeline.FilterByStatus(records, in.Status)
	records = pipeline.FilterByPaymentStatus(records, in.Payment)

	out := ListProjectsOutput{
		Projects: make([]ProjectRow, 0, min(len(records), in.Limit)),
		Total:    len(records),
	}
	for _, r := range records {
		if len(out.Projects) == in.Limit {
			break
		}
		out.Projects = append(out.Projects, ProjectRow{
			Client:        r.Client,
			Headshots:     r.Headshots,
			Price:         r.PriceFloat(),
			Status:        r.Status,
			PaymentStatus: r.PaymentStatus,
			Photographer:  r.AssignedPhotographer,
			Date:          r.Date,
			DeliveryDate:  r.DeliveryDate,
		})
	}
	out.Count = len(out.Projects)
	return nil, out, nil
}

func metricsOutput(v model.View) MetricsOutput {
	out := MetricsOutput{
		State:    v.State,
		Fallback: v.Fallback,
	}
	if v.Metrics != nil {
		out.Metrics = *v.Metrics
	}
	if out.Metrics.ClientRevenue == nil {
		out.Metrics.ClientRevenue = []model.ClientRevenue{}
	}
	if out.Metrics.RevenueData == nil {
		out.Metrics.RevenueData = []model.MonthRevenue{}
	}
	if out.Metrics.RecentProjects == nil {
		out.Metrics.RecentProjects = []model.RecentProject{}
	}
	if v.Error != nil {
		out.Error = *v.Error
	}
	if !v.UpdatedAt.IsZero() {
		out.UpdatedAt = v.UpdatedAt.Format(time.RFC3339)
	}
	return out
}
