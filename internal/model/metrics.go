package model

// BusinessMetrics holds the aggregates derived from a full record set.
// It is recomputed wholesale on every run and never mutated in place.
type BusinessMetrics struct {
	TotalRevenue        float64 `json:"totalRevenue" yaml:"total_revenue"`
	ActiveClients       int     `json:"activeClients" yaml:"active_clients"`
	TotalHeadshots      int     `json:"totalHeadshots" yaml:"total_headshots"`
	DeliveredProjects   int     `json:"deliveredProjects" yaml:"delivered_projects"`
	AvgRevenuePerClient float64 `json:"avgRevenuePerClient" yaml:"avg_revenue_per_client"`
	CompletionRate      float64 `json:"completionRate" yaml:"completion_rate"` // percent, one decimal

	ProjectStatus  ProjectStatus    `json:"projectStatus" yaml:"project_status"`
	ClientRevenue  []ClientRevenue  `json:"clientRevenue" yaml:"client_revenue"`
	RevenueData    []MonthRevenue   `json:"revenueData" yaml:"revenue_data"`
	Changes        ChangeIndicators `json:"changeIndicators" yaml:"change_indicators"`
	RecentProjects []RecentProject  `json:"recentProjects" yaml:"recent_projects"`
}

// ProjectStatus counts records by status substring. The two counts are
// independent matches and need not sum to the record count.
type ProjectStatus struct {
	Delivered  int `json:"delivered" yaml:"delivered"`
	InProgress int `json:"inProgress" yaml:"in_progress"`
}

// ClientRevenue is the summed price for a single client name.
type ClientRevenue struct {
	Name    string  `json:"name" yaml:"name"`
	Revenue float64 `json:"revenue" yaml:"revenue"`
}

// MonthRevenue is the summed price for one calendar month.
type MonthRevenue struct {
	Month   string  `json:"month" yaml:"month"`
	Revenue float64 `json:"revenue" yaml:"revenue"`
}

// ChangeIndicators are display strings comparing current values to fixed baselines.
type ChangeIndicators struct {
	Revenue    string `json:"revenueChange" yaml:"revenue_change"`
	Clients    string `json:"clientsChange" yaml:"clients_change"`
	Headshots  string `json:"headshotsChange" yaml:"headshots_change"`
	Completion string `json:"completionChange" yaml:"completion_change"`
}

// RecentProject is a compact view of one of the latest records.
type RecentProject struct {
	Name    string  `json:"name" yaml:"name"`
	Shots   int     `json:"shots" yaml:"shots"`
	Status  string  `json:"status" yaml:"status"`
	Revenue float64 `json:"revenue" yaml:"revenue"`
}
