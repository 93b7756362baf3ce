// Package pipeline derives business metrics from parsed records and runs the
// fetch, parse and aggregate sequence with fallback.
package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/bizdash/internal/model"
)

// Historical baselines the change indicators compare against.
const (
	BaselineClients   = 5
	BaselineHeadshots = 25
	BaselineDelivered = 3

	// RevenueChangePlaceholder is shown until revenue history is tracked.
	RevenueChangePlaceholder = "+22.5% vs last month"

	recentProjectsLimit = 3
)

// Substituted when a chart series would otherwise be empty.
var (
	emptyRevenueSeries = model.MonthRevenue{Month: "N/A", Revenue: 0}
	emptyClientSeries  = model.ClientRevenue{Name: "No clients", Revenue: 0}
)

// Aggregate computes the full metric set from records. An empty slice is valid.
func Aggregate(records []model.ProjectRecord) model.BusinessMetrics {
	var (
		m     model.BusinessMetrics
		total = decimal.Zero
	)

	clientIdx := make(map[string]int)
	var clients []clientSum

	var months [12]decimal.Decimal
	var seenMonth [12]bool

	for _, r := range records {
		total = total.Add(r.Price)
		m.TotalHeadshots += r.Headshots

		if containsIgnoreCase(r.Status, "delivered") {
			m.DeliveredProjects++
			m.ProjectStatus.Delivered++
		}
		if containsIgnoreCase(r.Status, "progress") {
			m.ProjectStatus.InProgress++
		}

		idx, ok := clientIdx[r.Client]
		if !ok {
			idx = len(clients)
			clientIdx[r.Client] = idx
			clients = append(clients, clientSum{name: r.Client, revenue: decimal.Zero})
		}
		clients[idx].revenue = clients[idx].revenue.Add(r.Price)

		if month, ok := MonthOf(r.Date); ok {
			i := int(month) - 1
			months[i] = months[i].Add(r.Price)
			seenMonth[i] = true
		}
	}

	m.TotalRevenue = total.InexactFloat64()
	m.ActiveClients = len(clients)
	if m.ActiveClients > 0 {
		m.AvgRevenuePerClient = total.Div(decimal.NewFromInt(int64(m.ActiveClients))).InexactFloat64()
	}
	if len(records) > 0 {
		rate := float64(m.DeliveredProjects) / float64(len(records)) * 100
		m.CompletionRate = math.Round(rate*10) / 10
	}

	// Descending by revenue; ties keep first-appearance order.
	sort.SliceStable(clients, func(i, j int) bool {
		return clients[i].revenue.GreaterThan(clients[j].revenue)
	})
	m.ClientRevenue = make([]model.ClientRevenue, 0, len(clients))
	for _, c := range clients {
		m.ClientRevenue = append(m.ClientRevenue, model.ClientRevenue{
			Name:    c.name,
			Revenue: c.revenue.InexactFloat64(),
		})
	}
	if len(m.ClientRevenue) == 0 {
		m.ClientRevenue = []model.ClientRevenue{emptyClientSeries}
	}

	for i := range months {
		if !seenMonth[i] {
			continue
		}
		m.RevenueData = append(m.RevenueData, model.MonthRevenue{
			Month:   time.Month(i + 1).String()[:3],
			Revenue: months[i].InexactFloat64(),
		})
	}
	if len(m.RevenueData) == 0 {
		m.RevenueData = []model.MonthRevenue{emptyRevenueSeries}
	}

	m.Changes = model.ChangeIndicators{
		Revenue:    RevenueChangePlaceholder,
		Clients:    FormatChange(float64(m.ActiveClients), BaselineClients),
		Headshots:  FormatChange(float64(m.TotalHeadshots), BaselineHeadshots),
		Completion: FormatChange(float64(m.DeliveredProjects), BaselineDelivered),
	}

	m.RecentProjects = recentProjects(records, recentProjectsLimit)
	return m
}

type clientSum struct {
	name    string
	revenue decimal.Decimal
}

// FormatChange renders the percentage change of current against baseline,
// e.g. "+20.0% vs last month".
func FormatChange(current, baseline float64) string {
	if baseline == 0 {
		return "+0.0% vs last month"
	}
	pct := (current - baseline) / baseline * 100
	return fmt.Sprintf("%+.1f%% vs last month", pct)
}

// recentProjects returns up to n of the last records, newest first.
func recentProjects(records []model.ProjectRecord, n int) []model.RecentProject {
	out := make([]model.RecentProject, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		r := records[i]
		out = append(out, model.RecentProject{
			Name:    r.Client,
			Shots:   r.Headshots,
			Status:  r.Status,
			Revenue: r.PriceFloat(),
		})
	}
	return out
}

// FilterByClient returns records whose client contains the substring.
func FilterByClient(records []model.ProjectRecord, client string) []model.ProjectRecord {
	return filter(records, client, func(r model.ProjectRecord) string { return r.Client })
}

// FilterByStatus returns records whose status contains the substring.
func FilterByStatus(records []model.ProjectRecord, status string) []model.ProjectRecord {
	return filter(records, status, func(r model.ProjectRecord) string { return r.Status })
}

// FilterByPaymentStatus returns records whose payment status contains the substring.
func FilterByPaymentStatus(records []model.ProjectRecord, payment string) []model.ProjectRecord {
	return filter(records, payment, func(r model.ProjectRecord) string { return r.PaymentStatus })
}

func filter(records []model.ProjectRecord, substr string, field func(model.ProjectRecord) string) []model.ProjectRecord {
	if substr == "" {
		return records
	}
	var result []model.ProjectRecord
	for _, r := range records {
		if containsIgnoreCase(field(r), substr) {
			result = append(result, r)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
