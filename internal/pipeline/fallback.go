package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/bizdash/internal/model"
)

// fallbackRecords is the fixed record set served when live data is unavailable.
// Four clients, 28 headshots, 123347 in revenue, 4 delivered and 2 in progress.
var fallbackRecords = []model.ProjectRecord{
	{
		Client: "Avinash", Headshots: 1, Price: decimal.NewFromInt(5000), Status: "Delivered",
		Email: "avinash@example.com", ProjectType: "Corporate", Location: "Mumbai",
		ShotDuration: "1", DiscountGiven: "0", PaymentStatus: "Paid", PaymentMode: "UPI",
		AssignedPhotographer: "Rohan", Rating: 5, Review: "Excellent",
		Date: "2024-01-12", DeliveryDate: "2024-01-16", ActualDeliveryTime: "4",
		CreatedAt: "2024-01-05", UpdatedAt: "2024-01-16", LastContacted: "2024-01-18",
	},
	{
		Client: "Avinash", Headshots: 3, Price: decimal.NewFromInt(10000), Status: "Delivered",
		Email: "avinash@example.com", ProjectType: "Corporate", Location: "Mumbai",
		ShotDuration: "2", DiscountGiven: "500", PaymentStatus: "Paid", PaymentMode: "Card",
		AssignedPhotographer: "Rohan", Rating: 4.5, Review: "Quick turnaround",
		Date: "2024-02-09", DeliveryDate: "2024-02-14", ActualDeliveryTime: "5",
		CreatedAt: "2024-02-01", UpdatedAt: "2024-02-14", LastContacted: "2024-02-20",
	},
	{
		Client: "Dev", Headshots: 5, Price: decimal.NewFromInt(25000), Status: "In Progress",
		Email: "dev@example.com", ProjectType: "Personal Branding", Location: "Pune",
		ShotDuration: "3", DiscountGiven: "0", PaymentStatus: "Partial", PaymentMode: "Bank Transfer",
		AssignedPhotographer: "Meera",
		Date: "2024-03-15", DeliveryDate: "2024-03-22",
		CreatedAt: "2024-03-10", UpdatedAt: "2024-03-15", LastContacted: "2024-03-16",
	},
	{
		Client: "Akit", Headshots: 6, Price: decimal.NewFromInt(30000), Status: "Delivered",
		Email: "akit@example.com", ProjectType: "Corporate", Location: "Bengaluru",
		ShotDuration: "4", DiscountGiven: "1000", PaymentStatus: "Paid", PaymentMode: "UPI",
		AssignedPhotographer: "Meera", Rating: 4, Review: "Good",
		Date: "2024-04-03", DeliveryDate: "2024-04-10", ActualDeliveryTime: "6",
		CreatedAt: "2024-03-28", UpdatedAt: "2024-04-10", LastContacted: "2024-04-12",
	},
	{
		Client: "Jasmeet", Headshots: 8, Price: decimal.NewFromInt(28347), Status: "Delivered",
		Email: "jasmeet@example.com", ProjectType: "Event", Location: "Delhi",
		ShotDuration: "5", DiscountGiven: "0", PaymentStatus: "Paid", PaymentMode: "Card",
		AssignedPhotographer: "Rohan", Rating: 5, Review: "Loved the results",
		Date: "2024-05-18", DeliveryDate: "2024-05-25", ActualDeliveryTime: "7",
		CreatedAt: "2024-05-11", UpdatedAt: "2024-05-25", LastContacted: "2024-05-27",
	},
	{
		Client: "Jasmeet", Headshots: 5, Price: decimal.NewFromInt(25000), Status: "In Progress",
		Email: "jasmeet@example.com", ProjectType: "Event", Location: "Delhi",
		ShotDuration: "3", DiscountGiven: "0", PaymentStatus: "Pending", PaymentMode: "Bank Transfer",
		AssignedPhotographer: "Meera",
		Date: "2024-06-07", DeliveryDate: "2024-06-14",
		CreatedAt: "2024-06-01", UpdatedAt: "2024-06-07", LastContacted: "2024-06-08",
	},
}

// Fallback returns the fixed substitute records and their metrics. The metrics
// are derived with Aggregate, so they satisfy the same invariants as live data.
// Each call returns fresh slices.
func Fallback() ([]model.ProjectRecord, model.BusinessMetrics) {
	records := make([]model.ProjectRecord, len(fallbackRecords))
	copy(records, fallbackRecords)
	return records, Aggregate(records)
}
