// Package model defines domain types for bizdash records, metrics and snapshots.
package model

import "github.com/shopspring/decimal"

// NumColumns is the number of positional columns in a source export row.
const NumColumns = 20

// ProjectRecord is one project/client transaction decoded from a spreadsheet row.
// Every field holds its zero value when the source cell is missing or malformed.
type ProjectRecord struct {
	Client               string          `json:"client" yaml:"client"`
	Headshots            int             `json:"headshots" yaml:"headshots"`
	Price                decimal.Decimal `json:"price" yaml:"price"`
	Status               string          `json:"status" yaml:"status"`
	Email                string          `json:"email" yaml:"email"`
	ProjectType          string          `json:"projectType" yaml:"project_type"`
	Location             string          `json:"location" yaml:"location"`
	ShotDuration         string          `json:"shotDuration" yaml:"shot_duration"`
	DiscountGiven        string          `json:"discountGiven" yaml:"discount_given"`
	PaymentStatus        string          `json:"paymentStatus" yaml:"payment_status"`
	PaymentMode          string          `json:"paymentMode" yaml:"payment_mode"`
	AssignedPhotographer string          `json:"assignedPhotographer" yaml:"assigned_photographer"`
	Rating               float64         `json:"rating" yaml:"rating"` // 0 = unrated
	Review               string          `json:"review" yaml:"review"`
	Date                 string          `json:"date" yaml:"date"`
	DeliveryDate         string          `json:"deliveryDate" yaml:"delivery_date"`
	ActualDeliveryTime   string          `json:"actualDeliveryTime" yaml:"actual_delivery_time"`
	CreatedAt            string          `json:"createdAt" yaml:"created_at"`
	UpdatedAt            string          `json:"updatedAt" yaml:"updated_at"`
	LastContacted        string          `json:"lastContacted" yaml:"last_contacted"`
}

// PriceFloat returns the record price as a float64 for display.
func (r ProjectRecord) PriceFloat() float64 {
	return r.Price.InexactFloat64()
}
