// Package source parses the raw comma-delimited export into project records.
package source

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/bizdash/internal/model"
)

// ErrInsufficientData indicates the export holds no usable data rows.
var ErrInsufficientData = errors.New("source: insufficient data")

// Column positions in the export, in header order.
const (
	colClient = iota
	colHeadshots
	colPrice
	colStatus
	colEmail
	colProjectType
	colLocation
	colShotDuration
	colDiscountGiven
	colPaymentStatus
	colPaymentMode
	colAssignedPhotographer
	colRating
	colReview
	colDate
	colDeliveryDate
	colActualDeliveryTime
	colCreatedAt
	colUpdatedAt
	colLastContacted
)

// ParseResult holds the output of parsing one export.
type ParseResult struct {
	Header           []string
	Records          []model.ProjectRecord
	DroppedLines     int // data lines with fewer fields than the header
	CoercionFailures int // numeric cells that fell back to zero
}

// Parse turns raw export text into records, in source row order.
//
// The first non-blank line is the header. Lines are split on commas with no
// quote or escape handling. A data line is kept only when it has at least as
// many fields as the header; shorter lines are dropped whole. Numeric cells
// that fail to parse become zero and never abort the row.
func Parse(text string) (ParseResult, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return ParseResult{}, ErrInsufficientData
	}

	header := strings.Split(lines[0], ",")
	result := ParseResult{
		Header:  header,
		Records: make([]model.ProjectRecord, 0, len(lines)-1),
	}

	for _, line := range lines[1:] {
		fields := strings.Split(line, ",")
		if len(fields) < len(header) {
			result.DroppedLines++
			continue
		}
		rec, failures := parseFields(fields)
		result.CoercionFailures += failures
		result.Records = append(result.Records, rec)
	}

	if len(result.Records) == 0 {
		return result, ErrInsufficientData
	}
	return result, nil
}

// ParseRecord maps positional fields onto a record. It never fails: missing
// positions and malformed numbers take their zero value.
func ParseRecord(fields []string) model.ProjectRecord {
	rec, _ := parseFields(fields)
	return rec
}

func parseFields(fields []string) (model.ProjectRecord, int) {
	at := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	failures := 0
	headshots, ok := parseInt(at(colHeadshots))
	if !ok {
		failures++
	}
	price, ok := parseDecimal(at(colPrice))
	if !ok {
		failures++
	}
	rating, ok := parseFloat(at(colRating))
	if !ok {
		failures++
	}

	return model.ProjectRecord{
		Client:               at(colClient),
		Headshots:            headshots,
		Price:                price,
		Status:               at(colStatus),
		Email:                at(colEmail),
		ProjectType:          at(colProjectType),
		Location:             at(colLocation),
		ShotDuration:         at(colShotDuration),
		DiscountGiven:        at(colDiscountGiven),
		PaymentStatus:        at(colPaymentStatus),
		PaymentMode:          at(colPaymentMode),
		AssignedPhotographer: at(colAssignedPhotographer),
		Rating:               rating,
		Review:               at(colReview),
		Date:                 at(colDate),
		DeliveryDate:         at(colDeliveryDate),
		ActualDeliveryTime:   at(colActualDeliveryTime),
		CreatedAt:            at(colCreatedAt),
		UpdatedAt:            at(colUpdatedAt),
		LastContacted:        at(colLastContacted),
	}, failures
}

// splitLines returns the non-blank lines of text with any trailing CR removed.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// An empty cell is a missing value, not a coercion failure.

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
