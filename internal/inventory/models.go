package inventory

import (
	"strings"
	"time"
)

// AdjustmentReason classifies why a stock balance moved.
type AdjustmentReason string

const (
	ReasonRestock    AdjustmentReason = "restock"
	ReasonBrew       AdjustmentReason = "brew-consumption"
	ReasonCorrection AdjustmentReason = "correction"
)

var reasonSet = map[AdjustmentReason]struct{}{
	ReasonRestock:    {},
	ReasonBrew:       {},
	ReasonCorrection: {},
}

// ParseReason converts a string into a known AdjustmentReason.
func ParseReason(value string) (AdjustmentReason, bool) {
	normalized := AdjustmentReason(strings.ToLower(strings.TrimSpace(value)))
	_, ok := reasonSet[normalized]
	return normalized, ok
}

// IsConsumption reports whether the reason removes stock for use rather than
// correcting a record.
func (r AdjustmentReason) IsConsumption() bool {
	return r == ReasonBrew
}

// Tea is an inventory item. Quantity is held in the tea's smallest unit
// (whole grams by default) and is owned exclusively by the Ledger.
type Tea struct {
	ID                int64
	Name              string
	Blend             string
	Unit              string
	Quantity          int64
	ReorderThreshold  *int64
	DefaultDose       int64
	Seller            string
	PricePerUnitCents int64
	Notes             string
	Disabled          bool
	CreatedAt         time.Time
}

// NewTea carries the attributes for creating a tea.
type NewTea struct {
	Name              string
	Blend             string
	Unit              string
	Quantity          int64
	ReorderThreshold  *int64
	DefaultDose       int64
	Seller            string
	PricePerUnitCents int64
	Notes             string
}

// StockAdjustment is one immutable entry in a tea's audit trail. Balance is
// the quantity on hand immediately after the adjustment committed.
type StockAdjustment struct {
	ID        int64
	TeaID     int64
	Delta     int64
	Reason    AdjustmentReason
	Balance   int64
	CreatedAt time.Time
}
