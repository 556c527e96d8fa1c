package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storepos/backend/internal/domain/shared"
)

// AdjustmentKind is how a requested magnitude is turned into a signed delta
type AdjustmentKind string

const (
	// AdjustmentAdd increases stock by the magnitude
	AdjustmentAdd AdjustmentKind = "add"
	// AdjustmentSubtract decreases stock by the magnitude
	AdjustmentSubtract AdjustmentKind = "subtract"
	// AdjustmentSet sets stock to the magnitude
	AdjustmentSet AdjustmentKind = "set"
)

// String returns the string representation of AdjustmentKind
func (k AdjustmentKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is known
func (k AdjustmentKind) IsValid() bool {
	switch k {
	case AdjustmentAdd, AdjustmentSubtract, AdjustmentSet:
		return true
	}
	return false
}

// Delta returns the signed change for a magnitude applied to before
func (k AdjustmentKind) Delta(before, magnitude int) int {
	switch k {
	case AdjustmentAdd:
		return magnitude
	case AdjustmentSubtract:
		return -magnitude
	case AdjustmentSet:
		return magnitude - before
	}
	return 0
}

// Actor identifies who performed an adjustment
type Actor struct {
	ID   string
	Name string
}

// StockAdjustment is an immutable audit record of one stock change.
// QuantityAfter always equals QuantityBefore + Delta.
type StockAdjustment struct {
	ID             uuid.UUID
	ProductID      int64
	ActorID        string
	ActorName      string
	Kind           AdjustmentKind
	Magnitude      int
	Delta          int
	QuantityBefore int
	QuantityAfter  int
	Notes          string
	CreatedAt      time.Time
}

// NewStockAdjustment validates the request and computes delta and after.
// The result is not clamped; a negative QuantityAfter records an oversell.
func NewStockAdjustment(productID int64, kind AdjustmentKind, magnitude, before int, actor Actor, notes string) (*StockAdjustment, error) {
	if productID <= 0 {
		return nil, shared.NewInvalidAdjustment("product id must be positive")
	}
	if !kind.IsValid() {
		return nil, shared.NewInvalidAdjustment(fmt.Sprintf("unknown adjustment kind %q", kind))
	}
	if magnitude <= 0 {
		return nil, shared.NewInvalidAdjustment("adjustment amount must be positive")
	}

	delta := kind.Delta(before, magnitude)
	return &StockAdjustment{
		ID:             uuid.Must(uuid.NewV7()),
		ProductID:      productID,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		Kind:           kind,
		Magnitude:      magnitude,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  before + delta,
		Notes:          notes,
		CreatedAt:      time.Now(),
	}, nil
}

// IsOversell reports whether the adjustment left stock below zero
func (a *StockAdjustment) IsOversell() bool {
	return a.QuantityAfter < 0
}
