package gangsheet

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DesignInput is one ordered design as supplied by the order/catalog
// service: a source image, its native pixel dimensions, the requested
// physical print size, and how many copies the customer ordered.
type DesignInput struct {
	SourceURL      string
	OriginalWidth  int // native image width in pixels
	OriginalHeight int // native image height in pixels

	// The catalog may configure two selectable print widths per product;
	// UseAltWidth picks the alternate one. TargetHeight is optional and is
	// derived from the image aspect ratio when zero.
	TargetWidth  decimal.Decimal // inches
	AltWidth     decimal.Decimal // inches
	UseAltWidth  bool
	TargetHeight decimal.Decimal // inches, zero = derive from aspect ratio

	Quantity       int
	Modifier       string // human-readable variant label, e.g. "Front - Adult"
	OrderID        uuid.UUID
	OrderProductID uuid.UUID
}

// EffectiveWidth returns the physical width selected for this design.
func (d DesignInput) EffectiveWidth() decimal.Decimal {
	if d.UseAltWidth && d.AltWidth.IsPositive() {
		return d.AltWidth
	}
	return d.TargetWidth
}

// PlaceableUnit is one physical copy to print. Units are derived 1:1 from a
// DesignInput expanded by quantity; Seq is the canonical input order used as
// the deterministic tie-break by the planner.
type PlaceableUnit struct {
	Seq       int // global expansion order, 0-based
	CopyIndex int // 1-based copy number within the originating design

	PrintWidth  int  // pixels, as placed (already transposed when Rotated)
	PrintHeight int  // pixels, as placed
	Rotated     bool // source image must be rotated 90° before drawing

	SourceURL      string
	Modifier       string
	OrderID        uuid.UUID
	OrderProductID uuid.UUID
}

// Placement is the packing result for one PlaceableUnit. Footprint
// dimensions include the unit's share of gap spacing; the net print
// rectangle is what the compositor actually draws.
type Placement struct {
	RollNumber  int
	X           int // footprint top-left, pixels
	Y           int
	Width       int // footprint width including trailing gap
	Height      int // footprint height including trailing gap
	PrintWidth  int
	PrintHeight int
	Rotated     bool

	Seq            int
	SourceURL      string
	Modifier       string
	OrderID        uuid.UUID
	OrderProductID uuid.UUID
}

// Roll is one unit of print media with its ordered placements. UsedHeight is
// the pixel height actually filled, not the configured maximum, so the
// compositor never renders unused canvas.
type Roll struct {
	Number     int
	Placements []Placement
	UsedHeight int
}

// PlacementResult is the aggregate output of the placement planner. It is
// sufficient to re-render every roll without re-packing.
type PlacementResult struct {
	Rolls      []Roll
	TotalUnits int
	TotalRolls int
}

// UnitFailure records a per-unit fetch or decode failure during
// composition. The unit's footprint is left blank on the rendered roll and
// the failure is surfaced on the aggregate result.
type UnitFailure struct {
	RollNumber     int
	Seq            int
	SourceURL      string
	OrderID        uuid.UUID
	OrderProductID uuid.UUID
	Reason         string
}

// DesignTooLargeError reports a design that cannot fit the roll width even
// when rotated. It is fatal for the whole run and names the offending design
// for operator diagnosis.
type DesignTooLargeError struct {
	OrderProductID uuid.UUID
	Modifier       string
	WidthPx        int
	HeightPx       int
	UsableWidthPx  int
}

// Error implements the error interface.
func (e *DesignTooLargeError) Error() string {
	return fmt.Sprintf("design %s (%s) is %dx%dpx and does not fit the usable roll width of %dpx in either orientation",
		e.OrderProductID, e.Modifier, e.WidthPx, e.HeightPx, e.UsableWidthPx)
}
