package gangsheet

import (
	"github.com/shopspring/decimal"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// PrintSize is the resolved pixel footprint of one design at the tenant DPI.
// Width and Height are as-placed: when Rotated is set the axes have already
// been swapped so the long edge runs along the roll length.
type PrintSize struct {
	Width   int
	Height  int
	Rotated bool
}

// ResolvePrintSize converts a design's physical target size into pixel
// dimensions at the configured DPI and decides whether the design must be
// rotated to fit the roll width. It is a pure function with no side effects.
//
// Pixels are rounded half up from exact decimal inch arithmetic. When the
// design specifies only a width, the height is completed from the source
// image's native aspect ratio.
func ResolvePrintSize(d DesignInput, s RollSettings) (PrintSize, error) {
	widthIn := d.EffectiveWidth()
	if !widthIn.IsPositive() {
		return PrintSize{}, shared.NewDomainError("INVALID_INPUT", "Design target width must be positive")
	}

	heightIn := d.TargetHeight
	if !heightIn.IsPositive() {
		if d.OriginalWidth <= 0 || d.OriginalHeight <= 0 {
			return PrintSize{}, shared.NewDomainError("INVALID_INPUT",
				"Design has no target height and no source dimensions to derive it from")
		}
		heightIn = widthIn.
			Mul(decimal.NewFromInt(int64(d.OriginalHeight))).
			Div(decimal.NewFromInt(int64(d.OriginalWidth)))
	}

	w := toPixels(widthIn, s.DPI)
	h := toPixels(heightIn, s.DPI)
	if w <= 0 || h <= 0 {
		return PrintSize{}, shared.NewDomainError("INVALID_INPUT", "Design resolves to an empty pixel area")
	}

	usable := s.UsableWidthPixels()
	gap := s.GapPixels()

	// Natural orientation first; transpose only when that is the sole way
	// to fit the roll width.
	if w+gap <= usable {
		return PrintSize{Width: w, Height: h}, nil
	}
	if h+gap <= usable {
		return PrintSize{Width: h, Height: w, Rotated: true}, nil
	}

	return PrintSize{}, &DesignTooLargeError{
		OrderProductID: d.OrderProductID,
		Modifier:       d.Modifier,
		WidthPx:        w,
		HeightPx:       h,
		UsableWidthPx:  usable,
	}
}
