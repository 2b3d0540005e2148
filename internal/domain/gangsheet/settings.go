package gangsheet

import (
	"regexp"

	"github.com/shopspring/decimal"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// RollSettings describes the print media roll a gang sheet is laid out on.
// All physical dimensions are in inches; pixel values are derived at DPI.
// The value is immutable for the duration of one generation run.
type RollSettings struct {
	RollWidth   decimal.Decimal // usable media width in inches
	RollLength  decimal.Decimal // maximum usable media length in inches
	DPI         int             // raster resolution in dots per inch
	Gap         decimal.Decimal // spacing added on each placement's trailing edges, inches
	Border      bool            // whether to stroke each placement's footprint
	BorderSize  decimal.Decimal // stroke width and edge inset in inches
	BorderColor string          // stroke color as #RGB or #RRGGBB
}

// SettingsOverride carries request-level overrides merged over the tenant
// defaults. Nil fields keep the tenant value.
type SettingsOverride struct {
	RollWidth   *decimal.Decimal
	RollLength  *decimal.Decimal
	DPI         *int
	Gap         *decimal.Decimal
	Border      *bool
	BorderSize  *decimal.Decimal
	BorderColor *string
}

// DefaultRollSettings returns the built-in roll configuration used when a
// tenant has not stored its own defaults yet.
func DefaultRollSettings() RollSettings {
	return RollSettings{
		RollWidth:   decimal.NewFromInt(22),
		RollLength:  decimal.NewFromInt(120),
		DPI:         300,
		Gap:         decimal.NewFromFloat(0.25),
		Border:      false,
		BorderSize:  decimal.NewFromFloat(0.04),
		BorderColor: "#000000",
	}
}

// ResolveSettings merges request-level overrides over the tenant defaults,
// producing the single immutable settings value consumed by every downstream
// stage. Merging happens exactly once, at the orchestrator boundary.
func ResolveSettings(defaults RollSettings, override *SettingsOverride) (RollSettings, error) {
	resolved := defaults
	if override != nil {
		if override.RollWidth != nil {
			resolved.RollWidth = *override.RollWidth
		}
		if override.RollLength != nil {
			resolved.RollLength = *override.RollLength
		}
		if override.DPI != nil {
			resolved.DPI = *override.DPI
		}
		if override.Gap != nil {
			resolved.Gap = *override.Gap
		}
		if override.Border != nil {
			resolved.Border = *override.Border
		}
		if override.BorderSize != nil {
			resolved.BorderSize = *override.BorderSize
		}
		if override.BorderColor != nil {
			resolved.BorderColor = *override.BorderColor
		}
	}
	if err := resolved.Validate(); err != nil {
		return RollSettings{}, err
	}
	return resolved, nil
}

// Validate checks that the settings describe a physically usable roll.
func (s RollSettings) Validate() error {
	if !s.RollWidth.IsPositive() {
		return shared.NewDomainError("INVALID_SETTINGS", "Roll width must be positive")
	}
	if !s.RollLength.IsPositive() {
		return shared.NewDomainError("INVALID_SETTINGS", "Roll length must be positive")
	}
	if s.DPI < 72 || s.DPI > 1200 {
		return shared.NewDomainError("INVALID_SETTINGS", "DPI must be between 72 and 1200")
	}
	if s.Gap.IsNegative() {
		return shared.NewDomainError("INVALID_SETTINGS", "Gap cannot be negative")
	}
	if s.Border {
		if !s.BorderSize.IsPositive() {
			return shared.NewDomainError("INVALID_SETTINGS", "Border size must be positive when border is enabled")
		}
		if !hexColorPattern.MatchString(s.BorderColor) {
			return shared.NewDomainError("INVALID_SETTINGS", "Border color must be a hex color like #RRGGBB")
		}
	}
	if s.RollLength.LessThan(s.RollWidth) {
		return shared.NewDomainError("INVALID_SETTINGS", "Roll length must be at least the roll width")
	}
	return nil
}

// toPixels converts a physical length in inches to whole pixels at the given
// DPI, rounding half up. Decimal arithmetic keeps e.g. 5.5in at 300dpi at
// exactly 1650px where float math can land on 1649.9999….
func toPixels(inches decimal.Decimal, dpi int) int {
	return int(inches.Mul(decimal.NewFromInt(int64(dpi))).Round(0).IntPart())
}

// PixelWidth returns the roll width in pixels at the configured DPI.
func (s RollSettings) PixelWidth() int {
	return toPixels(s.RollWidth, s.DPI)
}

// PixelLength returns the maximum roll length in pixels at the configured DPI.
func (s RollSettings) PixelLength() int {
	return toPixels(s.RollLength, s.DPI)
}

// GapPixels returns the inter-placement gap in pixels.
func (s RollSettings) GapPixels() int {
	return toPixels(s.Gap, s.DPI)
}

// BorderPixels returns the border inset in pixels, zero when disabled.
func (s RollSettings) BorderPixels() int {
	if !s.Border {
		return 0
	}
	return toPixels(s.BorderSize, s.DPI)
}

// UsableWidthPixels returns the pixel width available to placements after
// subtracting the border inset on both edges.
func (s RollSettings) UsableWidthPixels() int {
	return s.PixelWidth() - 2*s.BorderPixels()
}

// UsableLengthPixels returns the pixel length available to shelves after
// subtracting the border inset on both edges.
func (s RollSettings) UsableLengthPixels() int {
	return s.PixelLength() - 2*s.BorderPixels()
}

// Equals reports whether two settings values are identical.
func (s RollSettings) Equals(other RollSettings) bool {
	return s.RollWidth.Equal(other.RollWidth) &&
		s.RollLength.Equal(other.RollLength) &&
		s.DPI == other.DPI &&
		s.Gap.Equal(other.Gap) &&
		s.Border == other.Border &&
		s.BorderSize.Equal(other.BorderSize) &&
		s.BorderColor == other.BorderColor
}
