package gangsheet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRollSettings(t *testing.T) {
	s := DefaultRollSettings()

	require.NoError(t, s.Validate())
	assert.True(t, s.RollWidth.Equal(decimal.NewFromInt(22)))
	assert.True(t, s.RollLength.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, 300, s.DPI)
	assert.True(t, s.Gap.Equal(decimal.NewFromFloat(0.25)))
	assert.False(t, s.Border)
	assert.Equal(t, "#000000", s.BorderColor)
}

func TestRollSettings_Validate(t *testing.T) {
	valid := DefaultRollSettings()

	tests := []struct {
		name   string
		mutate func(*RollSettings)
		valid  bool
	}{
		{"defaults", func(s *RollSettings) {}, true},
		{"zero width", func(s *RollSettings) { s.RollWidth = decimal.Zero }, false},
		{"negative width", func(s *RollSettings) { s.RollWidth = decimal.NewFromInt(-1) }, false},
		{"zero length", func(s *RollSettings) { s.RollLength = decimal.Zero }, false},
		{"dpi too low", func(s *RollSettings) { s.DPI = 71 }, false},
		{"dpi too high", func(s *RollSettings) { s.DPI = 1201 }, false},
		{"dpi lower bound", func(s *RollSettings) {
			s.DPI = 72
		}, true},
		{"negative gap", func(s *RollSettings) { s.Gap = decimal.NewFromFloat(-0.1) }, false},
		{"zero gap", func(s *RollSettings) { s.Gap = decimal.Zero }, true},
		{"border without size", func(s *RollSettings) {
			s.Border = true
			s.BorderSize = decimal.Zero
		}, false},
		{"border with bad color", func(s *RollSettings) {
			s.Border = true
			s.BorderColor = "black"
		}, false},
		{"border with short hex", func(s *RollSettings) {
			s.Border = true
			s.BorderColor = "#f0a"
		}, true},
		{"length shorter than width", func(s *RollSettings) {
			s.RollLength = decimal.NewFromInt(10)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestResolveSettings_MergesOverrides(t *testing.T) {
	defaults := DefaultRollSettings()

	dpi := 150
	gap := decimal.NewFromFloat(0.5)
	border := true
	color := "#ff0000"
	resolved, err := ResolveSettings(defaults, &SettingsOverride{
		DPI:         &dpi,
		Gap:         &gap,
		Border:      &border,
		BorderColor: &color,
	})
	require.NoError(t, err)

	assert.Equal(t, 150, resolved.DPI)
	assert.True(t, resolved.Gap.Equal(gap))
	assert.True(t, resolved.Border)
	assert.Equal(t, "#ff0000", resolved.BorderColor)
	// Untouched fields keep the tenant defaults.
	assert.True(t, resolved.RollWidth.Equal(defaults.RollWidth))
	assert.True(t, resolved.RollLength.Equal(defaults.RollLength))
}

func TestResolveSettings_NilOverride(t *testing.T) {
	defaults := DefaultRollSettings()
	resolved, err := ResolveSettings(defaults, nil)
	require.NoError(t, err)
	assert.True(t, resolved.Equals(defaults))
}

func TestResolveSettings_InvalidOverride(t *testing.T) {
	dpi := 10
	_, err := ResolveSettings(DefaultRollSettings(), &SettingsOverride{DPI: &dpi})
	assert.Error(t, err)
}

func TestRollSettings_PixelConversion(t *testing.T) {
	s := DefaultRollSettings()

	assert.Equal(t, 6600, s.PixelWidth())
	assert.Equal(t, 36000, s.PixelLength())
	assert.Equal(t, 75, s.GapPixels())
	assert.Equal(t, 0, s.BorderPixels(), "border disabled contributes no inset")
	assert.Equal(t, 6600, s.UsableWidthPixels())
}

func TestRollSettings_PixelRoundingHalfUp(t *testing.T) {
	s := DefaultRollSettings()
	// 0.125in * 300dpi = 37.5px, which must round up, not to even.
	s.Gap = decimal.NewFromFloat(0.125)
	assert.Equal(t, 38, s.GapPixels())

	// 5.5in * 300dpi is exactly 1650; float arithmetic can land just below.
	s.Gap = decimal.NewFromFloat(5.5)
	assert.Equal(t, 1650, s.GapPixels())
}

func TestRollSettings_BorderInset(t *testing.T) {
	s := DefaultRollSettings()
	s.Border = true

	assert.Equal(t, 12, s.BorderPixels())
	assert.Equal(t, 6600-24, s.UsableWidthPixels())
	assert.Equal(t, 36000-24, s.UsableLengthPixels())
}
