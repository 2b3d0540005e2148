package gangsheet

import (
	"sort"
)

// Planner packs placeable units onto rolls using shelf packing with a
// first-fit-decreasing-height heuristic, overflowing onto additional rolls
// when the configured length is exhausted.
//
// Packing is strictly single-threaded and pure: it never consults the clock
// or randomness, so the same units and settings always produce the same
// placements. Rotation is decided upstream by ResolvePrintSize and only ever
// applied to make a unit fit the roll width, never speculatively for packing
// efficiency.
type Planner struct {
	settings RollSettings
}

// NewPlanner creates a Planner for the given resolved settings.
func NewPlanner(settings RollSettings) *Planner {
	return &Planner{settings: settings}
}

// Plan assigns every unit a roll number and footprint position. Zero units
// yield an empty result with zero rolls, not an error. A unit that cannot
// fit a fresh roll in either axis fails the whole plan with
// DesignTooLargeError before any placement is emitted for it.
func (p *Planner) Plan(units []PlaceableUnit) (*PlacementResult, error) {
	result := &PlacementResult{Rolls: []Roll{}}
	if len(units) == 0 {
		return result, nil
	}

	rollW := p.settings.PixelWidth()
	rollL := p.settings.PixelLength()
	gap := p.settings.GapPixels()
	inset := p.settings.BorderPixels()
	maxX := rollW - inset
	maxY := rollL - inset

	// Tallest first; ties fall back to the expander's canonical input order
	// so the layout never depends on map or hash iteration order.
	sorted := make([]PlaceableUnit, len(units))
	copy(sorted, units)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PrintHeight != sorted[j].PrintHeight {
			return sorted[i].PrintHeight > sorted[j].PrintHeight
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	rollNumber := 1
	x, y := inset, inset
	shelfHeight := 0
	var placements []Placement

	for _, u := range sorted {
		footW := u.PrintWidth + gap
		footH := u.PrintHeight + gap

		// A fresh roll is the best case; if the unit cannot fit one in
		// either axis no amount of packing will help.
		if footW > rollW-2*inset || footH > rollL-2*inset {
			return nil, &DesignTooLargeError{
				OrderProductID: u.OrderProductID,
				Modifier:       u.Modifier,
				WidthPx:        u.PrintWidth,
				HeightPx:       u.PrintHeight,
				UsableWidthPx:  rollW - 2*inset,
			}
		}

		if x+footW > maxX {
			// Close the shelf and retry on a new one.
			y += shelfHeight
			x = inset
			shelfHeight = 0
		}

		if y+footH > maxY {
			// The new shelf does not fit the roll length: close the roll.
			result.Rolls = append(result.Rolls, Roll{
				Number:     rollNumber,
				Placements: placements,
				UsedHeight: y,
			})
			rollNumber++
			placements = nil
			x, y = inset, inset
			shelfHeight = 0
		}

		placements = append(placements, Placement{
			RollNumber:     rollNumber,
			X:              x,
			Y:              y,
			Width:          footW,
			Height:         footH,
			PrintWidth:     u.PrintWidth,
			PrintHeight:    u.PrintHeight,
			Rotated:        u.Rotated,
			Seq:            u.Seq,
			SourceURL:      u.SourceURL,
			Modifier:       u.Modifier,
			OrderID:        u.OrderID,
			OrderProductID: u.OrderProductID,
		})
		x += footW
		if footH > shelfHeight {
			shelfHeight = footH
		}
	}

	result.Rolls = append(result.Rolls, Roll{
		Number:     rollNumber,
		Placements: placements,
		UsedHeight: y + shelfHeight,
	})
	result.TotalRolls = len(result.Rolls)
	result.TotalUnits = len(units)
	return result, nil
}
