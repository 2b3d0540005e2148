package gangsheet

import (
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// ExpandUnits resolves every design's print size and expands it into one
// PlaceableUnit per ordered copy. Units keep the original input order, with
// copies 1..N of each design emitted consecutively; the resulting Seq is the
// canonical sort key the planner uses to break ties, which keeps layouts
// reproducible regardless of map iteration order elsewhere.
func ExpandUnits(designs []DesignInput, s RollSettings) ([]PlaceableUnit, error) {
	units := make([]PlaceableUnit, 0, len(designs))

	seq := 0
	for _, d := range designs {
		if d.Quantity < 1 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Design quantity must be at least 1")
		}

		size, err := ResolvePrintSize(d, s)
		if err != nil {
			return nil, err
		}

		for copy := 1; copy <= d.Quantity; copy++ {
			units = append(units, PlaceableUnit{
				Seq:            seq,
				CopyIndex:      copy,
				PrintWidth:     size.Width,
				PrintHeight:    size.Height,
				Rotated:        size.Rotated,
				SourceURL:      d.SourceURL,
				Modifier:       d.Modifier,
				OrderID:        d.OrderID,
				OrderProductID: d.OrderProductID,
			})
			seq++
		}
	}

	return units, nil
}
