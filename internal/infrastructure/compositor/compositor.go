package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"

	gangsheetapp "github.com/unaytac-cmd/printnest-sub005/internal/application/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
)

// Ensure Compositor implements RollCompositor
var _ gangsheetapp.RollCompositor = (*Compositor)(nil)

// Compositor renders each roll of a placement plan onto a transparent PNG
// canvas sized to the roll's used height. A design that fails to download or
// decode leaves its footprint blank and is reported as a unit failure instead
// of aborting the whole render.
type Compositor struct {
	fetcher *ImageFetcher
	logger  *zap.Logger
}

// CompositorOption is a functional option for configuring Compositor
type CompositorOption func(*Compositor)

// WithLogger sets a custom logger for Compositor
func WithLogger(logger *zap.Logger) CompositorOption {
	return func(c *Compositor) {
		c.logger = logger
	}
}

// NewCompositor creates a Compositor that downloads design images through
// the given fetcher.
func NewCompositor(fetcher *ImageFetcher, opts ...CompositorOption) *Compositor {
	c := &Compositor{
		fetcher: fetcher,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComposeRolls renders every roll in the plan.
func (c *Compositor) ComposeRolls(ctx context.Context, settings gangsheet.RollSettings, plan *gangsheet.PlacementResult) ([]gangsheetapp.RenderedRoll, error) {
	if plan == nil {
		return nil, fmt.Errorf("placement plan is required")
	}

	urls := make([]string, 0, plan.TotalUnits)
	for _, roll := range plan.Rolls {
		for _, p := range roll.Placements {
			urls = append(urls, p.SourceURL)
		}
	}

	images, fetchErrs := c.fetcher.FetchAll(ctx, urls)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Rolls render independently off the shared image map; results are
	// index-addressed so the output keeps plan order.
	rendered := make([]gangsheetapp.RenderedRoll, len(plan.Rolls))
	errs := make([]error, len(plan.Rolls))

	var wg sync.WaitGroup
	for i := range plan.Rolls {
		wg.Add(1)
		go func(i int, roll gangsheet.Roll) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}

			rr, err := c.renderRoll(settings, roll, images, fetchErrs)
			if err != nil {
				errs[i] = fmt.Errorf("failed to render roll %d: %w", roll.Number, err)
				return
			}
			rendered[i] = rr

			c.logger.Info("Roll rendered",
				zap.Int("roll", roll.Number),
				zap.Int("placements", len(roll.Placements)),
				zap.Int("failures", len(rr.Failures)),
				zap.Int("bytes", len(rr.PNG)))
		}(i, plan.Rolls[i])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rendered, nil
}

// renderRoll draws one roll's placements onto a canvas and encodes it as PNG.
func (c *Compositor) renderRoll(
	settings gangsheet.RollSettings,
	roll gangsheet.Roll,
	images map[string]image.Image,
	fetchErrs map[string]error,
) (gangsheetapp.RenderedRoll, error) {
	width := settings.PixelWidth()
	height := roll.UsedHeight
	if height <= 0 {
		return gangsheetapp.RenderedRoll{}, fmt.Errorf("roll %d has no used height", roll.Number)
	}

	dc := gg.NewContext(width, height)

	var failures []gangsheet.UnitFailure
	for _, p := range roll.Placements {
		img, ok := images[p.SourceURL]
		if !ok {
			reason := "design image unavailable"
			if err, hasErr := fetchErrs[p.SourceURL]; hasErr {
				reason = err.Error()
			}
			failures = append(failures, gangsheet.UnitFailure{
				RollNumber:     roll.Number,
				Seq:            p.Seq,
				SourceURL:      p.SourceURL,
				OrderID:        p.OrderID,
				OrderProductID: p.OrderProductID,
				Reason:         reason,
			})
			continue
		}

		// PrintWidth/PrintHeight are as-placed; a rotated unit is resized
		// in source orientation first, then turned.
		var prepared image.Image
		if p.Rotated {
			prepared = imaging.Rotate90(imaging.Resize(img, p.PrintHeight, p.PrintWidth, imaging.Lanczos))
		} else {
			prepared = imaging.Resize(img, p.PrintWidth, p.PrintHeight, imaging.Lanczos)
		}

		dc.DrawImage(prepared, p.X, p.Y)

		if settings.Border {
			// The stroke follows the footprint, so the border sits in the
			// gap region around the print rather than on the print pixels.
			dc.SetHexColor(settings.BorderColor)
			dc.SetLineWidth(float64(settings.BorderPixels()))
			dc.DrawRectangle(float64(p.X), float64(p.Y), float64(p.Width), float64(p.Height))
			dc.Stroke()
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return gangsheetapp.RenderedRoll{}, fmt.Errorf("failed to encode roll PNG: %w", err)
	}

	return gangsheetapp.RenderedRoll{
		RollNumber: roll.Number,
		Width:      width,
		Height:     height,
		PNG:        buf.Bytes(),
		Failures:   failures,
	}, nil
}
