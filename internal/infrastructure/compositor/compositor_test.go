package compositor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
)

// encodePNG renders a solid-color PNG for the test image server.
func encodePNG(t *testing.T, c color.RGBA, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newImageServer serves the given bodies by path and counts requests per path.
func newImageServer(t *testing.T, bodies map[string][]byte) (*httptest.Server, *int64) {
	t.Helper()

	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func testRollSettings(widthInches float64, dpi int) gangsheet.RollSettings {
	return gangsheet.RollSettings{
		RollWidth:   decimal.NewFromFloat(widthInches),
		RollLength:  decimal.NewFromInt(100),
		DPI:         dpi,
		Gap:         decimal.Zero,
		Border:      false,
		BorderSize:  decimal.NewFromFloat(0.02),
		BorderColor: "#ff0000",
	}
}

func TestImageFetcher_FetchAll(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	server, requests := newImageServer(t, map[string][]byte{
		"/designs/a.png": encodePNG(t, blue, 40, 40),
		"/designs/b.png": encodePNG(t, blue, 20, 20),
		"/broken.png":    []byte("not a png"),
	})

	fetcher := NewImageFetcher(4, 5*time.Second)
	ctx := context.Background()

	t.Run("deduplicates repeated URLs", func(t *testing.T) {
		atomic.StoreInt64(requests, 0)
		urlA := server.URL + "/designs/a.png"

		images, failures := fetcher.FetchAll(ctx, []string{urlA, urlA, urlA})
		require.Empty(t, failures)
		require.Len(t, images, 1)
		assert.Equal(t, int64(1), atomic.LoadInt64(requests), "same URL should be fetched once")

		img := images[urlA]
		assert.Equal(t, 40, img.Bounds().Dx())
	})

	t.Run("fetches distinct URLs concurrently", func(t *testing.T) {
		urlA := server.URL + "/designs/a.png"
		urlB := server.URL + "/designs/b.png"

		images, failures := fetcher.FetchAll(ctx, []string{urlA, urlB})
		require.Empty(t, failures)
		assert.Len(t, images, 2)
	})

	t.Run("reports missing image without aborting batch", func(t *testing.T) {
		urlA := server.URL + "/designs/a.png"
		urlMissing := server.URL + "/nope.png"

		images, failures := fetcher.FetchAll(ctx, []string{urlA, urlMissing})
		assert.Len(t, images, 1)
		require.Contains(t, failures, urlMissing)
		assert.Contains(t, failures[urlMissing].Error(), "status 404")
	})

	t.Run("reports undecodable image", func(t *testing.T) {
		urlBroken := server.URL + "/broken.png"

		images, failures := fetcher.FetchAll(ctx, []string{urlBroken})
		assert.Empty(t, images)
		require.Contains(t, failures, urlBroken)
		assert.Contains(t, failures[urlBroken].Error(), "decode")
	})

	t.Run("cancelled context fails remaining URLs", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		images, failures := fetcher.FetchAll(cancelled, []string{server.URL + "/designs/a.png"})
		assert.Empty(t, images)
		assert.Len(t, failures, 1)
	})
}

func TestCompositor_ComposeRolls(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	server, _ := newImageServer(t, map[string][]byte{
		"/designs/square.png": encodePNG(t, blue, 40, 40),
		"/designs/wide.png":   encodePNG(t, blue, 40, 20),
	})

	fetcher := NewImageFetcher(2, 5*time.Second)
	comp := NewCompositor(fetcher)
	ctx := context.Background()

	squareURL := server.URL + "/designs/square.png"
	wideURL := server.URL + "/designs/wide.png"

	// 2in wide roll at 100dpi = 200px canvas
	settings := testRollSettings(2, 100)

	t.Run("renders placements at their coordinates", func(t *testing.T) {
		plan := &gangsheet.PlacementResult{
			Rolls: []gangsheet.Roll{{
				Number: 1,
				Placements: []gangsheet.Placement{
					{RollNumber: 1, X: 0, Y: 0, PrintWidth: 100, PrintHeight: 100, SourceURL: squareURL, Seq: 0},
					{RollNumber: 1, X: 100, Y: 0, PrintWidth: 100, PrintHeight: 100, SourceURL: squareURL, Seq: 1},
				},
				UsedHeight: 100,
			}},
			TotalUnits: 2,
			TotalRolls: 1,
		}

		rolls, err := comp.ComposeRolls(ctx, settings, plan)
		require.NoError(t, err)
		require.Len(t, rolls, 1)

		rr := rolls[0]
		assert.Equal(t, 1, rr.RollNumber)
		assert.Equal(t, 200, rr.Width)
		assert.Equal(t, 100, rr.Height)
		assert.Empty(t, rr.Failures)

		img, err := png.Decode(bytes.NewReader(rr.PNG))
		require.NoError(t, err)
		assert.Equal(t, 200, img.Bounds().Dx())
		assert.Equal(t, 100, img.Bounds().Dy())

		// Centers of both placements carry the design color
		_, _, b, a := img.At(50, 50).RGBA()
		assert.NotZero(t, a)
		assert.NotZero(t, b)
		_, _, b, a = img.At(150, 50).RGBA()
		assert.NotZero(t, a)
		assert.NotZero(t, b)
	})

	t.Run("rotated placement fills its transposed footprint", func(t *testing.T) {
		// 40x20 source rotated into a 50x100 slot
		plan := &gangsheet.PlacementResult{
			Rolls: []gangsheet.Roll{{
				Number: 1,
				Placements: []gangsheet.Placement{
					{RollNumber: 1, X: 0, Y: 0, PrintWidth: 50, PrintHeight: 100, Rotated: true, SourceURL: wideURL},
				},
				UsedHeight: 100,
			}},
			TotalUnits: 1,
			TotalRolls: 1,
		}

		rolls, err := comp.ComposeRolls(ctx, settings, plan)
		require.NoError(t, err)
		require.Len(t, rolls, 1)
		require.Empty(t, rolls[0].Failures)

		img, err := png.Decode(bytes.NewReader(rolls[0].PNG))
		require.NoError(t, err)

		// Inside the rotated footprint
		_, _, _, a := img.At(25, 50).RGBA()
		assert.NotZero(t, a)
		// Outside it the canvas stays transparent
		_, _, _, a = img.At(100, 50).RGBA()
		assert.Zero(t, a)
	})

	t.Run("missing design leaves footprint blank and reports failure", func(t *testing.T) {
		missingURL := server.URL + "/gone.png"
		productID := uuid.New()
		plan := &gangsheet.PlacementResult{
			Rolls: []gangsheet.Roll{{
				Number: 1,
				Placements: []gangsheet.Placement{
					{RollNumber: 1, X: 0, Y: 0, PrintWidth: 100, PrintHeight: 100, SourceURL: squareURL, Seq: 0},
					{RollNumber: 1, X: 100, Y: 0, PrintWidth: 100, PrintHeight: 100, SourceURL: missingURL, Seq: 1, OrderProductID: productID},
				},
				UsedHeight: 100,
			}},
			TotalUnits: 2,
			TotalRolls: 1,
		}

		rolls, err := comp.ComposeRolls(ctx, settings, plan)
		require.NoError(t, err)
		require.Len(t, rolls, 1)

		rr := rolls[0]
		require.Len(t, rr.Failures, 1)
		assert.Equal(t, 1, rr.Failures[0].Seq)
		assert.Equal(t, productID, rr.Failures[0].OrderProductID)
		assert.Contains(t, rr.Failures[0].Reason, "404")

		img, err := png.Decode(bytes.NewReader(rr.PNG))
		require.NoError(t, err)
		_, _, _, a := img.At(50, 50).RGBA()
		assert.NotZero(t, a, "fetched design should be drawn")
		_, _, _, a = img.At(150, 50).RGBA()
		assert.Zero(t, a, "failed design's footprint should stay blank")
	})

	t.Run("border stroke follows the placement footprint", func(t *testing.T) {
		bordered := settings
		bordered.Border = true // 0.02in at 100dpi = 2px stroke

		// Footprint is 10px wider and taller than the print (trailing gap).
		plan := &gangsheet.PlacementResult{
			Rolls: []gangsheet.Roll{{
				Number: 1,
				Placements: []gangsheet.Placement{
					{RollNumber: 1, X: 50, Y: 20, Width: 110, Height: 70, PrintWidth: 100, PrintHeight: 60, SourceURL: squareURL},
				},
				UsedHeight: 100,
			}},
			TotalUnits: 1,
			TotalRolls: 1,
		}

		rolls, err := comp.ComposeRolls(ctx, bordered, plan)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(rolls[0].PNG))
		require.NoError(t, err)

		// Left footprint edge coincides with the print edge and carries the stroke
		r, _, b, a := img.At(50, 50).RGBA()
		assert.NotZero(t, a)
		assert.Greater(t, r, b, "border color should dominate at the footprint edge")

		// Right footprint edge (x=160) carries the stroke, in the gap region
		r, _, b, a = img.At(159, 50).RGBA()
		assert.NotZero(t, a)
		assert.Greater(t, r, b, "stroke should sit on the footprint boundary")

		// The print interior near its own right edge stays the design color
		r, _, b, _ = img.At(140, 50).RGBA()
		assert.Greater(t, b, r, "print pixels inside the footprint stay untouched")
	})

	t.Run("multiple rolls render independently", func(t *testing.T) {
		plan := &gangsheet.PlacementResult{
			Rolls: []gangsheet.Roll{
				{
					Number: 1,
					Placements: []gangsheet.Placement{
						{RollNumber: 1, X: 0, Y: 0, PrintWidth: 100, PrintHeight: 100, SourceURL: squareURL},
					},
					UsedHeight: 100,
				},
				{
					Number: 2,
					Placements: []gangsheet.Placement{
						{RollNumber: 2, X: 0, Y: 0, PrintWidth: 100, PrintHeight: 50, SourceURL: squareURL},
					},
					UsedHeight: 50,
				},
			},
			TotalUnits: 2,
			TotalRolls: 2,
		}

		rolls, err := comp.ComposeRolls(ctx, settings, plan)
		require.NoError(t, err)
		require.Len(t, rolls, 2)
		assert.Equal(t, 1, rolls[0].RollNumber)
		assert.Equal(t, 2, rolls[1].RollNumber)
		assert.Equal(t, 100, rolls[0].Height)
		assert.Equal(t, 50, rolls[1].Height)
	})

	t.Run("concurrent renders keep plan order", func(t *testing.T) {
		rollCount := 12
		rolls := make([]gangsheet.Roll, rollCount)
		for i := range rolls {
			rolls[i] = gangsheet.Roll{
				Number: i + 1,
				Placements: []gangsheet.Placement{
					{RollNumber: i + 1, X: 0, Y: 0, PrintWidth: 50, PrintHeight: 50, SourceURL: squareURL},
				},
				UsedHeight: 50 + i,
			}
		}
		plan := &gangsheet.PlacementResult{Rolls: rolls, TotalUnits: rollCount, TotalRolls: rollCount}

		rendered, err := comp.ComposeRolls(ctx, settings, plan)
		require.NoError(t, err)
		require.Len(t, rendered, rollCount)
		for i, rr := range rendered {
			assert.Equal(t, i+1, rr.RollNumber)
			assert.Equal(t, 50+i, rr.Height)
		}
	})

	t.Run("nil plan is rejected", func(t *testing.T) {
		_, err := comp.ComposeRolls(ctx, settings, nil)
		require.Error(t, err)
	})

	t.Run("cancelled context aborts the render", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		plan := &gangsheet.PlacementResult{
			Rolls: []gangsheet.Roll{{
				Number: 1,
				Placements: []gangsheet.Placement{
					{RollNumber: 1, X: 0, Y: 0, PrintWidth: 100, PrintHeight: 100, SourceURL: squareURL},
				},
				UsedHeight: 100,
			}},
			TotalUnits: 1,
			TotalRolls: 1,
		}

		_, err := comp.ComposeRolls(cancelled, settings, plan)
		require.Error(t, err)
	})
}
