package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"
	"time"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/material"
	"github.com/df07/scenegraph-raytracer/pkg/scene"
)

// ErrInvalidDimensions is returned when asked to render an image with no pixels
var ErrInvalidDimensions = errors.New("image width and height must be positive")

// RenderConfig contains rendering configuration
type RenderConfig struct {
	Width      int   // Image width in pixels
	Height     int   // Image height in pixels
	TileSize   int   // Size of each square tile
	NumWorkers int   // Number of parallel workers (0 = use CPU count)
	Seed       int64 // Base seed of the per-tile random generators
	Stars      bool  // Whether the background star field is drawn
}

// DefaultRenderConfig returns sensible default values
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Width:      200,
		Height:     200,
		TileSize:   32,
		NumWorkers: 0,  // Auto-detect CPU count
		Seed:       42, // Deterministic unless the caller asks otherwise
		Stars:      true,
	}
}

// Raytracer renders a scene graph into an RGBA8 buffer
type Raytracer struct {
	scene   *scene.Scene
	config  RenderConfig
	camera  *Camera
	shading material.ShadingContext
	logger  core.Logger
}

// NewRaytracer creates a new raytracer. The scene must not be modified while a render runs.
func NewRaytracer(s *scene.Scene, config RenderConfig, logger core.Logger) *Raytracer {
	if config.TileSize <= 0 {
		config.TileSize = DefaultRenderConfig().TileSize
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	rt := &Raytracer{
		scene:  s,
		config: config,
		logger: logger,
	}
	if s != nil {
		rt.camera = NewCamera(s.Camera, config.Width, config.Height)
		rt.shading = material.ShadingContext{
			Eye:      s.Camera.Eye,
			Ambient:  s.Ambient,
			Lights:   s.Lights,
			Occluder: s,
		}
	}
	return rt
}

// FrameResult is the complete image produced by a render
type FrameResult struct {
	Pix   []byte // RGBA8, row-major, 4*Width*Height bytes
	Stats RenderStats
}

// TileCompletionResult contains a completed tile for streaming consumers
type TileCompletionResult struct {
	TileID     int
	Bounds     image.Rectangle
	Pix        []byte // RGBA8 pixels of just this tile
	TileNumber int    // Completion order (1-based)
	TotalTiles int
}

// Render renders the whole image. It either returns a complete buffer or an error, never
// a partially filled buffer.
func (rt *Raytracer) Render(ctx context.Context) ([]byte, RenderStats, error) {
	return rt.render(ctx, nil)
}

// RenderTiles renders with channel-based communication. Every tile is delivered on the
// tile channel exactly once as it completes; the frame channel then receives the assembled
// image. The caller should drain the tile channel before reading the others.
func (rt *Raytracer) RenderTiles(ctx context.Context) (<-chan TileCompletionResult, <-chan FrameResult, <-chan error) {
	tileChan := make(chan TileCompletionResult, 100)
	frameChan := make(chan FrameResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		defer close(frameChan)
		defer close(tileChan)

		pix, stats, err := rt.render(ctx, func(tile TileCompletionResult) {
			select {
			case tileChan <- tile:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errChan <- err
			return
		}
		frameChan <- FrameResult{Pix: pix, Stats: stats}
	}()

	return tileChan, frameChan, errChan
}

func (rt *Raytracer) validate() error {
	if rt.config.Width <= 0 || rt.config.Height <= 0 {
		return fmt.Errorf("%dx%d: %w", rt.config.Width, rt.config.Height, ErrInvalidDimensions)
	}
	if rt.config.Width > math.MaxInt/4/rt.config.Height {
		return fmt.Errorf("%dx%d: frame buffer too large: %w", rt.config.Width, rt.config.Height, ErrInvalidDimensions)
	}
	if rt.scene == nil {
		return fmt.Errorf("no scene to render")
	}
	return rt.scene.Validate()
}

func (rt *Raytracer) render(ctx context.Context, onTile func(TileCompletionResult)) ([]byte, RenderStats, error) {
	if err := rt.validate(); err != nil {
		return nil, RenderStats{}, err
	}

	startTime := time.Now()
	width, height := rt.config.Width, rt.config.Height
	frame := make([]byte, 4*width*height)
	tiles := NewTileGrid(width, height, rt.config.TileSize, rt.config.Seed)

	pool := NewWorkerPool(rt, frame, len(tiles), rt.config.NumWorkers)
	rt.logger.Printf("Rendering %dx%d in %d tiles using %d workers...\n",
		width, height, len(tiles), pool.GetNumWorkers())

	pool.Start(ctx)
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: i})
	}

	var stats RenderStats
	var renderErr error
	for i := 0; i < len(tiles); i++ {
		result, ok := pool.GetResult()
		if !ok {
			renderErr = fmt.Errorf("worker pool closed unexpectedly")
			break
		}
		if result.Error != nil {
			if renderErr == nil {
				renderErr = result.Error
			}
			continue
		}
		stats.Add(result.Stats)

		// Dispatch tile callbacks from this goroutine only
		if onTile != nil && renderErr == nil {
			onTile(TileCompletionResult{
				TileID:     result.Tile.ID,
				Bounds:     result.Tile.Bounds,
				Pix:        extractTile(result.Tile.Bounds, frame, width),
				TileNumber: i + 1,
				TotalTiles: len(tiles),
			})
		}
	}
	pool.Stop()

	if renderErr == nil {
		renderErr = ctx.Err()
	}
	if renderErr != nil {
		rt.logger.Printf("Rendering stopped: %v\n", renderErr)
		return nil, RenderStats{}, renderErr
	}

	stats.Duration = time.Since(startTime)
	rt.logger.Printf("Render completed in %v (%d hit, %d background, %d fallback pixels)\n",
		stats.Duration, stats.HitPixels, stats.BackgroundPixels, stats.FallbackPixels)
	return frame, stats, nil
}

// tracePixel computes the color of one pixel. Any numeric failure or panic while tracing
// is contained to the pixel, which falls back to the star-free background.
func (rt *Raytracer) tracePixel(x, y int, random *rand.Rand, stats *RenderStats) (color core.Vec3) {
	stats.TotalPixels++
	fallback := func() core.Vec3 {
		stats.FallbackPixels++
		bg, _ := Background(y, rt.config.Height, nil)
		return bg
	}
	defer func() {
		if r := recover(); r != nil {
			color = fallback()
		}
	}()

	ray := rt.camera.GetRay(x, y)
	if !ray.Direction.IsFinite() || ray.Direction.LengthSquared() == 0 {
		return fallback()
	}

	hit, ok := rt.scene.Intersects(ray)
	if !ok {
		bg, star := Background(y, rt.config.Height, random)
		stats.BackgroundPixels++
		if star {
			stats.StarPixels++
		}
		return bg
	}

	node := rt.scene.Nodes[hit.NodeID]
	shaded, shadowRays := node.Material.Color(hit, rt.shading)
	stats.ShadowRays += shadowRays
	if !shaded.IsFinite() {
		return fallback()
	}
	stats.HitPixels++
	return shaded
}
