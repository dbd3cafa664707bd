package renderer

import (
	"image"
	"math/rand"

	"github.com/df07/scenegraph-raytracer/pkg/core"
)

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID     int             // Unique tile identifier, row-major over the tile grid
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	Random *rand.Rand      // Tile-specific random generator for deterministic star fields
}

// NewTile creates a tile whose random generator is seeded from seed and the tile id, so a
// tile's output does not depend on which worker renders it
func NewTile(id int, bounds image.Rectangle, seed int64) *Tile {
	return &Tile{
		ID:     id,
		Bounds: bounds,
		Random: rand.New(rand.NewSource(seed + int64(id))),
	}
}

// TileCount returns the number of tiles NewTileGrid produces, without building them
func TileCount(width, height, tileSize int) int {
	if width <= 0 || height <= 0 || tileSize <= 0 {
		return 0
	}
	return tilesAcross(width, tileSize) * tilesAcross(height, tileSize)
}

func tilesAcross(size, tileSize int) int {
	return (size + tileSize - 1) / tileSize
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int, seed int64) []*Tile {
	var tiles []*Tile
	tileID := 0

	tilesX := tilesAcross(width, tileSize)
	tilesY := tilesAcross(height, tileSize)

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, NewTile(tileID, image.Rect(x0, y0, x1, y1), seed))
			tileID++
		}
	}

	return tiles
}

// renderTile traces every pixel of a tile into the shared frame buffer.
// Tiles never overlap, so concurrent calls on distinct tiles are safe.
func (rt *Raytracer) renderTile(tile *Tile, frame []byte) RenderStats {
	var stats RenderStats
	random := tile.Random
	if !rt.config.Stars {
		random = nil
	}

	for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
		for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
			color := rt.tracePixel(x, y, random, &stats)
			offset := 4 * (y*rt.config.Width + x)
			core.PutRGBA(frame[offset:offset+4], color)
		}
	}

	stats.TilesRendered = 1
	return stats
}

// extractTile copies a tile's pixels out of the frame buffer as a standalone RGBA8 buffer
func extractTile(bounds image.Rectangle, frame []byte, width int) []byte {
	rowBytes := 4 * bounds.Dx()
	pix := make([]byte, 0, rowBytes*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		start := 4 * (y*width + bounds.Min.X)
		pix = append(pix, frame[start:start+rowBytes]...)
	}
	return pix
}
