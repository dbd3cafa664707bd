package renderer

import (
	"context"
	"image"
	"testing"

	"github.com/df07/scenegraph-raytracer/pkg/scene"
)

func TestNewTileGrid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		tileSize      int
		expectedTiles int
		lastBounds    image.Rectangle
	}{
		{"exact fit", 64, 64, 32, 4, image.Rect(32, 32, 64, 64)},
		{"partial edge tiles", 70, 33, 32, 6, image.Rect(64, 32, 70, 33)},
		{"single tile", 10, 10, 64, 1, image.Rect(0, 0, 10, 10)},
		{"single pixel", 1, 1, 8, 1, image.Rect(0, 0, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := NewTileGrid(tt.width, tt.height, tt.tileSize, 0)
			if len(tiles) != tt.expectedTiles {
				t.Fatalf("Expected %d tiles, got %d", tt.expectedTiles, len(tiles))
			}
			if n := TileCount(tt.width, tt.height, tt.tileSize); n != tt.expectedTiles {
				t.Errorf("TileCount = %d, want %d", n, tt.expectedTiles)
			}

			covered := 0
			for i, tile := range tiles {
				if tile.ID != i {
					t.Errorf("Tile %d has ID %d", i, tile.ID)
				}
				covered += tile.Bounds.Dx() * tile.Bounds.Dy()
			}
			if covered != tt.width*tt.height {
				t.Errorf("Tiles cover %d pixels, want %d", covered, tt.width*tt.height)
			}
			if last := tiles[len(tiles)-1].Bounds; last != tt.lastBounds {
				t.Errorf("Last tile bounds = %v, want %v", last, tt.lastBounds)
			}
		})
	}
}

func TestTileCount_Large(t *testing.T) {
	if n := TileCount(2000, 2000, 32); n != 63*63 {
		t.Errorf("Expected %d tiles, got %d", 63*63, n)
	}
	if n := TileCount(0, 10, 32); n != 0 {
		t.Errorf("Expected no tiles for an empty image, got %d", n)
	}
}

func TestNewTile_SeedFromID(t *testing.T) {
	a := NewTile(3, image.Rect(0, 0, 1, 1), 100)
	b := NewTile(3, image.Rect(5, 5, 6, 6), 100)
	c := NewTile(4, image.Rect(0, 0, 1, 1), 100)

	va, vb, vc := a.Random.Int63(), b.Random.Int63(), c.Random.Int63()
	if va != vb {
		t.Error("Tiles with the same id and seed should share a random sequence")
	}
	if va == vc {
		t.Error("Tiles with different ids should not share a random sequence")
	}
}

func TestExtractTile(t *testing.T) {
	// 3x2 frame with pixel index in the red channel
	frame := make([]byte, 4*3*2)
	for i := 0; i < 6; i++ {
		frame[4*i] = byte(i)
	}

	pix := extractTile(image.Rect(1, 0, 3, 2), frame, 3)
	if len(pix) != 16 {
		t.Fatalf("Expected 16 bytes, got %d", len(pix))
	}
	for i, want := range []byte{1, 2, 4, 5} {
		if pix[4*i] != want {
			t.Errorf("Tile pixel %d = %d, want %d", i, pix[4*i], want)
		}
	}
}

func TestWorkerPool_RendersEveryTaskOnce(t *testing.T) {
	config := testConfig(20, 20)
	config.TileSize = 5
	rt := NewRaytracer(scene.NewShadowScene(), config, nil)

	frame := make([]byte, 4*config.Width*config.Height)
	tiles := NewTileGrid(config.Width, config.Height, config.TileSize, config.Seed)
	pool := NewWorkerPool(rt, frame, len(tiles), 4)
	if pool.GetNumWorkers() != 4 {
		t.Errorf("Expected 4 workers, got %d", pool.GetNumWorkers())
	}

	pool.Start(context.Background())
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: i})
	}
	pool.Stop()

	seen := make(map[int]bool)
	var total RenderStats
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			t.Errorf("Task %d failed: %v", result.TaskID, result.Error)
		}
		if seen[result.TaskID] {
			t.Errorf("Task %d reported twice", result.TaskID)
		}
		seen[result.TaskID] = true
		total.Add(result.Stats)
	}

	if len(seen) != len(tiles) {
		t.Errorf("Expected %d results, got %d", len(tiles), len(seen))
	}
	if total.TotalPixels != 400 {
		t.Errorf("Expected 400 pixels rendered, got %d", total.TotalPixels)
	}
}

func TestWorkerPool_DefaultsToCPUCount(t *testing.T) {
	pool := NewWorkerPool(nil, nil, 1, 0)
	if pool.GetNumWorkers() <= 0 {
		t.Errorf("Expected a positive worker count, got %d", pool.GetNumWorkers())
	}
}
