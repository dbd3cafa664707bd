package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/scenegraph-raytracer/pkg/framestore"
	"github.com/df07/scenegraph-raytracer/pkg/loaders"
	"github.com/df07/scenegraph-raytracer/pkg/remote"
	"github.com/df07/scenegraph-raytracer/pkg/renderer"
	"github.com/df07/scenegraph-raytracer/pkg/scene"
)

// Config holds the command line options of a render
type Config struct {
	SceneType  string
	Width      int // 0 uses the scene's width
	Height     int // 0 uses the scene's height
	Seed       int64
	Stars      bool
	NumWorkers int
	TileSize   int
	Output     string // PNG path, empty for a timestamped file under output/
	Raw        bool   // Also write a zstd-compressed RGBA frame next to the PNG
	Remote     string // Render on a gRPC render service instead of locally
}

func main() {
	// Parse command line flags
	sceneType := flag.String("scene", "default", "Scene: "+strings.Join(scene.BuiltinNames(), ", ")+" or a path to a .json scene file")
	width := flag.Int("width", 0, "Image width (0 = scene default)")
	height := flag.Int("height", 0, "Image height (0 = scene default)")
	seed := flag.Int64("seed", renderer.DefaultRenderConfig().Seed, "Seed of the background star field")
	stars := flag.Bool("stars", true, "Draw background stars")
	workers := flag.Int("workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	tileSize := flag.Int("tile", renderer.DefaultRenderConfig().TileSize, "Tile size in pixels")
	output := flag.String("out", "", "Output PNG path (default output/<scene>/render_<timestamp>.png)")
	raw := flag.Bool("raw", false, "Also write the raw RGBA frame as "+framestore.Extension)
	remoteAddr := flag.String("remote", "", "Render on the gRPC render service at this address")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		fmt.Println("Scene Graph Raytracer")
		fmt.Println("Usage: raytracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		for _, name := range scene.BuiltinNames() {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("  scenes/<name>.json - JSON scene file")
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene_type>/render_<timestamp>.png")
		return
	}

	config := Config{
		SceneType:  *sceneType,
		Width:      *width,
		Height:     *height,
		Seed:       *seed,
		Stars:      *stars,
		NumWorkers: *workers,
		TileSize:   *tileSize,
		Output:     *output,
		Raw:        *raw,
		Remote:     *remoteAddr,
	}

	fmt.Println("Starting Scene Graph Raytracer...")
	filename, err := run(context.Background(), config)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", filename)
}

// run renders the configured scene and writes the output files, returning the PNG path
func run(ctx context.Context, config Config) (string, error) {
	selectedScene, err := createScene(config.SceneType)
	if err != nil {
		return "", err
	}

	width, height := config.Width, config.Height
	if width <= 0 {
		width = selectedScene.Width
	}
	if height <= 0 {
		height = selectedScene.Height
	}

	startTime := time.Now()
	var pix []byte
	if config.Remote != "" {
		pix, err = renderRemote(ctx, config, width, height)
	} else {
		pix, err = renderLocal(ctx, selectedScene, config, width, height)
	}
	if err != nil {
		return "", err
	}
	fmt.Printf("Render completed in %v\n", time.Since(startTime))

	filename := config.Output
	if filename == "" {
		outputDir := createOutputDir(config.SceneType)
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return "", fmt.Errorf("error creating output directory: %w", err)
		}
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	}

	img, err := loaders.NewImageData(pix, width, height)
	if err != nil {
		return "", err
	}
	if err := img.SavePNG(filename); err != nil {
		return "", fmt.Errorf("error saving PNG: %w", err)
	}

	if config.Raw {
		rawName := strings.TrimSuffix(filename, filepath.Ext(filename)) + framestore.Extension
		if err := writeRawFrame(rawName, pix, width, height); err != nil {
			return "", fmt.Errorf("error saving raw frame: %w", err)
		}
		fmt.Printf("Raw frame saved as %s\n", rawName)
	}
	return filename, nil
}

func renderLocal(ctx context.Context, s *scene.Scene, config Config, width, height int) ([]byte, error) {
	renderConfig := renderer.DefaultRenderConfig()
	renderConfig.Width = width
	renderConfig.Height = height
	renderConfig.Seed = config.Seed
	renderConfig.Stars = config.Stars
	renderConfig.NumWorkers = config.NumWorkers
	renderConfig.TileSize = config.TileSize

	raytracer := renderer.NewRaytracer(s, renderConfig, renderer.NewDefaultLogger())
	pix, stats, err := raytracer.Render(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Pixels: %d hit, %d background (%d stars), %d fallback; %d shadow rays\n",
		stats.HitPixels, stats.BackgroundPixels, stats.StarPixels, stats.FallbackPixels, stats.ShadowRays)
	return pix, nil
}

func renderRemote(ctx context.Context, config Config, width, height int) ([]byte, error) {
	conn, err := remote.Dial(config.Remote)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", config.Remote, err)
	}
	defer conn.Close()

	req := remote.Request{
		Width:   width,
		Height:  height,
		Seed:    config.Seed,
		Stars:   config.Stars,
		Workers: config.NumWorkers,
	}
	if isSceneFile(config.SceneType) {
		data, err := os.ReadFile(config.SceneType)
		if err != nil {
			return nil, err
		}
		req.SceneJSON = string(data)
	} else {
		req.Scene = config.SceneType
	}

	fmt.Printf("Rendering remotely on %s...\n", config.Remote)
	return remote.NewClient(conn).Render(ctx, req)
}

func writeRawFrame(filename string, pix []byte, width, height int) error {
	writer, err := framestore.CreateFile(filename)
	if err != nil {
		return err
	}
	if err := writer.WriteFrame(framestore.NewFrame(pix, width, height)); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

func isSceneFile(sceneType string) bool {
	return strings.HasSuffix(strings.ToLower(sceneType), ".json")
}

// createScene creates a built-in scene or loads a JSON scene file
func createScene(sceneType string) (*scene.Scene, error) {
	if sceneType == "" {
		return nil, fmt.Errorf("scene name cannot be empty")
	}
	if isSceneFile(sceneType) {
		return loaders.LoadScene(sceneType)
	}
	return scene.NewBuiltin(sceneType)
}

// createOutputDir returns the output directory for a scene type
func createOutputDir(sceneType string) string {
	base := sceneType
	if isSceneFile(sceneType) {
		base = strings.TrimSuffix(filepath.Base(sceneType), filepath.Ext(sceneType))
	}
	return filepath.Join("output", base)
}
