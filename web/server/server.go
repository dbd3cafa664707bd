package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/df07/scenegraph-raytracer/pkg/loaders"
	"github.com/df07/scenegraph-raytracer/pkg/renderer"
	"github.com/df07/scenegraph-raytracer/pkg/scene"
	"github.com/gorilla/websocket"
)

// Image size limits accepted from query parameters
const (
	MinImageSize    = 1
	MaxImageSize    = 2000
	DefaultTileSize = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server handles web requests for the scene graph raytracer
type Server struct {
	port     int
	sceneDir string
}

// NewServer creates a new web server. Scene files are discovered in sceneDir.
func NewServer(port int, sceneDir string) *Server {
	return &Server{port: port, sceneDir: sceneDir}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene  string `json:"scene"`  // Built-in id or "file:<name>"
	Width  int    `json:"width"`  // Image width, defaults to the scene's width
	Height int    `json:"height"` // Image height, defaults to the scene's height
	Seed   int64  `json:"seed"`   // Star field seed
	Stars  bool   `json:"stars"`  // Whether stars are drawn
}

// Stats represents render statistics
type Stats struct {
	TotalPixels      int   `json:"totalPixels"`
	HitPixels        int   `json:"hitPixels"`
	BackgroundPixels int   `json:"backgroundPixels"`
	StarPixels       int   `json:"starPixels"`
	FallbackPixels   int   `json:"fallbackPixels"`
	ShadowRays       int   `json:"shadowRays"`
	Tiles            int   `json:"tiles"`
	ElapsedMs        int64 `json:"elapsedMs"`
}

func newStats(stats renderer.RenderStats) Stats {
	return Stats{
		TotalPixels:      stats.TotalPixels,
		HitPixels:        stats.HitPixels,
		BackgroundPixels: stats.BackgroundPixels,
		StarPixels:       stats.StarPixels,
		FallbackPixels:   stats.FallbackPixels,
		ShadowRays:       stats.ShadowRays,
		Tiles:            stats.TilesRendered,
		ElapsedMs:        stats.Duration.Milliseconds(),
	}
}

// Handler returns the HTTP handler serving the API and static files
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir("static/")))

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene", s.handleSceneExport)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/ws", s.handleStream)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and the scene files in the scene directory
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.sceneDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleSceneExport returns a scene as a JSON scene document
func (s *Server) handleSceneExport(w http.ResponseWriter, r *http.Request) {
	sceneObj, err := s.createScene(sceneParam(r.URL.Query()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := loaders.ExportScene(sceneObj)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// parseRenderRequest parses request parameters. Width and height default to the scene's own
// size, clamped to the served range.
func (s *Server) parseRenderRequest(values url.Values, sceneObj *scene.Scene) (*RenderRequest, error) {
	req := &RenderRequest{Scene: sceneParam(values)}

	var err error
	if req.Width, err = parseIntParam(values, "width", clampImageSize(sceneObj.Width), MinImageSize, MaxImageSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", clampImageSize(sceneObj.Height), MinImageSize, MaxImageSize); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(values, "seed", int(renderer.DefaultRenderConfig().Seed), 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)
	if req.Stars, err = parseBoolParam(values, "stars", true); err != nil {
		return nil, err
	}
	return req, nil
}

// renderConfig converts a request into a renderer configuration
func (req *RenderRequest) renderConfig() renderer.RenderConfig {
	config := renderer.DefaultRenderConfig()
	config.Width = req.Width
	config.Height = req.Height
	config.TileSize = DefaultTileSize
	config.Seed = req.Seed
	config.Stars = req.Stars
	return config
}

// clampImageSize keeps a scene's own size within the served range
func clampImageSize(size int) int {
	return max(MinImageSize, min(MaxImageSize, size))
}

func sceneParam(values url.Values) string {
	if name := values.Get("scene"); name != "" {
		return name
	}
	return "default"
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene resolves a built-in scene id or a "file:<name>" reference into the scene directory
func (s *Server) createScene(sceneName string) (*scene.Scene, error) {
	if name, ok := strings.CutPrefix(sceneName, "file:"); ok {
		return loaders.LoadSceneFromDir(s.sceneDir, name)
	}
	return scene.NewBuiltin(sceneName)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
