package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/scenegraph-raytracer/pkg/framestore"
	"github.com/df07/scenegraph-raytracer/pkg/loaders"
	"github.com/df07/scenegraph-raytracer/pkg/renderer"
	"github.com/df07/scenegraph-raytracer/pkg/scene"
	"github.com/gorilla/websocket"
)

const ballJSON = `{
	"name": "Ball",
	"description": "One sphere in front of the camera",
	"width": 20,
	"height": 20,
	"children": ["ball"],
	"nodes": [
		{"name": "ball", "transforms": [{"translate": [0, 0, -5]}]}
	]
}`

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	sceneDir := filepath.Join(t.TempDir(), "library")
	if err := os.MkdirAll(sceneDir, 0o755); err != nil {
		t.Fatalf("create scene dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sceneDir, "ball.json"), []byte(ballJSON), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}

	ts := httptest.NewServer(NewServer(0, sceneDir).Handler())
	t.Cleanup(ts.Close)
	return ts, sceneDir
}

func localRender(t *testing.T, s *scene.Scene, width, height int, seed int64) []byte {
	t.Helper()
	config := renderer.DefaultRenderConfig()
	config.Width, config.Height, config.Seed = width, height, seed
	config.TileSize = DefaultTileSize
	pix, _, err := renderer.NewRaytracer(s, config, nil).Render(context.Background())
	if err != nil {
		t.Fatalf("local render: %v", err)
	}
	return pix
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("Unexpected health response: %d %v", resp.StatusCode, body)
	}
}

func TestScenes(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/scenes")
	if err != nil {
		t.Fatalf("GET scenes: %v", err)
	}
	defer resp.Body.Close()

	var body scene.ScenesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Groups) != 2 {
		t.Fatalf("Expected built-in and file groups, got %+v", body.Groups)
	}
	files := body.Groups[1].Scenes
	if len(files) != 1 || files[0].ID != "file:ball" || files[0].Name != "Ball" {
		t.Errorf("Unexpected scene files: %+v", files)
	}
}

func TestSceneExport(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/scene?scene=shadow")
	if err != nil {
		t.Fatalf("GET scene: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	parsed, err := loaders.ParseScene(buf.Bytes())
	if err != nil {
		t.Fatalf("parse exported scene: %v", err)
	}
	if want := len(scene.NewShadowScene().Nodes); len(parsed.Nodes) != want {
		t.Errorf("Expected %d nodes, got %d", want, len(parsed.Nodes))
	}
}

func TestRender_PNG(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/render?scene=shadow&width=40&height=30&seed=3")
	if err != nil {
		t.Fatalf("GET render: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	if rgba.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Fatalf("Unexpected image bounds %v", rgba.Bounds())
	}
	if !bytes.Equal(rgba.Pix, localRender(t, scene.NewShadowScene(), 40, 30, 3)) {
		t.Error("Served PNG differs from a local render")
	}
}

func TestRender_SceneFile(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/render?scene=file:ball")
	if err != nil {
		t.Fatalf("GET render: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	// Size comes from the scene file
	if img.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Errorf("Unexpected image bounds %v", img.Bounds())
	}
}

func TestRender_SceneFileSizeClamped(t *testing.T) {
	ts, sceneDir := newTestServer(t)
	wide := strings.Replace(strings.Replace(ballJSON, `"width": 20`, `"width": 100000`, 1), `"height": 20`, `"height": 2`, 1)
	if err := os.WriteFile(filepath.Join(sceneDir, "wide.json"), []byte(wide), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/render?scene=file:wide")
	if err != nil {
		t.Fatalf("GET render: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, MaxImageSize, 2) {
		t.Errorf("Expected the scene width to be clamped, got %v", img.Bounds())
	}
}

func TestParseRenderRequest_ClampsSceneSize(t *testing.T) {
	sceneObj := scene.NewEmptyScene()
	sceneObj.Width, sceneObj.Height = 100000, 0

	req, err := NewServer(0, "").parseRenderRequest(url.Values{}, sceneObj)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Width != MaxImageSize || req.Height != MinImageSize {
		t.Errorf("Expected %dx%d, got %dx%d", MaxImageSize, MinImageSize, req.Width, req.Height)
	}
}

func TestRender_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"unknown scene", "scene=nope"},
		{"zero width", "width=0"},
		{"width too large", "width=5000"},
		{"bad height", "height=abc"},
		{"bad stars", "stars=maybe"},
		{"missing file", "scene=file:missing"},
		{"path in file name", "scene=" + url.QueryEscape("file:../ball")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/render?" + tt.query)
			if err != nil {
				t.Fatalf("GET render: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("Expected a JSON error body, got %v (%v)", body, err)
			}
		})
	}
}

func TestParseIntParam(t *testing.T) {
	values := url.Values{"a": {"5"}, "b": {"x"}, "c": {"100"}}

	if v, err := parseIntParam(values, "a", 1, 0, 10); err != nil || v != 5 {
		t.Errorf("Expected 5, got %d (%v)", v, err)
	}
	if v, err := parseIntParam(values, "missing", 7, 0, 10); err != nil || v != 7 {
		t.Errorf("Expected default 7, got %d (%v)", v, err)
	}
	if _, err := parseIntParam(values, "b", 1, 0, 10); err == nil {
		t.Error("Expected an error for a non-numeric value")
	}
	if _, err := parseIntParam(values, "c", 1, 0, 10); err == nil {
		t.Error("Expected an error for an out-of-range value")
	}
}

func TestInspect(t *testing.T) {
	ts, _ := newTestServer(t)

	get := func(query string) InspectResponse {
		t.Helper()
		resp, err := http.Get(ts.URL + "/api/inspect?" + query)
		if err != nil {
			t.Fatalf("GET inspect: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		var body InspectResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	center := get("scene=file:ball&x=10&y=10")
	if !center.Hit || center.NodeName != "ball" {
		t.Fatalf("Expected to hit the ball, got %+v", center)
	}
	if center.MaterialType != "phong" || center.GeometryType != "sphere" {
		t.Errorf("Unexpected types %q / %q", center.MaterialType, center.GeometryType)
	}
	if center.Distance < 4 || center.Distance > 4.1 {
		t.Errorf("Expected a distance just over 4, got %f", center.Distance)
	}
	if center.Properties["shininess"] != 6.0 {
		t.Errorf("Expected default shininess 6, got %v", center.Properties["shininess"])
	}

	corner := get("scene=file:ball&x=0&y=0")
	if corner.Hit {
		t.Errorf("Expected the corner ray to miss, got %+v", corner)
	}
}

func TestStream(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?scene=shadow&width=40&height=30&seed=3"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var start StreamMessage
	if err := conn.ReadJSON(&start); err != nil {
		t.Fatalf("read start: %v", err)
	}
	if start.Type != "start" || start.Width != 40 || start.Height != 30 || start.TotalTiles != 2 || start.RenderID == "" {
		t.Fatalf("Unexpected start message: %+v", start)
	}

	assembled := make([]byte, 4*40*30)
	tiles := 0
	var complete StreamMessage
	for complete.Type == "" {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}

		if msgType == websocket.BinaryMessage {
			frame, err := framestore.DecodeWire(data)
			if err != nil {
				t.Fatalf("decode tile: %v", err)
			}
			rowBytes := 4 * frame.Width
			for row := 0; row < frame.Height; row++ {
				offset := 4 * ((frame.Y+row)*40 + frame.X)
				copy(assembled[offset:offset+rowBytes], frame.Pix[row*rowBytes:(row+1)*rowBytes])
			}
			tiles++
			continue
		}

		var msg StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		switch msg.Type {
		case "console":
			if msg.Console == nil || msg.Console.RenderID != start.RenderID {
				t.Errorf("Console message not tagged with %s: %+v", start.RenderID, msg.Console)
			}
		case "complete":
			complete = msg
		default:
			t.Fatalf("Unexpected message: %+v", msg)
		}
	}

	if tiles != 2 {
		t.Errorf("Expected 2 tiles, got %d", tiles)
	}
	if complete.RenderID != start.RenderID {
		t.Errorf("Expected completion for %s, got %s", start.RenderID, complete.RenderID)
	}
	if complete.Stats == nil || complete.Stats.TotalPixels != 40*30 {
		t.Errorf("Unexpected completion stats: %+v", complete.Stats)
	}
	if !bytes.Equal(assembled, localRender(t, scene.NewShadowScene(), 40, 30, 3)) {
		t.Error("Streamed tiles differ from a local render")
	}
}

func TestStream_BadRequest(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?scene=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("Expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected a 400 handshake response, got %v", resp)
	}
}
