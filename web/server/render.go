package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/df07/scenegraph-raytracer/pkg/framestore"
	"github.com/df07/scenegraph-raytracer/pkg/loaders"
	"github.com/df07/scenegraph-raytracer/pkg/renderer"
	"github.com/gorilla/websocket"
)

// StreamMessage is a JSON text message on the tile stream. Tiles themselves travel as
// binary messages in framestore wire format (header plus snappy-compressed RGBA).
type StreamMessage struct {
	Type       string          `json:"type"` // "start", "console", "complete", "error"
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	TotalTiles int             `json:"totalTiles,omitempty"`
	RenderID   string          `json:"renderId,omitempty"`
	Dropped    int64           `json:"droppedConsoleMessages,omitempty"`
	Console    *ConsoleMessage `json:"console,omitempty"`
	Stats      *Stats          `json:"stats,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// handleRender renders the whole frame and responds with a PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	sceneObj, err := s.createScene(sceneParam(values))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := s.parseRenderRequest(values, sceneObj)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	raytracer := renderer.NewRaytracer(sceneObj, req.renderConfig(), renderer.NewDefaultLogger())
	pix, stats, err := raytracer.Render(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client disconnected
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	img, err := loaders.NewImageData(pix, req.Width, req.Height)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := img.EncodePNG(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode image: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Duration-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	w.Header().Set("X-Render-Hit-Pixels", strconv.Itoa(stats.HitPixels))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleStream renders over a websocket, sending each tile as soon as it completes
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	sceneObj, err := s.createScene(sceneParam(values))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := s.parseRenderRequest(values, sceneObj)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends data; a read error means it went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	config := req.renderConfig()
	consoleChan, webLogger := s.setupConsoleLogging()
	start := StreamMessage{
		Type:       "start",
		Width:      config.Width,
		Height:     config.Height,
		TotalTiles: renderer.TileCount(config.Width, config.Height, config.TileSize),
		RenderID:   webLogger.RenderID(),
	}
	if err := writeStreamMessage(conn, start); err != nil {
		return
	}

	tileChan, frameChan, errChan := renderer.NewRaytracer(sceneObj, config, webLogger).RenderTiles(ctx)
	s.streamRender(ctx, conn, webLogger, consoleChan, tileChan, frameChan, errChan)
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, *WebLogger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	return consoleChan, NewWebLogger(renderID, consoleChan)
}

// streamRender is the single writer for the connection: it forwards tiles and console
// messages until the render finishes, then sends the completion or error message.
func (s *Server) streamRender(ctx context.Context, conn *websocket.Conn, webLogger *WebLogger, consoleChan chan ConsoleMessage,
	tileChan <-chan renderer.TileCompletionResult, frameChan <-chan renderer.FrameResult, errChan <-chan error) {

	for tileChan != nil {
		select {
		case tile, ok := <-tileChan:
			if !ok {
				tileChan = nil // Channel closed
				continue
			}
			msg, err := framestore.EncodeWire(framestore.NewTileFrame(tile.Bounds, tile.Pix))
			if err != nil {
				log.Printf("Error encoding tile %d: %v", tile.TileID, err)
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return
			}

		case consoleMsg := <-consoleChan:
			if err := writeStreamMessage(conn, StreamMessage{Type: "console", Console: &consoleMsg}); err != nil {
				return
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}

	if err := <-errChan; err != nil {
		writeStreamMessage(conn, StreamMessage{Type: "error", Error: fmt.Sprintf("Rendering failed: %v", err)})
		return
	}
	frame, ok := <-frameChan
	if !ok {
		return
	}

	// Flush log lines written after the last tile
	for drained := false; !drained; {
		select {
		case consoleMsg := <-consoleChan:
			if err := writeStreamMessage(conn, StreamMessage{Type: "console", Console: &consoleMsg}); err != nil {
				return
			}
		default:
			drained = true
		}
	}

	stats := newStats(frame.Stats)
	complete := StreamMessage{Type: "complete", Stats: &stats, RenderID: webLogger.RenderID(), Dropped: webLogger.Dropped()}
	if err := writeStreamMessage(conn, complete); err != nil {
		return
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func writeStreamMessage(conn *websocket.Conn, msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
