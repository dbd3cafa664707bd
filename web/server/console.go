package server

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"
)

// Console levels, as shown by the browser console panel
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// ConsoleMessage is one renderer log line forwarded to a streaming client
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
}

// WebLogger is the renderer logger of a single streamed render. Lines go to the
// server log tagged with the render ID and, without ever blocking the render, to
// the client's console channel.
type WebLogger struct {
	renderID string
	console  chan<- ConsoleMessage
	dropped  atomic.Int64
}

// NewWebLogger creates the logger for one render. A nil channel only logs server side.
func NewWebLogger(renderID string, console chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{renderID: renderID, console: console}
}

// RenderID identifies the render in server logs and console messages
func (wl *WebLogger) RenderID() string {
	return wl.renderID
}

// Dropped returns how many console messages were skipped because the client fell behind
func (wl *WebLogger) Dropped() int64 {
	return wl.dropped.Load()
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", wl.renderID, strings.TrimRight(message, "\n"))

	if wl.console == nil {
		return
	}
	select {
	case wl.console <- ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     consoleLevel(message),
	}:
	default:
		wl.dropped.Add(1)
	}
}

// consoleLevel classifies a renderer log line
func consoleLevel(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "error"), strings.Contains(lower, "panic"), strings.Contains(lower, "failed"):
		return LevelError
	case strings.Contains(lower, "warning"), strings.Contains(lower, "stopped"):
		return LevelWarning
	default:
		return LevelInfo
	}
}
