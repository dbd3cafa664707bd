package framestore

import (
	"bytes"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func gradientFrame(x, y, width, height int) Frame {
	pix := make([]byte, 4*width*height)
	for i := 0; i < width*height; i++ {
		pix[4*i] = byte(i)
		pix[4*i+1] = byte(2 * i)
		pix[4*i+2] = byte(255 - i)
		pix[4*i+3] = 255
	}
	return Frame{X: x, Y: y, Width: width, Height: height, Pix: pix}
}

func TestWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}

	frames := []Frame{
		gradientFrame(0, 0, 8, 4),
		gradientFrame(8, 0, 3, 4),
		gradientFrame(0, 4, 1, 1),
	}
	for i, f := range frames {
		if err := writer.WriteFrame(f); err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
	}
	if writer.Frames() != len(frames) {
		t.Errorf("Expected %d frames written, got %d", len(frames), writer.Frames())
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("create reader: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("read frames: %v", err)
	}
	if diff := cmp.Diff(frames, got); diff != "" {
		t.Errorf("Frames mismatch (-want +got):\n%s", diff)
	}
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame"+Extension)
	want := gradientFrame(0, 0, 16, 9)

	writer, err := CreateFile(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	if err := writer.WriteFrame(want); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Frame mismatch (-want +got):\n%s", diff)
	}
}

func TestWriter_RejectsInvalidFrames(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer writer.Close()

	tests := []struct {
		name  string
		frame Frame
	}{
		{"short buffer", Frame{Width: 2, Height: 2, Pix: make([]byte, 15)}},
		{"zero width", Frame{Width: 0, Height: 2}},
		{"negative origin", Frame{X: -1, Width: 1, Height: 1, Pix: make([]byte, 4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := writer.WriteFrame(tt.frame); !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("Expected ErrInvalidFrame, got %v", err)
			}
		})
	}
	if writer.Frames() != 0 {
		t.Errorf("Invalid frames must not be counted, got %d", writer.Frames())
	}
}

func TestReader_TruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	f := gradientFrame(0, 0, 4, 4)
	header := make([]byte, headerSize)
	putHeader(header, f)
	// Header promises 64 bytes of pixels but only 10 follow
	if _, err := writer.encoder.Write(append(header, f.Pix[:10]...)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reader, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("create reader: %v", err)
	}
	defer reader.Close()

	if _, err := reader.ReadFrame(); err == nil {
		t.Error("Expected an error for a truncated frame")
	}
}

func TestReader_OversizedHeader(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"max uint32 dimensions", 0xFFFFFFFF, 0xFFFFFFFF},
		{"wide strip", MaxFramePixels + 1, 1},
		{"one pixel over the limit", 1 << 13, 1<<13 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writer, err := NewWriter(&buf)
			if err != nil {
				t.Fatalf("create writer: %v", err)
			}
			header := make([]byte, headerSize)
			putHeader(header, Frame{Width: tt.width, Height: tt.height})
			if _, err := writer.encoder.Write(header); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := writer.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			reader, err := NewReader(&buf)
			if err != nil {
				t.Fatalf("create reader: %v", err)
			}
			defer reader.Close()

			if _, err := reader.ReadFrame(); !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("Expected ErrInvalidFrame, got %v", err)
			}
		})
	}
}

func TestWire_RoundTrip(t *testing.T) {
	want := NewTileFrame(image.Rect(32, 64, 40, 70), gradientFrame(0, 0, 8, 6).Pix)

	msg, err := EncodeWire(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeWire(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Frame mismatch (-want +got):\n%s", diff)
	}
	if got.Bounds() != image.Rect(32, 64, 40, 70) {
		t.Errorf("Unexpected bounds %v", got.Bounds())
	}
}

func TestWire_CompressesFlatTiles(t *testing.T) {
	pix := bytes.Repeat([]byte{10, 20, 30, 255}, 64*64)
	msg, err := EncodeWire(NewFrame(pix, 64, 64))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(msg) >= len(pix) {
		t.Errorf("Expected a flat tile to compress, got %d bytes for %d", len(msg), len(pix))
	}
}

func TestDecodeWire_Errors(t *testing.T) {
	valid, err := EncodeWire(gradientFrame(0, 0, 2, 2))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Header claims 3x3 but the payload holds 2x2
	mismatched := append([]byte(nil), valid...)
	putHeader(mismatched, Frame{Width: 3, Height: 3})

	oversized := append([]byte(nil), valid...)
	putHeader(oversized, Frame{Width: 0xFFFFFFFF, Height: 0xFFFFFFFF})

	tests := []struct {
		name string
		msg  []byte
	}{
		{"empty", nil},
		{"short header", valid[:headerSize-1]},
		{"corrupt payload", append(append([]byte(nil), valid[:headerSize]...), 0xff, 0xff, 0xff)},
		{"dimension mismatch", mismatched},
		{"oversized header", oversized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeWire(tt.msg); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
