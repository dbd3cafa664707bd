package framestore

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Extension is the conventional suffix for frame dump files
const Extension = ".rgba.zst"

// Writer appends frames to a zstd-compressed stream. Each record is the frame
// header followed by its raw RGBA bytes.
type Writer struct {
	encoder *zstd.Encoder
	closer  io.Closer
	frames  int
}

// NewWriter wraps w in a zstd encoder
func NewWriter(w io.Writer) (*Writer, error) {
	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Writer{encoder: encoder}, nil
}

// CreateFile opens path for writing and returns a Writer that closes the file on Close
func CreateFile(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	writer, err := NewWriter(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.closer = file
	return writer, nil
}

// WriteFrame appends one frame
func (w *Writer) WriteFrame(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	header := make([]byte, headerSize)
	putHeader(header, f)
	if _, err := w.encoder.Write(header); err != nil {
		return err
	}
	if _, err := w.encoder.Write(f.Pix); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written so far
func (w *Writer) Frames() int {
	return w.frames
}

// Close flushes the encoder and closes the underlying file, if any
func (w *Writer) Close() error {
	err := w.encoder.Close()
	if w.closer != nil {
		if closeErr := w.closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// Reader reads frames written by Writer
type Reader struct {
	decoder *zstd.Decoder
	closer  io.Closer
}

// NewReader wraps r in a zstd decoder
func NewReader(r io.Reader) (*Reader, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Reader{decoder: decoder}, nil
}

// OpenFile opens a frame dump for reading
func OpenFile(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	reader, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.closer = file
	return reader, nil
}

// ReadFrame returns the next frame, or io.EOF when the stream ends cleanly
func (r *Reader) ReadFrame() (Frame, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r.decoder, header); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("read frame header: %w", err)
	}

	f := parseHeader(header)
	if err := f.checkSize(); err != nil {
		return Frame{}, err
	}
	f.Pix = make([]byte, f.pixLen())
	if _, err := io.ReadFull(r.decoder, f.Pix); err != nil {
		return Frame{}, fmt.Errorf("read frame pixels: %w", err)
	}
	return f, nil
}

// ReadAll reads every remaining frame
func (r *Reader) ReadAll() ([]Frame, error) {
	var frames []Frame
	for {
		f, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

// Close releases the decoder and the underlying file, if any
func (r *Reader) Close() error {
	r.decoder.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
