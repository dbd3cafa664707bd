package framestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/golang/snappy"
)

// ErrInvalidFrame is returned when a frame's pixel buffer does not match its dimensions
var ErrInvalidFrame = errors.New("invalid frame")

const headerSize = 4 * 4

// MaxFramePixels bounds the size of a single frame read from a stream or a message
const MaxFramePixels = 1 << 26

// Frame is an RGBA8 region of a rendered image, positioned at (X, Y) in the full frame
type Frame struct {
	X, Y          int
	Width, Height int
	Pix           []byte
}

// NewFrame wraps a full image buffer as a frame at the origin
func NewFrame(pix []byte, width, height int) Frame {
	return Frame{Width: width, Height: height, Pix: pix}
}

// NewTileFrame wraps a tile buffer covering bounds
func NewTileFrame(bounds image.Rectangle, pix []byte) Frame {
	return Frame{X: bounds.Min.X, Y: bounds.Min.Y, Width: bounds.Dx(), Height: bounds.Dy(), Pix: pix}
}

// Bounds returns the rectangle covered by the frame
func (f Frame) Bounds() image.Rectangle {
	return image.Rect(f.X, f.Y, f.X+f.Width, f.Y+f.Height)
}

// Validate checks dimensions and buffer length
func (f Frame) Validate() error {
	if err := f.checkSize(); err != nil {
		return err
	}
	if len(f.Pix) != f.pixLen() {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidFrame, len(f.Pix), f.Width, f.Height)
	}
	return nil
}

// checkSize rejects frames that are empty or larger than MaxFramePixels
func (f Frame) checkSize() error {
	if f.X < 0 || f.Y < 0 || f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: bounds %v", ErrInvalidFrame, f.Bounds())
	}
	if f.Width > MaxFramePixels/f.Height {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidFrame, f.Width, f.Height, MaxFramePixels)
	}
	return nil
}

func (f Frame) pixLen() int {
	return 4 * f.Width * f.Height
}

func putHeader(dst []byte, f Frame) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(f.X))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(f.Y))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(f.Width))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(f.Height))
}

func parseHeader(src []byte) Frame {
	return Frame{
		X:      int(binary.LittleEndian.Uint32(src[0:4])),
		Y:      int(binary.LittleEndian.Uint32(src[4:8])),
		Width:  int(binary.LittleEndian.Uint32(src[8:12])),
		Height: int(binary.LittleEndian.Uint32(src[12:16])),
	}
}

// EncodeWire packs a frame into a single message: a fixed header followed by the
// snappy-compressed pixels. Used for websocket tile updates.
func EncodeWire(f Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	compressed := snappy.Encode(nil, f.Pix)
	msg := make([]byte, headerSize+len(compressed))
	putHeader(msg, f)
	copy(msg[headerSize:], compressed)
	return msg, nil
}

// DecodeWire reverses EncodeWire
func DecodeWire(msg []byte) (Frame, error) {
	if len(msg) < headerSize {
		return Frame{}, fmt.Errorf("%w: short message (%d bytes)", ErrInvalidFrame, len(msg))
	}
	f := parseHeader(msg)
	if err := f.checkSize(); err != nil {
		return Frame{}, err
	}
	if n, err := snappy.DecodedLen(msg[headerSize:]); err != nil || n != f.pixLen() {
		return Frame{}, fmt.Errorf("%w: pixel data does not match %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	pix, err := snappy.Decode(nil, msg[headerSize:])
	if err != nil {
		return Frame{}, fmt.Errorf("decode pixels: %w", err)
	}
	f.Pix = pix
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}
