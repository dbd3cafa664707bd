package remote

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Request describes a remote render
type Request struct {
	Scene     string // Built-in scene id
	SceneJSON string // Inline scene document, takes precedence over Scene
	Width     int    // 0 uses the scene's width
	Height    int    // 0 uses the scene's height
	Seed      int64
	Stars     bool
	Workers   int
}

func (r Request) toStruct() (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"seed":    float64(r.Seed),
		"stars":   r.Stars,
		"workers": r.Workers,
	}
	if r.SceneJSON != "" {
		fields["scene_json"] = r.SceneJSON
	} else if r.Scene != "" {
		fields["scene"] = r.Scene
	}
	if r.Width > 0 {
		fields["width"] = r.Width
	}
	if r.Height > 0 {
		fields["height"] = r.Height
	}
	return structpb.NewStruct(fields)
}

// Client calls a remote render service
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an established connection
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial opens a plaintext connection to addr
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// Render asks the server for a frame and returns its RGBA8 bytes
func (c *Client) Render(ctx context.Context, req Request, opts ...grpc.CallOption) ([]byte, error) {
	in, err := req.toStruct()
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, renderMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}
