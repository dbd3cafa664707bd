package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/loaders"
	"github.com/df07/scenegraph-raytracer/pkg/renderer"
	"github.com/df07/scenegraph-raytracer/pkg/scene"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name
	ServiceName = "scenegraph.RenderService"

	renderMethod = "/" + ServiceName + "/Render"

	defaultMaxPixels = 4096 * 4096
)

// RenderServer renders a frame described by a request struct and returns its RGBA8 bytes.
//
// Request fields:
//
//	scene       built-in scene id (ignored when scene_json is set)
//	scene_json  inline JSON scene document
//	width       image width, defaults to the scene's width
//	height      image height, defaults to the scene's height
//	seed        star field seed, defaults to 42
//	stars       whether stars are drawn, defaults to true
//	workers     worker count, 0 for one per CPU
type RenderServer interface {
	Render(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error)
}

// RenderServiceDesc describes the render service for grpc.ServiceRegistrar
var RenderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RenderServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Render",
			Handler:    renderHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scenegraph/render.proto",
}

// RegisterRenderServer attaches srv to the registrar
func RegisterRenderServer(registrar grpc.ServiceRegistrar, srv RenderServer) {
	registrar.RegisterService(&RenderServiceDesc, srv)
}

func renderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RenderServer).Render(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: renderMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RenderServer).Render(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Option customises the render service
type Option func(*Service)

// WithLogger routes render progress to logger
func WithLogger(logger core.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxPixels caps the image size a single request may ask for
func WithMaxPixels(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPixels = n
		}
	}
}

// Service implements RenderServer on top of the local tile renderer
type Service struct {
	logger    core.Logger
	maxPixels int
}

// NewService creates a render service
func NewService(opts ...Option) *Service {
	service := &Service{logger: core.NopLogger{}, maxPixels: defaultMaxPixels}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service
}

// Render implements RenderServer
func (s *Service) Render(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	sc, config, err := s.parseRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	pix, stats, err := renderer.NewRaytracer(sc, config, s.logger).Render(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return nil, status.Error(codes.Canceled, "render cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return nil, status.Error(codes.DeadlineExceeded, "render deadline exceeded")
	case err != nil:
		return nil, status.Errorf(codes.InvalidArgument, "render: %v", err)
	}

	s.logger.Printf("Served %dx%d render (%d hit pixels, %d fallback)\n",
		config.Width, config.Height, stats.HitPixels, stats.FallbackPixels)
	return wrapperspb.Bytes(pix), nil
}

func (s *Service) parseRequest(req *structpb.Struct) (*scene.Scene, renderer.RenderConfig, error) {
	fields := req.GetFields()
	config := renderer.DefaultRenderConfig()

	var sc *scene.Scene
	var err error
	if doc := fields["scene_json"].GetStringValue(); doc != "" {
		sc, err = loaders.ParseScene([]byte(doc))
	} else {
		id := fields["scene"].GetStringValue()
		if id == "" {
			id = "default"
		}
		sc, err = scene.NewBuiltin(id)
	}
	if err != nil {
		return nil, config, err
	}

	config.Width = sc.Width
	config.Height = sc.Height
	if v, ok := fields["width"]; ok {
		config.Width = int(v.GetNumberValue())
	}
	if v, ok := fields["height"]; ok {
		config.Height = int(v.GetNumberValue())
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, config, fmt.Errorf("%w: %dx%d", renderer.ErrInvalidDimensions, config.Width, config.Height)
	}
	// Width*Height can overflow int for hostile sizes
	if config.Width > s.maxPixels/config.Height {
		return nil, config, fmt.Errorf("image of %dx%d exceeds the %d pixel limit", config.Width, config.Height, s.maxPixels)
	}

	if v, ok := fields["seed"]; ok {
		config.Seed = int64(v.GetNumberValue())
	}
	if v, ok := fields["stars"]; ok {
		config.Stars = v.GetBoolValue()
	}
	if v, ok := fields["workers"]; ok {
		config.NumWorkers = int(v.GetNumberValue())
	}
	return sc, config, nil
}
