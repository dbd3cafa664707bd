package main

import (
	"flag"
	"log"
	"net"
	"os"

	"github.com/df07/scenegraph-raytracer/pkg/remote"
	"github.com/df07/scenegraph-raytracer/pkg/renderer"
	"github.com/df07/scenegraph-raytracer/web/server"
	"google.golang.org/grpc"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	sceneDir := flag.String("scenes", "scenes", "Directory containing JSON scene files")
	grpcAddr := flag.String("grpc", "", "Also serve the gRPC render service on this address (e.g. :9090)")
	flag.Parse()

	if *grpcAddr != "" {
		listener, err := net.Listen("tcp", *grpcAddr)
		if err != nil {
			log.Printf("Error listening on %s: %v", *grpcAddr, err)
			os.Exit(1)
		}
		grpcServer := grpc.NewServer()
		remote.RegisterRenderServer(grpcServer, remote.NewService(remote.WithLogger(renderer.NewDefaultLogger())))
		go func() {
			log.Printf("Serving gRPC render service on %s", *grpcAddr)
			if err := grpcServer.Serve(listener); err != nil {
				log.Printf("gRPC server stopped: %v", err)
			}
		}()
	}

	// Create and start web server
	webServer := server.NewServer(*port, *sceneDir)

	log.Printf("Scene Graph Raytracer Web Server")
	log.Printf("Visit http://localhost:%d to start rendering", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
