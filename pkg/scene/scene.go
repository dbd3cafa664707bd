package scene

import (
	"fmt"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/geometry"
	"github.com/df07/scenegraph-raytracer/pkg/lights"
	"github.com/df07/scenegraph-raytracer/pkg/material"
)

// Scene is an arena of nodes addressed by integer id, plus everything else a render needs.
// It is mutated only while being built; rendering treats it as read-only and may share it
// between goroutines.
type Scene struct {
	Nodes   []*Node // Index == Node.ID
	Root    int     // Id of the root node
	Lights  []lights.Light
	Ambient core.Vec3
	Camera  core.CameraConfig
	Width   int // Suggested image width
	Height  int // Suggested image height

	logger core.Logger
}

// NewScene creates a scene holding a single empty root node
func NewScene() *Scene {
	s := &Scene{
		Ambient: core.NewVec3(0.4, 0.4, 0.4),
		Camera:  core.DefaultCameraConfig(),
		Width:   200,
		Height:  200,
		logger:  core.NopLogger{},
	}
	s.Nodes = append(s.Nodes, newNode(0, "root"))
	s.Root = 0
	return s
}

// SetLogger attaches a logger used for construction diagnostics
func (s *Scene) SetLogger(logger core.Logger) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	s.logger = logger
}

// CreateNode appends a node with the next sequential id. New nodes carry a unit sphere with
// an orange Phong material and are not attached to any parent.
func (s *Scene) CreateNode(name string) NodeRef {
	id := len(s.Nodes)
	node := newNode(id, name)
	node.Primitive = geometry.PrimitiveSphere
	node.Material = material.NewPhong(core.NewVec3(0.96, 0.37, 0.1), core.NewVec3(0.7, 0.7, 0.7), 6)
	s.Nodes = append(s.Nodes, node)
	return NodeRef{id: id, scene: s}
}

// RootRef returns a handle to the root node
func (s *Scene) RootRef() NodeRef {
	return NodeRef{id: s.Root, scene: s}
}

// Ref returns a handle to an existing node
func (s *Scene) Ref(id int) (NodeRef, error) {
	if _, err := s.Node(id); err != nil {
		return NodeRef{}, err
	}
	return NodeRef{id: id, scene: s}, nil
}

// Node returns the node with the given id
func (s *Scene) Node(id int) (*Node, error) {
	if id < 0 || id >= len(s.Nodes) || s.Nodes[id] == nil {
		return nil, fmt.Errorf("node %d: %w", id, ErrInvalidNode)
	}
	return s.Nodes[id], nil
}

// AddLight appends a light to the scene
func (s *Scene) AddLight(light lights.Light) {
	s.Lights = append(s.Lights, light)
}

// addChild links child under parent, refusing links that would create a cycle
func (s *Scene) addChild(parent, child int) error {
	p, err := s.Node(parent)
	if err != nil {
		return err
	}
	if _, err := s.Node(child); err != nil {
		return err
	}
	if parent == child || s.reachable(child, parent) {
		return fmt.Errorf("adding node %d under %d: %w", child, parent, ErrCycle)
	}
	p.Children = append(p.Children, child)
	return nil
}

// reachable reports whether to can be reached from from by following child links
func (s *Scene) reachable(from, to int) bool {
	visited := make(map[int]bool)
	stack := []int{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if visited[id] || id < 0 || id >= len(s.Nodes) {
			continue
		}
		visited[id] = true
		stack = append(stack, s.Nodes[id].Children...)
	}
	return false
}

// Validate checks the arena invariants the renderer relies on: the root exists, ids match
// indices, child ids are valid and no node reachable from the root is its own ancestor.
func (s *Scene) Validate() error {
	if _, err := s.Node(s.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	for i, n := range s.Nodes {
		if n == nil {
			return fmt.Errorf("node %d is missing: %w", i, ErrInvalidNode)
		}
		if n.ID != i {
			return fmt.Errorf("node %q has id %d at index %d: %w", n.Name, n.ID, i, ErrInvalidNode)
		}
		for _, c := range n.Children {
			if c < 0 || c >= len(s.Nodes) {
				return fmt.Errorf("node %q has dangling child %d: %w", n.Name, c, ErrInvalidNode)
			}
		}
	}

	const (
		unvisited = iota
		inProgress
		done
	)
	state := make([]int, len(s.Nodes))
	var visit func(id int) error
	visit = func(id int) error {
		switch state[id] {
		case inProgress:
			return fmt.Errorf("node %q: %w", s.Nodes[id].Name, ErrCycle)
		case done:
			return nil
		}
		state[id] = inProgress
		for _, c := range s.Nodes[id].Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	return visit(s.Root)
}

// Intersects finds the nearest hit along a world-space ray, expressed in world space.
// The scene must have passed Validate.
func (s *Scene) Intersects(ray core.Ray) (geometry.Intersection, bool) {
	return s.intersectsRecursive(s.Root, ray)
}

// intersectsRecursive strips one node's transform from the ray, tests the node and its
// children in that local space, and lifts the nearest result back into the parent's space.
// Candidates are ranked by squared distance to the local ray origin because t values are not
// comparable across differently scaled frames. On exact ties the first candidate found wins.
func (s *Scene) intersectsRecursive(id int, ray core.Ray) (geometry.Intersection, bool) {
	n := s.Nodes[id]
	local := ray.ToLocal(n.transform)

	best, found := n.Intersects(local)
	bestDistance := 0.0
	if found {
		bestDistance = best.DistanceSquared(local.Origin)
	}

	for _, childID := range n.Children {
		hit, ok := s.intersectsRecursive(childID, local)
		if !ok {
			continue
		}
		distance := hit.DistanceSquared(local.Origin)
		if !found || distance < bestDistance {
			best, bestDistance, found = hit, distance, true
		}
	}

	if !found {
		return geometry.Intersection{}, false
	}
	return best.ApplyTransform(n.transform), true
}

// NodeRef is a construction-time handle to a node in a scene
type NodeRef struct {
	id    int
	scene *Scene
}

// ID returns the node id
func (r NodeRef) ID() int {
	return r.id
}

// Node returns the referenced node
func (r NodeRef) Node() *Node {
	return r.scene.Nodes[r.id]
}

// AddChild attaches child below this node
func (r NodeRef) AddChild(child NodeRef) error {
	return r.scene.addChild(r.id, child.id)
}

// Scale applies a scale in parent space
func (r NodeRef) Scale(x, y, z float64) error {
	r.scene.logger.Printf("Applying scaling to %s of (%g, %g, %g)\n", r.Node().Name, x, y, z)
	return r.Node().Scale(x, y, z)
}

// Translate applies a translation in parent space
func (r NodeRef) Translate(x, y, z float64) error {
	r.scene.logger.Printf("Applying translation to %s of (%g, %g, %g)\n", r.Node().Name, x, y, z)
	return r.Node().Translate(x, y, z)
}

// Rotate applies a rotation in degrees about axis x, y or z in parent space
func (r NodeRef) Rotate(axis string, angle float64) error {
	r.scene.logger.Printf("Applying rotation to %s of (%s, %g)\n", r.Node().Name, axis, angle)
	return r.Node().Rotate(axis, angle)
}

// SetPrimitive replaces the node's primitive
func (r NodeRef) SetPrimitive(p geometry.Primitive) {
	r.Node().Primitive = p
}

// SetMaterial replaces the node's material
func (r NodeRef) SetMaterial(m material.Material) {
	r.Node().Material = m
}
