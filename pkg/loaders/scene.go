package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/geometry"
	"github.com/df07/scenegraph-raytracer/pkg/lights"
	"github.com/df07/scenegraph-raytracer/pkg/material"
	"github.com/df07/scenegraph-raytracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ParseScene builds a scene from its JSON description.
//
// Nodes are declared in a flat "nodes" list and reference their children by name; the
// top-level "children" list attaches nodes below the implicit root. Transform operations
// are applied in order, each one in the parent's space.
func ParseScene(data []byte) (*scene.Scene, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid scene JSON")
	}
	doc := gjson.ParseBytes(data)
	s := scene.NewScene()

	if err := parseSettings(doc, s); err != nil {
		return nil, err
	}

	for i, l := range doc.Get("lights").Array() {
		light, err := parseLight(l)
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		s.AddLight(light)
	}

	// First pass creates every node so children can be referenced before they are declared
	refs := make(map[string]scene.NodeRef)
	nodes := doc.Get("nodes").Array()
	for i, n := range nodes {
		name := n.Get("name").String()
		if name == "" {
			return nil, fmt.Errorf("node %d has no name", i)
		}
		if _, exists := refs[name]; exists || name == "root" {
			return nil, fmt.Errorf("duplicate node name %q", name)
		}
		ref := s.CreateNode(name)
		if err := parseNode(n, ref); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		refs[name] = ref
	}

	root := s.RootRef()
	if err := applyTransforms(doc.Get("transforms"), root.Node()); err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	if err := attachChildren(root, doc.Get("children"), refs); err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	for _, n := range nodes {
		name := n.Get("name").String()
		if err := attachChildren(refs[name], n.Get("children"), refs); err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadScene loads and parses a JSON scene file
func LoadScene(filename string) (*scene.Scene, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return ParseScene(data)
}

// LoadSceneFromDir loads <dir>/<name>.json. The name must be a bare file name, which
// confines the file to dir whatever the directory is called.
func LoadSceneFromDir(dir, name string) (*scene.Scene, error) {
	if name == "" || strings.ContainsAny(name, "/\\\x00") {
		return nil, fmt.Errorf("invalid scene file name: %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return ParseScene(data)
}

func parseSettings(doc gjson.Result, s *scene.Scene) error {
	if w := doc.Get("width"); w.Exists() {
		s.Width = int(w.Int())
	}
	if h := doc.Get("height"); h.Exists() {
		s.Height = int(h.Int())
	}

	var err error
	if s.Ambient, err = parseVec3(doc.Get("ambient"), s.Ambient); err != nil {
		return fmt.Errorf("ambient: %w", err)
	}

	camera := doc.Get("camera")
	if s.Camera.Eye, err = parseVec3(camera.Get("eye"), s.Camera.Eye); err != nil {
		return fmt.Errorf("camera eye: %w", err)
	}
	if s.Camera.LookAt, err = parseVec3(camera.Get("lookAt"), s.Camera.LookAt); err != nil {
		return fmt.Errorf("camera lookAt: %w", err)
	}
	if s.Camera.Up, err = parseVec3(camera.Get("up"), s.Camera.Up); err != nil {
		return fmt.Errorf("camera up: %w", err)
	}
	if fov := camera.Get("fov"); fov.Exists() {
		s.Camera.FovY = fov.Float()
	}
	return nil
}

func parseLight(l gjson.Result) (lights.Light, error) {
	position, err := parseVec3(l.Get("position"), core.Vec3{})
	if err != nil {
		return lights.Light{}, fmt.Errorf("position: %w", err)
	}
	color, err := parseVec3(l.Get("color"), core.NewVec3(1, 1, 1))
	if err != nil {
		return lights.Light{}, fmt.Errorf("color: %w", err)
	}
	falloffVec, err := parseVec3(l.Get("falloff"), core.NewVec3(1, 0, 0))
	if err != nil {
		return lights.Light{}, fmt.Errorf("falloff: %w", err)
	}
	falloff := [3]float64{falloffVec.X, falloffVec.Y, falloffVec.Z}

	switch lights.LightType(l.Get("type").String()) {
	case lights.LightTypePoint, "":
		return lights.NewPointLight(position, color, falloff), nil
	case lights.LightTypeArea:
		return lights.NewAreaLight(position, color, falloff, l.Get("size").Float(), int(l.Get("samples").Int())), nil
	default:
		return lights.Light{}, fmt.Errorf("unknown light type %q", l.Get("type").String())
	}
}

func parseNode(n gjson.Result, ref scene.NodeRef) error {
	if p := n.Get("primitive"); p.Exists() {
		primitive, err := geometry.ParsePrimitive(p.String())
		if err != nil {
			return err
		}
		ref.SetPrimitive(primitive)
	}

	if m := n.Get("material"); m.Exists() {
		mat, err := parseMaterial(m)
		if err != nil {
			return fmt.Errorf("material: %w", err)
		}
		ref.SetMaterial(mat)
	}

	return applyTransforms(n.Get("transforms"), ref.Node())
}

func parseMaterial(m gjson.Result) (material.Material, error) {
	switch strings.ToLower(m.Get("type").String()) {
	case "none":
		return material.None(), nil
	case "phong", "":
		kd, err := parseVec3(m.Get("kd"), core.Vec3{})
		if err != nil {
			return material.Material{}, fmt.Errorf("kd: %w", err)
		}
		ks, err := parseVec3(m.Get("ks"), core.Vec3{})
		if err != nil {
			return material.Material{}, fmt.Errorf("ks: %w", err)
		}
		return material.NewPhong(kd, ks, m.Get("shininess").Float()), nil
	default:
		return material.Material{}, fmt.Errorf("unknown material type %q", m.Get("type").String())
	}
}

// applyTransforms applies a list of single-key operations:
// {"scale": [x,y,z]}, {"translate": [x,y,z]}, {"rotate": {"axis": "y", "angle": 30}} or
// {"matrix": [16 numbers, column-major]}
func applyTransforms(ops gjson.Result, node *scene.Node) error {
	for i, op := range ops.Array() {
		var err error
		switch {
		case op.Get("scale").Exists():
			var v core.Vec3
			if v, err = parseVec3(op.Get("scale"), core.Vec3{}); err == nil {
				err = node.Scale(v.X, v.Y, v.Z)
			}
		case op.Get("translate").Exists():
			var v core.Vec3
			if v, err = parseVec3(op.Get("translate"), core.Vec3{}); err == nil {
				err = node.Translate(v.X, v.Y, v.Z)
			}
		case op.Get("rotate").Exists():
			r := op.Get("rotate")
			err = node.Rotate(r.Get("axis").String(), r.Get("angle").Float())
		case op.Get("matrix").Exists():
			var m mgl64.Mat4
			if m, err = parseMat4(op.Get("matrix")); err == nil {
				err = node.ApplyMatrix(m)
			}
		default:
			err = fmt.Errorf("unknown operation %s", op.Raw)
		}
		if err != nil {
			return fmt.Errorf("transform %d: %w", i, err)
		}
	}
	return nil
}

func attachChildren(parent scene.NodeRef, children gjson.Result, refs map[string]scene.NodeRef) error {
	for _, c := range children.Array() {
		child, ok := refs[c.String()]
		if !ok {
			return fmt.Errorf("unknown child %q: %w", c.String(), scene.ErrInvalidNode)
		}
		if err := parent.AddChild(child); err != nil {
			return err
		}
	}
	return nil
}

// parseVec3 reads a 3-element number array, returning def when the value is absent
func parseVec3(r gjson.Result, def core.Vec3) (core.Vec3, error) {
	if !r.Exists() {
		return def, nil
	}
	values, err := parseNumbers(r, 3)
	if err != nil {
		return core.Vec3{}, err
	}
	return core.NewVec3(values[0], values[1], values[2]), nil
}

func parseMat4(r gjson.Result) (mgl64.Mat4, error) {
	values, err := parseNumbers(r, 16)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	var m mgl64.Mat4
	copy(m[:], values)
	return m, nil
}

func parseNumbers(r gjson.Result, n int) ([]float64, error) {
	if !r.IsArray() {
		return nil, fmt.Errorf("expected an array of %d numbers, got %s", n, r.Raw)
	}
	items := r.Array()
	if len(items) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(items))
	}
	values := make([]float64, n)
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, fmt.Errorf("element %d is not a number: %s", i, item.Raw)
		}
		values[i] = item.Float()
	}
	return values, nil
}

// ExportScene serializes a scene to JSON. Node transforms are written as a single matrix
// operation, and duplicate node names are made unique with their id.
func ExportScene(s *scene.Scene) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var err error
	set := func(doc []byte, path string, value interface{}) []byte {
		if err != nil {
			return doc
		}
		doc, err = sjson.SetBytes(doc, path, value)
		return doc
	}
	appendRaw := func(doc []byte, path string, raw []byte) []byte {
		if err != nil {
			return doc
		}
		doc, err = sjson.SetRawBytes(doc, path+".-1", raw)
		return doc
	}

	out := []byte(`{"lights":[],"nodes":[]}`)
	out = set(out, "width", s.Width)
	out = set(out, "height", s.Height)
	out = set(out, "ambient", vecSlice(s.Ambient))
	out = set(out, "camera.eye", vecSlice(s.Camera.Eye))
	out = set(out, "camera.lookAt", vecSlice(s.Camera.LookAt))
	out = set(out, "camera.up", vecSlice(s.Camera.Up))
	out = set(out, "camera.fov", s.Camera.FovY)

	for _, l := range s.Lights {
		light := []byte(`{}`)
		light = set(light, "type", string(l.Type))
		light = set(light, "position", vecSlice(l.Position))
		light = set(light, "color", vecSlice(l.Color))
		light = set(light, "falloff", l.Falloff[:])
		if l.Type == lights.LightTypeArea {
			light = set(light, "size", l.Size)
			light = set(light, "samples", l.SideGrid())
		}
		out = appendRaw(out, "lights", light)
	}

	names := exportNames(s)
	root := s.Nodes[s.Root]
	out = set(out, "transforms", matrixOps(root.Transform().Matrix()))
	out = set(out, "children", childNames(root, names))

	for _, n := range s.Nodes {
		if n.ID == s.Root {
			continue
		}
		node := []byte(`{}`)
		node = set(node, "name", names[n.ID])
		node = set(node, "primitive", n.Primitive.String())
		node = set(node, "material.type", n.Material.Type.String())
		if n.Material.Type == material.MaterialPhong {
			node = set(node, "material.kd", vecSlice(n.Material.Kd))
			node = set(node, "material.ks", vecSlice(n.Material.Ks))
			node = set(node, "material.shininess", n.Material.Shininess)
		}
		node = set(node, "transforms", matrixOps(n.Transform().Matrix()))
		node = set(node, "children", childNames(n, names))
		out = appendRaw(out, "nodes", node)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to export scene: %w", err)
	}
	return out, nil
}

func exportNames(s *scene.Scene) []string {
	names := make([]string, len(s.Nodes))
	seen := map[string]bool{"root": true, "": true}
	for _, n := range s.Nodes {
		if n.ID == s.Root {
			names[n.ID] = "root"
			continue
		}
		name := n.Name
		if seen[name] {
			name = fmt.Sprintf("%s-%d", n.Name, n.ID)
		}
		seen[name] = true
		names[n.ID] = name
	}
	return names
}

func childNames(n *scene.Node, names []string) []string {
	children := make([]string, len(n.Children))
	for i, c := range n.Children {
		children[i] = names[c]
	}
	return children
}

func vecSlice(v core.Vec3) []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// matrixOps wraps a matrix as a one-element transform list
func matrixOps(m mgl64.Mat4) []map[string][]float64 {
	return []map[string][]float64{{"matrix": m[:]}}
}

// validateFilePath validates a scene file path for security issues
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.Clean(filename)

	// Only allow files in scenes/ directory or temp directory (for tests)
	if !strings.HasPrefix(cleanPath, "scenes"+string(filepath.Separator)) &&
		!strings.HasPrefix(cleanPath, os.TempDir()) &&
		!strings.Contains(cleanPath, string(filepath.Separator)+"scenes"+string(filepath.Separator)) {
		return fmt.Errorf("file path must be in scenes/ directory")
	}

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid file path: directory traversal not allowed")
	}

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return fmt.Errorf("invalid file type: only .json files are allowed")
	}

	if len(cleanPath) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}

	return nil
}
