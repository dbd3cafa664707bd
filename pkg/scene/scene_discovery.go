package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to JSON file (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const builtinGroup = "Built-in Scenes"

type builtin struct {
	info SceneInfo
	new  func() *Scene
}

var builtins = []builtin{
	{SceneInfo{ID: "default", Name: "Default Scene", Description: "Planet and moon hierarchy over a ground plane"}, NewDefaultScene},
	{SceneInfo{ID: "shadow", Name: "Shadow", Description: "A sphere casting a hard shadow from a point light"}, NewShadowScene},
	{SceneInfo{ID: "sphere-grid", Name: "Sphere Grid", Description: "Grid of rainbow-colored Phong spheres"}, NewSphereGridScene},
	{SceneInfo{ID: "empty", Name: "Empty", Description: "Background only"}, NewEmptyScene},
}

// BuiltinNames returns the ids of the built-in scenes in registration order
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.info.ID
	}
	return names
}

// NewBuiltin constructs the built-in scene with the given id
func NewBuiltin(id string) (*Scene, error) {
	for _, b := range builtins {
		if b.info.ID == id {
			return b.new(), nil
		}
	}
	return nil, fmt.Errorf("scene %q: %w", id, ErrUnknownScene)
}

// ListSceneFiles scans dir for JSON scene files and reads their header fields.
// A missing directory yields an empty list.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		info, err := ParseSceneMetadata(filePath)
		if err != nil {
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes, nil
}

// ParseSceneMetadata reads the name, description and group of a JSON scene file,
// falling back to values derived from the file name
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:       "file:" + nameWithoutExt,
		Name:     titleCase(nameWithoutExt),
		Group:    "Scene Files",
		Type:     "file",
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info, err
	}
	if !gjson.ValidBytes(data) {
		return info, fmt.Errorf("%s: invalid JSON", filePath)
	}

	meta := gjson.GetManyBytes(data, "name", "description", "group")
	if meta[0].String() != "" {
		info.Name = meta[0].String()
	}
	info.Description = meta[1].String()
	if meta[2].String() != "" {
		info.Group = meta[2].String()
	}
	return info, nil
}

// ListAllScenes returns built-in scenes followed by the scene files found in dir, grouped
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	all := make([]SceneInfo, 0, len(builtins))
	for _, b := range builtins {
		info := b.info
		info.Group = builtinGroup
		info.Type = "builtin"
		all = append(all, info)
	}

	files, err := ListSceneFiles(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}
	all = append(all, files...)

	groupMap := make(map[string][]SceneInfo)
	for _, info := range all {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{Name: builtinGroup, Scenes: groupMap[builtinGroup]})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
