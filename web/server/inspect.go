package server

import (
	"fmt"
	"net/http"

	"github.com/df07/scenegraph-raytracer/pkg/material"
	"github.com/df07/scenegraph-raytracer/pkg/renderer"
	"github.com/df07/scenegraph-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	NodeID       int                    `json:"nodeId"`
	NodeName     string                 `json:"nodeName"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	UV           [2]float64             `json:"uv"`
	Properties   map[string]interface{} `json:"properties"`
}

// extractMaterialInfo extracts the shading parameters of a material
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch mat.Type {
	case material.MaterialPhong:
		properties["kd"] = [3]float64{mat.Kd.X, mat.Kd.Y, mat.Kd.Z}
		properties["ks"] = [3]float64{mat.Ks.X, mat.Ks.Y, mat.Ks.Z}
		properties["shininess"] = mat.Shininess
		kd := mat.Kd.Clamp(0, 1)
		properties["color"] = fmt.Sprintf("#%02x%02x%02x",
			int(kd.X*255), int(kd.Y*255), int(kd.Z*255))
	case material.MaterialNone:
		properties["color"] = "#000000"
	}
	return mat.Type.String(), properties
}

// inspectPixel casts the primary ray through a pixel and describes the first node hit
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) (InspectResponse, error) {
	camera := renderer.NewCamera(sceneObj.Camera, width, height)
	ray := camera.GetRay(pixelX, pixelY)

	hit, ok := sceneObj.Intersects(ray)
	if !ok {
		return InspectResponse{Hit: false, NodeID: -1, Properties: map[string]interface{}{}}, nil
	}

	node, err := sceneObj.Node(hit.NodeID)
	if err != nil {
		return InspectResponse{}, err
	}
	materialType, properties := extractMaterialInfo(node.Material)

	return InspectResponse{
		Hit:          true,
		NodeID:       node.ID,
		NodeName:     node.Name,
		MaterialType: materialType,
		GeometryType: node.Primitive.String(),
		Point:        [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Normal:       [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance:     hit.Point.Subtract(camera.Eye()).Length(),
		UV:           [2]float64{hit.U, hit.V},
		Properties:   properties,
	}, nil
}

// handleInspect reports which node is visible at a pixel
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	sceneObj, err := s.createScene(sceneParam(values))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := s.parseRenderRequest(values, sceneObj)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	x, err := parseIntParam(values, "x", req.Width/2, 0, req.Width-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	y, err := parseIntParam(values, "y", req.Height/2, 0, req.Height-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := inspectPixel(sceneObj, req.Width, req.Height, x, y)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}
