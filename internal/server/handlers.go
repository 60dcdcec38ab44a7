package server

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/MissEmlizB/annotate-ml/internal/dataset"
	"github.com/MissEmlizB/annotate-ml/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "dataset_row").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "dataset_summary":
		return s.handleSummary()
	case "dataset_row":
		return s.handleRow(args)
	case "dataset_row_overlay":
		return s.handleRowOverlay(args)
	case "dataset_crop_annotation":
		return s.handleCropAnnotation(args)
	default:
		return nil, errors.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response. Empty data is omitted.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Tools without required arguments may
// be called with none.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(args, v), "invalid arguments")
}

func (s *Server) row(index int) (*dataset.Row, error) {
	if index < 0 || index >= s.ds.Len() {
		return nil, errors.Errorf("row %d out of range [0, %d)", index, s.ds.Len())
	}
	return &s.ds.Rows[index], nil
}

// SummaryResult is returned by dataset_summary.
type SummaryResult struct {
	Root        string         `json:"root"`
	Rows        int            `json:"rows"`
	Annotations int            `json:"annotations"`
	Labels      map[string]int `json:"labels"`
}

func (s *Server) handleSummary() (interface{}, error) {
	labels := make(map[string]int)
	for _, row := range s.ds.Rows {
		for _, a := range row.Annotations {
			labels[a.Label]++
		}
	}
	return &SummaryResult{
		Root:        s.ds.Root,
		Rows:        s.ds.Len(),
		Annotations: s.ds.AnnotationCount(),
		Labels:      labels,
	}, nil
}

type rowArgs struct {
	Index int     `json:"index"`
	Scale float64 `json:"scale"`
}

// AnnotationResult is one annotation of a dataset_row result.
type AnnotationResult struct {
	Label       string              `json:"label"`
	Coordinates dataset.Coordinates `json:"coordinates"`

	// X1, Y1, X2, Y2 are the box edges in pixels; X2 and Y2 are exclusive.
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// RowResult is returned by dataset_row.
type RowResult struct {
	Index       int                `json:"index"`
	Path        string             `json:"path"`
	Image       imaging.Info       `json:"image"`
	Annotations []AnnotationResult `json:"annotations"`
	Labels      []string           `json:"labels"`
}

func (s *Server) handleRow(args json.RawMessage) (interface{}, error) {
	var a rowArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	row, err := s.row(a.Index)
	if err != nil {
		return nil, err
	}

	res := &RowResult{
		Index:       a.Index,
		Path:        row.Path,
		Image:       row.Info,
		Annotations: make([]AnnotationResult, 0, len(row.Annotations)),
	}
	seen := make(map[string]bool)
	for _, ann := range row.Annotations {
		r := ann.Rect()
		res.Annotations = append(res.Annotations, AnnotationResult{
			Label:       ann.Label,
			Coordinates: ann.Coordinates,
			X1:          r.Min.X,
			Y1:          r.Min.Y,
			X2:          r.Max.X,
			Y2:          r.Max.Y,
		})
		if !seen[ann.Label] {
			seen[ann.Label] = true
			res.Labels = append(res.Labels, ann.Label)
		}
	}
	sort.Strings(res.Labels)
	return res, nil
}

func (s *Server) handleRowOverlay(args json.RawMessage) (interface{}, error) {
	var a rowArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	row, err := s.row(a.Index)
	if err != nil {
		return nil, err
	}
	if row.ImageWithGroundTruth == nil {
		return nil, errors.Errorf("row %d has no ground truth overlay", a.Index)
	}
	return imaging.Encode(row.ImageWithGroundTruth, a.Scale)
}

type cropAnnotationArgs struct {
	Index      int     `json:"index"`
	Annotation int     `json:"annotation"`
	Scale      float64 `json:"scale"`
}

// CropResult is returned by dataset_crop_annotation.
type CropResult struct {
	Label string `json:"label"`
	*imaging.EncodedImage
}

func (s *Server) handleCropAnnotation(args json.RawMessage) (interface{}, error) {
	var a cropAnnotationArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	row, err := s.row(a.Index)
	if err != nil {
		return nil, err
	}
	if a.Annotation < 0 || a.Annotation >= len(row.Annotations) {
		return nil, errors.Errorf("annotation %d out of range [0, %d)", a.Annotation, len(row.Annotations))
	}

	ann := row.Annotations[a.Annotation]
	enc, err := imaging.CropEncoded(row.Image, ann.Rect(), a.Scale)
	if err != nil {
		return nil, err
	}
	return &CropResult{Label: ann.Label, EncodedImage: enc}, nil
}
