package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/scan"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "document_scan").
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
// A photo without a document is not an error: detection tools answer with
// "found": false.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Debugw("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return resultResponse(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": mustMarshalJSON(result)},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values and per-call overrides
//  3. Loads the frame from cache
//  4. Runs the scanner
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Document Operations
	case "document_detect":
		return s.handleDocumentDetect(args)
	case "document_rectify":
		return s.handleDocumentRectify(args)
	case "document_scan":
		return s.handleDocumentScan(args)
	case "document_enhance":
		return s.handleDocumentEnhance(args)
	case "document_edges":
		return s.handleDocumentEdges(args)
	case "document_overlay":
		return s.handleDocumentOverlay(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse builds a JSON-RPC error. An empty data string is omitted.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: jsonRPCVersion, ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadFrame fetches path through the cache. An empty order selects the
// configured default.
func (s *Server) loadFrame(path, order string) (*imaging.Frame, error) {
	ord := s.cfg.ChannelOrder
	if order != "" {
		var err error
		if ord, err = imaging.ParseChannelOrder(order); err != nil {
			return nil, err
		}
	}
	return s.cache.LoadFrame(path, ord)
}

// scannerFor applies per-call detection overrides.
func (s *Server) scannerFor(overrides map[string]interface{}) (*scan.Scanner, error) {
	if len(overrides) == 0 {
		return s.scanner, nil
	}
	p, err := config.ApplyDetection(s.scanner.Params(), overrides)
	if err != nil {
		return nil, err
	}
	return s.scanner.With(p, s.scanner.EnhanceParams())
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Document Handlers ===

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type cornersJSON struct {
	TopLeft         pointJSON `json:"top_left"`
	TopRight        pointJSON `json:"top_right"`
	BottomRight     pointJSON `json:"bottom_right"`
	BottomLeft      pointJSON `json:"bottom_left"`
	ReferenceWidth  float64   `json:"reference_width"`
	ReferenceHeight float64   `json:"reference_height"`
}

func toPointJSON(p r2.Point) pointJSON { return pointJSON{X: p.X, Y: p.Y} }

func toCornersJSON(c *geometry.Corners) *cornersJSON {
	if c == nil {
		return nil
	}
	return &cornersJSON{
		TopLeft:         toPointJSON(c.TopLeft()),
		TopRight:        toPointJSON(c.TopRight()),
		BottomRight:     toPointJSON(c.BottomRight()),
		BottomLeft:      toPointJSON(c.BottomLeft()),
		ReferenceWidth:  c.ReferenceSize.Width,
		ReferenceHeight: c.ReferenceSize.Height,
	}
}

// detectResult is shared by every tool that runs detection.
type detectResult struct {
	Found       bool          `json:"found"`
	Corners     *cornersJSON  `json:"corners,omitempty"`
	Ratio       float64       `json:"ratio"`
	WorkingSize geometry.Size `json:"working_size"`
	Traced      int           `json:"contours_traced"`
	Candidates  int           `json:"candidates"`
	Examined    int           `json:"candidates_examined"`
}

func newDetectResult(det *detection.Detection) detectResult {
	return detectResult{
		Found:       det.Found(),
		Corners:     toCornersJSON(det.Corners),
		Ratio:       det.Ratio,
		WorkingSize: det.WorkingSize,
		Traced:      det.Traced,
		Candidates:  det.Candidates,
		Examined:    det.Examined,
	}
}

type documentDetectArgs struct {
	Path         string                 `json:"path"`
	Native       bool                   `json:"native"`
	ChannelOrder string                 `json:"channel_order"`
	Params       map[string]interface{} `json:"params"`
}

// detect runs detection and reports absence as a result rather than an
// error.
func (s *Server) detect(a documentDetectArgs) (*imaging.Frame, *detection.Detection, error) {
	frame, err := s.loadFrame(a.Path, a.ChannelOrder)
	if err != nil {
		return nil, nil, err
	}
	sc, err := s.scannerFor(a.Params)
	if err != nil {
		return nil, nil, err
	}
	det, err := sc.DetectDetail(frame, a.Native)
	if err != nil && !errors.Is(err, scan.ErrNoDocumentFound) {
		return nil, nil, err
	}
	return frame, det, nil
}

func (s *Server) handleDocumentDetect(args json.RawMessage) (interface{}, error) {
	var a documentDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	_, det, err := s.detect(a)
	if err != nil {
		return nil, err
	}
	return newDetectResult(det), nil
}

type documentRectifyArgs struct {
	Path            string      `json:"path"`
	Corners         []pointJSON `json:"corners"`
	ReferenceWidth  float64     `json:"reference_width"`
	ReferenceHeight float64     `json:"reference_height"`
	Reorder         bool        `json:"reorder"`
	ChannelOrder    string      `json:"channel_order"`
	OutputPath      string      `json:"output_path"`
}

func (s *Server) handleDocumentRectify(args json.RawMessage) (interface{}, error) {
	var a documentRectifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Corners) != 4 {
		return nil, fmt.Errorf("corners must contain exactly 4 points, got %d", len(a.Corners))
	}

	points := lo.Map(a.Corners, func(p pointJSON, _ int) r2.Point { return r2.Point{X: p.X, Y: p.Y} })
	var quad [4]r2.Point
	if a.Reorder {
		var err error
		if quad, err = geometry.Canonicalize(points); err != nil {
			return nil, err
		}
	} else {
		copy(quad[:], points)
	}

	frame, err := s.loadFrame(a.Path, a.ChannelOrder)
	if err != nil {
		return nil, err
	}
	corners := geometry.Corners{
		Points:        quad,
		ReferenceSize: geometry.Size{Width: a.ReferenceWidth, Height: a.ReferenceHeight},
	}
	out, err := s.scanner.Rectify(frame, corners)
	if err != nil {
		return nil, err
	}
	return imaging.Output(out.Image(), a.OutputPath)
}

type documentScanArgs struct {
	documentDetectArgs
	Enhance    bool   `json:"enhance"`
	OutputPath string `json:"output_path"`
}

type documentImageResult struct {
	detectResult
	Image *imaging.ImageResult `json:"image,omitempty"`
}

func (s *Server) handleDocumentScan(args json.RawMessage) (interface{}, error) {
	var a documentScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.loadFrame(a.Path, a.ChannelOrder)
	if err != nil {
		return nil, err
	}
	sc, err := s.scannerFor(a.Params)
	if err != nil {
		return nil, err
	}

	res, err := sc.Scan(frame, a.Native, a.Enhance)
	if errors.Is(err, scan.ErrNoDocumentFound) {
		return documentImageResult{detectResult: newDetectResult(res.Detection)}, nil
	}
	if err != nil {
		return nil, err
	}

	img, err := imaging.Output(res.Document.Image(), a.OutputPath)
	if err != nil {
		return nil, err
	}
	return documentImageResult{detectResult: newDetectResult(res.Detection), Image: img}, nil
}

type documentEnhanceArgs struct {
	Path         string   `json:"path"`
	BlockSize    *int     `json:"block_size"`
	Offset       *float64 `json:"offset"`
	ChannelOrder string   `json:"channel_order"`
	OutputPath   string   `json:"output_path"`
}

func (s *Server) handleDocumentEnhance(args json.RawMessage) (interface{}, error) {
	var a documentEnhanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	overrides := map[string]interface{}{}
	if a.BlockSize != nil {
		overrides["block_size"] = *a.BlockSize
	}
	if a.Offset != nil {
		overrides["offset"] = *a.Offset
	}
	ep, err := config.ApplyEnhance(s.scanner.EnhanceParams(), overrides)
	if err != nil {
		return nil, err
	}
	sc, err := s.scanner.With(s.scanner.Params(), ep)
	if err != nil {
		return nil, err
	}

	frame, err := s.loadFrame(a.Path, a.ChannelOrder)
	if err != nil {
		return nil, err
	}
	out, err := sc.EnhanceContrast(frame)
	if err != nil {
		return nil, err
	}
	return imaging.Output(out.Image(), a.OutputPath)
}

type documentEdgesArgs struct {
	documentDetectArgs
	OutputPath string `json:"output_path"`
}

type edgesResult struct {
	Ratio float64              `json:"ratio"`
	Image *imaging.ImageResult `json:"image"`
}

func (s *Server) handleDocumentEdges(args json.RawMessage) (interface{}, error) {
	var a documentEdgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.loadFrame(a.Path, a.ChannelOrder)
	if err != nil {
		return nil, err
	}
	sc, err := s.scannerFor(a.Params)
	if err != nil {
		return nil, err
	}

	edges, ratio, err := detection.EdgeMap(frame, sc.Params(), a.Native)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Output(edges.Image(), a.OutputPath)
	if err != nil {
		return nil, err
	}
	return edgesResult{Ratio: ratio, Image: img}, nil
}

type documentOverlayArgs struct {
	documentDetectArgs
	Color      string `json:"color"`
	Thickness  int    `json:"thickness"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleDocumentOverlay(args json.RawMessage) (interface{}, error) {
	var a documentOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = s.cfg.OverlayColor
	}
	if a.Thickness == 0 {
		a.Thickness = 3
	}

	frame, det, err := s.detect(a.documentDetectArgs)
	if err != nil {
		return nil, err
	}
	result := documentImageResult{detectResult: newDetectResult(det)}
	if !det.Found() {
		return result, nil
	}

	drawn, err := imaging.DrawCorners(frame.Image(), det.Corners.Points, a.Color, a.Thickness)
	if err != nil {
		return nil, err
	}
	if result.Image, err = imaging.Output(drawn, a.OutputPath); err != nil {
		return nil, err
	}
	return result, nil
}
