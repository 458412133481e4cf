package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/omr-grader-mcp/internal/answerkey"
	"github.com/ironsheep/omr-grader-mcp/internal/bubbles"
	"github.com/ironsheep/omr-grader-mcp/internal/grader"
	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
	"github.com/ironsheep/omr-grader-mcp/internal/ocr"
	"github.com/ironsheep/omr-grader-mcp/internal/sheet"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "omr_evaluate").
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
// The message tells the operator what to do; data carries the Go error.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, toolErrorMessage(err), err.Error())
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

// toolErrorMessage maps pipeline errors to a hint for the operator.
func toolErrorMessage(err error) string {
	switch {
	case errors.Is(err, sheet.ErrSheetNotDetected):
		return "Answer sheet not detected: retake the photo with all four sheet edges visible against a darker background"
	case errors.Is(err, answerkey.ErrInvalidKeyFormat):
		return "Invalid answer key format: cells must read '<question>-<answer>', e.g. '12-b'"
	case errors.Is(err, answerkey.ErrUnsupportedFormat):
		return "Unsupported answer key file: use .xlsx, .csv or .json"
	case errors.Is(err, grader.ErrKeyRequired):
		return "No answer key loaded: call omr_load_key or pass key_path"
	case errors.Is(err, ocr.ErrUnavailable):
		return "Header OCR is not available in this build"
	}
	return "Tool execution failed"
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads the photo from cache as needed
//  4. Calls the grader
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Answer Key
	case "omr_load_key":
		return s.handleLoadKey(args)

	// Grading
	case "omr_evaluate":
		return s.handleEvaluate(ctx, args)
	case "omr_normalize":
		return s.handleNormalize(args)
	case "omr_detect_answers":
		return s.handleDetectAnswers(args)
	case "omr_grid_overlay":
		return s.handleGridOverlay(args)
	case "omr_read_header":
		return s.handleReadHeader(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

// === Basic Image Information Handlers ===

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Answer Key Handlers ===

type loadKeyResult struct {
	Source   string         `json:"source"`
	Subjects []string       `json:"subjects"`
	Answers  int            `json:"answers"`
	Parsed   int            `json:"parsed"`
	Skipped  int            `json:"skipped"`
	Warnings []string       `json:"warnings"`
	Key      *answerkey.Key `json:"key"`
}

func (s *Server) handleLoadKey(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open answer key: %w", err)
	}
	defer f.Close()

	key, report, err := s.grader.LoadKey(a.Path, f)
	if err != nil {
		return nil, err
	}

	return &loadKeyResult{
		Source:   a.Path,
		Subjects: key.Subjects(),
		Answers:  key.Len(),
		Parsed:   report.Parsed,
		Skipped:  report.Skipped,
		Warnings: report.Warnings,
		Key:      key,
	}, nil
}

// === Grading Handlers ===

type evaluateArgs struct {
	Path    string `json:"path"`
	KeyPath string `json:"key_path"`
}

func (s *Server) handleEvaluate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a evaluateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var key *grader.KeyInput
	if a.KeyPath != "" {
		data, err := os.ReadFile(a.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read answer key: %w", err)
		}
		key = &grader.KeyInput{Name: a.KeyPath, Data: data}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.grader.Evaluate(ctx, img, key)
}

type normalizeArgs struct {
	Path         string `json:"path"`
	IncludeImage *bool  `json:"include_image"`
}

type normalizeResult struct {
	Corners      [4]imaging.PointF     `json:"corners"`
	SourceWidth  int                   `json:"source_width"`
	SourceHeight int                   `json:"source_height"`
	Width        int                   `json:"width"`
	Height       int                   `json:"height"`
	Image        *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleNormalize(args json.RawMessage) (interface{}, error) {
	var a normalizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	sh, err := s.grader.Normalize(img)
	if err != nil {
		return nil, err
	}

	res := &normalizeResult{
		Corners:      sh.Corners,
		SourceWidth:  sh.SourceWidth,
		SourceHeight: sh.SourceHeight,
		Width:        sh.Gray.Bounds().Dx(),
		Height:       sh.Gray.Bounds().Dy(),
	}
	if a.IncludeImage == nil || *a.IncludeImage {
		if res.Image, err = imaging.EncodePNG(sh.Gray); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type detectAnswersArgs struct {
	Path              string `json:"path"`
	IncludeCandidates bool   `json:"include_candidates"`
}

type detectAnswersResult struct {
	Answers    bubbles.Answers     `json:"answers"`
	Marks      map[int][]string    `json:"marks"`
	Ambiguous  []int               `json:"ambiguous"`
	Threshold  uint8               `json:"threshold"`
	Candidates []bubbles.Candidate `json:"candidates,omitempty"`
}

func (s *Server) handleDetectAnswers(args json.RawMessage) (interface{}, error) {
	var a detectAnswersArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	_, ext, err := s.grader.Detect(img)
	if err != nil {
		return nil, err
	}

	res := &detectAnswersResult{
		Answers:   ext.Answers,
		Marks:     ext.Marks,
		Ambiguous: ext.Ambiguous,
		Threshold: ext.Threshold,
	}
	if a.IncludeCandidates {
		res.Candidates = ext.Candidates
	}
	return res, nil
}

type gridOverlayArgs struct {
	Path         string `json:"path"`
	OutlineColor string `json:"outline_color"`
	MarkColor    string `json:"mark_color"`
}

func (s *Server) handleGridOverlay(args json.RawMessage) (interface{}, error) {
	var a gridOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutlineColor == "" {
		a.OutlineColor = "#FF0000"
	}
	if a.MarkColor == "" {
		a.MarkColor = "#00C800"
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.grader.Overlay(img, a.OutlineColor, a.MarkColor)
}

func (s *Server) handleReadHeader(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.grader.ReadHeader(img)
}
