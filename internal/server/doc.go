// Package server implements the MCP (Model Context Protocol) server for
// grading photographed answer sheets.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load a photo and get metadata
//   - image_dimensions: Get width and height
//
// Answer Key:
//   - omr_load_key: Load an .xlsx, .csv or .json key and make it active
//
// Grading:
//   - omr_evaluate: Normalize, read and score a sheet
//   - omr_normalize: Locate and straighten the sheet
//   - omr_detect_answers: Read marks without scoring
//   - omr_grid_overlay: Draw the layout over the sheet for checking
//   - omr_read_header: OCR the header strip (Tesseract builds only)
//
// # Image Caching
//
// Decoded photos are cached by path and reused across tool calls, so an
// operator can detect, overlay and evaluate the same photo without decoding
// it again. A cached photo is decoded again when the file's size or
// modification time changes, so uploads saved over the same path are graded
// as the new sheet. Only the most recently decoded photos are kept.
//
// The active answer key lives in the grader and is shared by every call.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: What went wrong and what to do about it (retake the photo,
//     fix the key)
//   - data: The Go error string
//
// # Usage
//
//	g, err := grader.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.New(g, version).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
