// Package server implements the MCP (Model Context Protocol) server for the
// document scanner.
//
// This package provides a JSON-RPC 2.0 server that exposes document
// detection, rectification and enhancement through the MCP protocol, so an
// AI client can turn a phone photo of a page into a flat scan.
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
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Document Operations:
//   - document_detect: Find the four page corners
//   - document_rectify: Flatten the region inside four given corners
//   - document_scan: Detect, rectify and optionally enhance in one call
//   - document_enhance: Adaptive threshold for a scanned look
//   - document_edges: Show the edge map contours are traced on
//   - document_overlay: Draw the detected outline onto the photo
//
// Detection tools accept a "params" object whose keys override the
// configured detection settings for that call only.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, so a detect followed by a
// rectify decodes the photo once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A photo without a recognisable document is not an error. Detection tools
// return a normal result with "found": false.
//
// # Usage
//
//	cfg, _ := config.Load()
//	log, _ := logging.New(cfg.LogLevel)
//	srv, err := server.New(cfg, log, version)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
