package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/scan"
)

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	scanner *scan.Scanner
	cfg     *config.Config
	log     *zap.SugaredLogger
	version string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	jsonRPCVersion  = "2.0"
	protocolVersion = "2024-11-05"
	serverName      = "docscan-mcp"

	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeToolFailed     = -32000
)

// New creates a server using cfg for its scanner settings. A nil cfg means
// config.Default(); a nil log discards output.
func New(cfg *config.Config, log *zap.SugaredLogger, version string) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s, err := scan.New(log, cfg.Detection, cfg.Enhance)
	if err != nil {
		return nil, err
	}
	return &Server{
		cache:   imaging.NewImageCache(),
		scanner: s,
		cfg:     cfg,
		log:     log,
		version: version,
	}, nil
}

// Run serves MCP over stdin and stdout until stdin is closed.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w. It returns when r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	lines := bufio.NewScanner(r)
	// Requests carrying inline corner lists stay small, but allow 1 MiB lines.
	lines.Buffer(make([]byte, 0, 64*1024), 1<<20)
	enc := json.NewEncoder(w)

	for lines.Scan() {
		if len(lines.Bytes()) == 0 {
			continue
		}
		var req MCPRequest
		if err := json.Unmarshal(lines.Bytes(), &req); err != nil {
			s.log.Warnw("dropping malformed request", "error", err)
			continue
		}
		resp := s.handleRequest(&req)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			s.log.Errorw("failed to write response", "method", req.Method, "id", req.ID, "error", err)
		}
	}
	if err := lines.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}
	return nil
}

// handleRequest routes a request by method. Notifications yield nil.
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return resultResponse(req.ID, map[string]interface{}{})
	default:
		return s.errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return resultResponse(req.ID, map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    serverName,
			"version": s.version,
		},
	})
}

func resultResponse(id, result interface{}) *MCPResponse {
	return &MCPResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
}
