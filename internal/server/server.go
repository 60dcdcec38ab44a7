package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MissEmlizB/annotate-ml/internal/dataset"
)

// Version is reported to clients during the initialize handshake.
var Version = "dev"

// Server answers MCP requests about one dataset.
type Server struct {
	ds  *dataset.Dataset
	in  io.Reader
	out io.Writer
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

// New creates a server for ds that reads requests from in and writes
// responses to out.
func New(ds *dataset.Dataset, in io.Reader, out io.Writer) *Server {
	return &Server{ds: ds, in: in, out: out}
}

// Run serves requests until the input ends or ctx is cancelled. On
// cancellation the input is closed if it is an io.Closer; otherwise the
// reading goroutine stays blocked until the input ends.
func (s *Server) Run(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- s.serve() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if c, ok := s.in.(io.Closer); ok {
			c.Close()
		}
		return nil
	}
}

func (s *Server) serve() error {
	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warn().Err(err).Msg("failed to parse request")
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				return errors.Wrap(err, "failed to write response")
			}
			continue
		}

		resp := s.handleRequest(&req)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return errors.Wrap(err, "failed to write response")
		}
	}

	return errors.Wrap(scanner.Err(), "failed to read request")
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	log.Debug().Str("method", req.Method).Interface("id", req.ID).Msg("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, -32601, "Method not found: "+req.Method, "")
	}
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "annotate-ml",
				"version": Version,
			},
		},
	}
}

// Explorer serves a dataset over MCP on a pair of streams, normally the
// process's stdin and stdout.
type Explorer struct {
	In  io.Reader
	Out io.Writer
}

// Explore implements toolkit.Explorer. It returns when the client closes
// the input or ctx is cancelled.
func (e *Explorer) Explore(ctx context.Context, ds *dataset.Dataset) error {
	log.Info().Int("rows", ds.Len()).Msg("serving dataset over MCP")
	return New(ds, e.In, e.Out).Run(ctx)
}
