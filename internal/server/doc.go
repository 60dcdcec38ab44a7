// Package server lets an MCP (Model Context Protocol) client explore an
// annotated dataset.
//
// The server speaks JSON-RPC 2.0 over a pair of streams, one message per
// line:
//   - Input: JSON-RPC requests (stdin when run by annotate-ml)
//   - Output: JSON-RPC responses (stdout)
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - dataset_summary: row and annotation counts, boxes per label
//   - dataset_row: one row's path, image metadata and annotations
//   - dataset_row_overlay: a row's ground-truth overlay as PNG
//   - dataset_crop_annotation: the pixels under one annotation as PNG
//
// Rows and annotations are addressed by 0-based index in annotations.csv
// order.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	explorer := &server.Explorer{In: os.Stdin, Out: os.Stdout}
//	err := pipeline.Visualise(ctx, ds, visualiser, explorer)
package server
