// Package mcpserver exposes the advisory flow as a Model Context Protocol tool.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/krishimitra/advisory"
)

// ToolName is the name clients call.
const ToolName = "ask_krishimitra"

// Advisor answers one farmer request.
type Advisor interface {
	Advise(ctx context.Context, req advisory.Request) (*advisory.Response, error)
}

// Args are the tool arguments.
type Args struct {
	Question string `json:"question" jsonschema:"The farmer's question about crops, soil, pests, weather or schemes"`
	Pincode  string `json:"pincode" jsonschema:"Indian postal pincode the question is asked from"`
}

// Result is the structured tool output.
type Result struct {
	Answer string          `json:"answer"`
	Status advisory.Status `json:"status"`
}

// New builds a server offering the ask_krishimitra tool.
func New(advisor Advisor, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "krishimitra",
		Title:   "KrishiMitra agricultural advisor",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: "Ask KrishiMitra for detailed, locally relevant farming advice for an Indian pincode. Returns a Markdown article.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, Result, error) {
		resp, err := advisor.Advise(ctx, advisory.Request{Question: args.Question, Pincode: args.Pincode})
		if err != nil {
			return nil, Result{}, fmt.Errorf("advisory failed: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: resp.Text}},
		}, Result{Answer: resp.Text, Status: resp.Status}, nil
	})

	return server
}

// ServeStdio runs the server on stdin and stdout until ctx is done or the
// client disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
