// Package mcp exposes bookc's compiler as a single MCP tool over
// stdio, so an AI assistant can drive a compile directly.
package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps an Orchestrator as an MCP tool provider.
type Server struct {
	orch   *orchestrator.Orchestrator
	server *server.MCPServer
}

// NewServer creates an MCP server driving orch.
func NewServer(orch *orchestrator.Orchestrator) *Server {
	s := &Server{orch: orch}

	mcpServer := server.NewMCPServer(
		"bookc",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.server = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("compile_book",
			mcp.WithDescription("Compile a book definition JSON file into an H5P-shaped interactive courseware archive."),
			mcp.WithString("definitionPath",
				mcp.Required(),
				mcp.Description("Path to the book definition JSON file"),
			),
			mcp.WithString("outputPath",
				mcp.Required(),
				mcp.Description("Path to write the resulting archive to"),
			),
		),
		s.handleCompileBook,
	)
}

func (s *Server) handleCompileBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	definitionPath := request.GetString("definitionPath", "")
	outputPath := request.GetString("outputPath", "")
	if definitionPath == "" {
		return mcp.NewToolResultError("definitionPath parameter is required"), nil
	}
	if outputPath == "" {
		return mcp.NewToolResultError("outputPath parameter is required"), nil
	}

	data, err := os.ReadFile(definitionPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read definition: %v", err)), nil
	}

	def, err := book.ParseDefinition(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse definition: %v", err)), nil
	}

	result, err := s.orch.Compile(ctx, def, outputPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compile failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Compiled %q to %s (%d libraries, %d media assets).",
		def.Title, result.OutputPath, result.LibraryCount, result.MediaCount,
	)), nil
}

// ServeStdio runs the MCP server on stdio until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}
