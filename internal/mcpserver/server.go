// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Blockpad documents for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/docservice"
	"github.com/starford/blockpad/internal/plugin"
	"github.com/starford/blockpad/internal/storage"
)

const contractURI = "blockpad://snapshot-format"

// Server wraps the MCP server with Blockpad tools.
type Server struct {
	mcp   *server.MCPServer
	docs  *docservice.Service
	tools *plugin.Table
}

// New creates a new MCP server with all Blockpad tools registered.
func New(docs *docservice.Service, tools *plugin.Table) *Server {
	s := &Server{docs: docs, tools: tools}

	s.mcp = server.NewMCPServer(
		"Blockpad",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles and block text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a stored document snapshot as JSON."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path (e.g. welcome.json or welcome)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Store a new document. The snapshot MUST follow the document format "+
			"contract; read it first via get_snapshot_contract or the "+contractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path for the new document")),
		mcp.WithString("snapshot", mcp.Required(), mcp.Description("Snapshot JSON following the document format contract")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("get_snapshot_contract",
		mcp.WithDescription("Returns the stored document format contract."),
	), s.getSnapshotContract)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List stored documents, most recently updated first."),
		mcp.WithString("type", mcp.Description("Only documents containing this block type")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List the registered block and inline tools."),
	), s.listBlockTypes)

	s.mcp.AddTool(mcp.NewTool("get_linked_from",
		mcp.WithDescription("Find all documents whose blocks link to the given URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Link target")),
	), s.getLinkedFrom)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Document Format Contract",
			mcp.WithResourceDescription("Stored snapshot format that all documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.docs.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.GetDocument(ctx, path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc.Snapshot), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("snapshot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := storage.DecodeSnapshot([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for i, b := range snap.Blocks {
		d, ok := s.tools.Lookup(b.Type)
		if !ok || !d.IsBlock() {
			return mcp.NewToolResultError(fmt.Sprintf("blocks[%d]: unknown block type %q", i, b.Type)), nil
		}
	}

	doc, err := s.docs.CreateDocument(ctx, path, snap)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return mcp.NewToolResultError(fmt.Sprintf("document already exists: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", doc.Path)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.docs.ListDocuments(ctx, 500, 0, req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s\t%s", it.Path, it.Title))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no documents"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

type blockType struct {
	ID      string   `json:"id"`
	Block   bool     `json:"block"`
	Toolbar []string `json:"inlineToolbar"`
}

func (s *Server) listBlockTypes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	global := s.tools.InlineCommands()
	out := make([]blockType, 0, s.tools.Len())
	for _, d := range s.tools.Descriptors() {
		bt := blockType{ID: d.ID, Block: d.IsBlock(), Toolbar: []string{}}
		if bt.Block {
			bt.Toolbar = append(bt.Toolbar, d.InlineToolbar.Resolve(global)...)
		}
		out = append(out, bt)
	}
	return jsonResult(out), nil
}

func (s *Server) getSnapshotContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SnapshotFormatContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     SnapshotFormatContract,
		},
	}, nil
}

func (s *Server) getLinkedFrom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	linked, err := s.docs.LinkedFrom(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(linked) == 0 {
		return mcp.NewToolResultText("no documents link here"), nil
	}
	return mcp.NewToolResultText(strings.Join(linked, "\n")), nil
}
