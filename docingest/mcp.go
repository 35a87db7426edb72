package docingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DetectFormat maps a file name's extension to a declared format tag.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	case ".txt", ".text":
		return FormatTXT, nil
	default:
		return "", failf(ReasonUnsupported, Format(strings.TrimPrefix(ext, ".")), "unsupported extension %q", ext)
	}
}

// RegisterMCP registers the pipeline's tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "caseingest_ingest",
		Description: "Extract and clean plain text from a document file (pdf, docx, txt).",
	}, p.handleIngestTool)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "caseingest_formats",
		Description: "List the document formats the ingestion pipeline accepts.",
	}, p.handleFormatsTool)
}

type ingestToolInput struct {
	Path string `json:"path" jsonschema:"path to the document file to ingest"`
}

type formatsToolOutput struct {
	Formats []string `json:"formats"`
}

func (p *Pipeline) handleIngestTool(ctx context.Context, _ *mcp.CallToolRequest, input ingestToolInput) (*mcp.CallToolResult, Result, error) {
	format, err := DetectFormat(input.Path)
	if err != nil {
		return nil, Result{}, err
	}
	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, Result{}, err
	}
	res, err := p.Ingest(ctx, data, format)
	if err != nil {
		return nil, Result{}, err
	}
	return nil, *res, nil
}

func (p *Pipeline) handleFormatsTool(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, formatsToolOutput, error) {
	return nil, formatsToolOutput{Formats: SupportedFormats()}, nil
}
