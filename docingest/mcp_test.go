package docingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "caseingest-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	pipe := New(Config{})
	srv := mcp.NewServer(testMCPImpl, nil)
	pipe.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCPFormats(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "caseingest_formats", map[string]any{})

	var resp struct {
		Formats []string `json:"formats"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	expected := map[string]bool{"pdf": true, "docx": true, "txt": true}
	for _, f := range resp.Formats {
		if !expected[f] {
			t.Errorf("unexpected format: %q", f)
		}
		delete(expected, f)
	}
	for f := range expected {
		t.Errorf("missing format: %q", f)
	}
}

func TestMCPIngest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("Hello    world\n\n\n\nfrom MCP"), 0644); err != nil {
		t.Fatal(err)
	}

	session := mcpSession(t)
	text := mcpCallTool(t, session, "caseingest_ingest", map[string]any{"path": path})

	var res Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Text != "Hello world\n\nfrom MCP" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Metadata.ExtractionMethod != MethodPlainRead {
		t.Errorf("method = %q", res.Metadata.ExtractionMethod)
	}
}
