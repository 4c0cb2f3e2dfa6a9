package integration_test

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func serverBinary(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/climbr-server", "../../bin/climbr-server"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("Server binary not found. Run 'go build -o bin/climbr-server ./cmd/server' first.")
	return ""
}

// TestStdioProtocolCompliance drives the server binary over stdio with the
// SDK client.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(os.Environ(),
		"CLIMBR_TRANSPORT_MODE=stdio",
		"CLIMBR_DB_PATH=:memory:",
	)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "climbr", initResult.ServerInfo.Name)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{"list_sessions", "get_session", "list_recent_sessions", "get_recent_activity"} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	t.Run("CallListSessions", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "list_sessions",
			Arguments: map[string]any{},
		})
		require.NoError(t, err, "tools/call list_sessions failed")
		require.False(t, result.IsError, "list_sessions returned error: %v", result)
		require.NotEmpty(t, result.Content)
		text, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		require.Contains(t, text.Text, `"sessions":[]`)
	})

	t.Run("CallGetSessionMissing", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "get_session",
			Arguments: map[string]any{"session_id": "missing"},
		})
		require.NoError(t, err)
		require.True(t, result.IsError)
	})
}
