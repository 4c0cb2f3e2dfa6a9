package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	userID string
	err    error
}

func (h *testHandler) Handle(_ context.Context, userID, method string, params json.RawMessage) (any, error) {
	h.method = method
	h.userID = userID
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"user": userID}, nil
}

func postRPC(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	resolver := &testResolver{tokenToUser: map[string]string{"token": "user1"}}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver), nil))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"getSessionsByUID","id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "getSessionsByUID", handler.method)
	require.Equal(t, "user1", handler.userID)

	resp = postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"getSessionsByUID","id":2}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_RPCError(t *testing.T) {
	handler := &testHandler{err: &Error{Code: ErrInvalidParams, Message: "title is required", Data: &ErrorData{Code: "invalid-argument"}}}
	resolver := &testResolver{tokenToUser: map[string]string{"token": "user1"}}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver), nil))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"createSession","id":7}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		Error *Error  `json:"error"`
		ID    float64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotNil(t, decoded.Error)
	require.Equal(t, ErrInvalidParams, decoded.Error.Code)
	require.Equal(t, "invalid-argument", decoded.Error.Data.Code)
	require.Equal(t, float64(7), decoded.ID)
}

func TestHTTPServer_MCPMount(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	resolver := &testResolver{tokenToUser: map[string]string{"token": "user1"}}
	server := httptest.NewServer(NewServer(&testHandler{}, AuthMiddleware(resolver), mcp))
	t.Cleanup(server.Close)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/mcp", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = http.Post(server.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_Health(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(&testResolver{}), nil))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
