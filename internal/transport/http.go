package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/climbr/internal/identity"
)

// maxBodyBytes bounds a single JSON-RPC request.
const maxBodyBytes = 4 << 20

// RPCHandler handles JSON-RPC method dispatch for an authenticated user.
type RPCHandler interface {
	Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error)
}

// Server wires HTTP handlers.
type Server struct {
	handler RPCHandler
}

// NewServer creates an HTTP router. /health is public; /rpc and the optional
// MCP handler at /mcp sit behind authMiddleware when it is non-nil.
func NewServer(handler RPCHandler, authMiddleware func(http.Handler) http.Handler, mcpHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	srv := &Server{handler: handler}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/rpc", srv.handleRPC)
		if mcpHandler != nil {
			r.Handle("/mcp", mcpHandler)
			r.Handle("/mcp/*", mcpHandler)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		code := ErrInvalidReq
		if errors.Is(err, errParse) {
			code = ErrParseCode
		}
		WriteError(w, nil, code, "invalid request", nil)
		return
	}

	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	result, err := s.handler.Handle(r.Context(), userID, req.Method, req.Params)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			WriteError(w, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
		WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		return
	}

	WriteResult(w, req.ID, result)
}
