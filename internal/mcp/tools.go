package mcp

import (
	"context"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/climbr/internal/domain/activity"
	"github.com/rpggio/climbr/internal/domain/session"
)

// ListSessionsInput selects whose sessions to list.
type ListSessionsInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"owner to list; defaults to the caller"`
}

// ListSessionsOutput is the result of list_sessions.
type ListSessionsOutput struct {
	Sessions []session.Summary `json:"sessions" jsonschema:"session summaries, newest first"`
}

// GetSessionInput identifies one stored session.
type GetSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"server-issued session id"`
}

// GetSessionOutput is the result of get_session.
type GetSessionOutput struct {
	Session session.Session `json:"session" jsonschema:"the session with routes and attempts"`
}

// RecentSessionsOutput is the result of list_recent_sessions.
type RecentSessionsOutput struct {
	Sessions []session.Session `json:"sessions" jsonschema:"sessions created in the last 24 hours, newest first"`
}

// RecentActivityInput filters the caller's write log.
type RecentActivityInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"only entries for this session"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, default 50"`
}

// ActivityView is one activity entry in tool output.
type ActivityView struct {
	SessionID string `json:"session_id"`
	RouteID   string `json:"route_id,omitempty"`
	Type      string `json:"type"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// RecentActivityOutput is the result of get_recent_activity.
type RecentActivityOutput struct {
	Entries []ActivityView `json:"entries"`
}

func registerTools(server *sdkmcp.Server, services Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_sessions",
		Description: "List a user's climbing sessions with route counts, newest first",
	}, listSessionsHandler(services.Sessions))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_session",
		Description: "Get one climbing session with its routes and attempts",
	}, getSessionHandler(services.Sessions))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_recent_sessions",
		Description: "List a user's sessions created in the last 24 hours",
	}, recentSessionsHandler(services.Sessions))

	if services.Activity != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "get_recent_activity",
			Description: "List the caller's recent session writes",
		}, recentActivityHandler(services.Activity))
	}
}

func listSessionsHandler(sessions SessionService) sdkmcp.ToolHandlerFor[ListSessionsInput, ListSessionsOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input ListSessionsInput) (*sdkmcp.CallToolResult, ListSessionsOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, ListSessionsOutput{}, toolError(err)
		}
		owner := strings.TrimSpace(input.UserID)
		if owner == "" {
			owner = caller
		}
		summaries, err := sessions.ListSummaries(ctx, caller, owner)
		if err != nil {
			return nil, ListSessionsOutput{}, toolError(err)
		}
		if summaries == nil {
			summaries = []session.Summary{}
		}
		return nil, ListSessionsOutput{Sessions: summaries}, nil
	}
}

func getSessionHandler(sessions SessionService) sdkmcp.ToolHandlerFor[GetSessionInput, GetSessionOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input GetSessionInput) (*sdkmcp.CallToolResult, GetSessionOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, GetSessionOutput{}, toolError(err)
		}
		sess, err := sessions.Get(ctx, caller, input.SessionID)
		if err != nil {
			return nil, GetSessionOutput{}, toolError(err)
		}
		return nil, GetSessionOutput{Session: fillSlices(*sess)}, nil
	}
}

func recentSessionsHandler(sessions SessionService) sdkmcp.ToolHandlerFor[ListSessionsInput, RecentSessionsOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input ListSessionsInput) (*sdkmcp.CallToolResult, RecentSessionsOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, RecentSessionsOutput{}, toolError(err)
		}
		owner := strings.TrimSpace(input.UserID)
		if owner == "" {
			owner = caller
		}
		recent, err := sessions.ListRecent(ctx, caller, owner)
		if err != nil {
			return nil, RecentSessionsOutput{}, toolError(err)
		}
		out := RecentSessionsOutput{Sessions: make([]session.Session, 0, len(recent))}
		for _, sess := range recent {
			out.Sessions = append(out.Sessions, fillSlices(sess))
		}
		return nil, out, nil
	}
}

func recentActivityHandler(activitySvc ActivityService) sdkmcp.ToolHandlerFor[RecentActivityInput, RecentActivityOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input RecentActivityInput) (*sdkmcp.CallToolResult, RecentActivityOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, RecentActivityOutput{}, toolError(err)
		}
		opts := activity.ListOptions{Limit: input.Limit}
		if input.SessionID != "" {
			opts.SessionID = &input.SessionID
		}
		entries, err := activitySvc.GetRecentActivity(ctx, caller, opts)
		if err != nil {
			return nil, RecentActivityOutput{}, toolError(err)
		}
		out := RecentActivityOutput{Entries: make([]ActivityView, 0, len(entries))}
		for _, entry := range entries {
			out.Entries = append(out.Entries, ActivityView{
				SessionID: entry.SessionID,
				RouteID:   session.StringValue(entry.RouteID),
				Type:      string(entry.Type),
				Summary:   entry.Summary,
				CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		return nil, out, nil
	}
}

// fillSlices replaces nil lists so structured output always carries arrays.
func fillSlices(sess session.Session) session.Session {
	out := sess.Clone()
	if out.Routes == nil {
		out.Routes = []session.Route{}
	}
	for i := range out.Routes {
		if out.Routes[i].Tags == nil {
			out.Routes[i].Tags = []string{}
		}
		if out.Routes[i].Attempts == nil {
			out.Routes[i].Attempts = []session.Attempt{}
		}
	}
	return out
}
