package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `climbr stores climbing sessions as Session -> Routes -> Attempts.

Core concepts:
- Session: one visit to a crag or gym. Has a title, location, indoor flag and optional gym name.
- Route: a problem climbed in the session. Has a name, difficulty grade, tags, notes and optional media.
- Attempt: one go at a route, successful or not, with its timestamp.

Tools are read only:
1) list_sessions to browse a user's sessions (summaries with route counts).
2) get_session to load one session with routes and attempts.
3) list_recent_sessions for the last 24 hours in full.
4) get_recent_activity for the caller's recent writes.

Docs:
- climbr://docs/model (field reference and invariants)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "climbr://docs/model",
		Name:        "docs_model",
		Title:       "climbr data model",
		Description: "Field reference for sessions, routes and attempts.",
		Content: `# climbr data model

## Session

| field | notes |
|-------|-------|
| id | server issued; empty until first save |
| userId | owner |
| title, location | free text |
| isIndoor | true for gym sessions |
| gymName | only meaningful indoors |
| createdAt | ISO-8601 UTC with milliseconds |
| routes | ordered; order is preserved on save |

## Route

| field | notes |
|-------|-------|
| id | unique within the session |
| routeName, difficulty | required |
| tags | deduplicated, order kept |
| notes | optional |
| mediaUrl | remote URL once uploaded |
| attempts | ordered by the climber |

## Attempt

| field | notes |
|-------|-------|
| id | unique within the route |
| success | sent or not |
| createdAt | ISO-8601 UTC |

A route is "sent" when any attempt succeeded.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
