package session

import (
	"net/url"
	"slices"
	"strings"
)

// Session is a recorded climbing session and the root of the aggregate.
// An empty ID means the session has never been persisted remotely.
type Session struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"userId"`
	Title     string  `json:"title"`
	Location  string  `json:"location"`
	IsIndoor  bool    `json:"isIndoor"`
	GymName   *string `json:"gymName,omitempty"`
	CreatedAt string  `json:"createdAt"`
	Routes    []Route `json:"routes"`
}

// Route is a climbed problem within a session.
type Route struct {
	ID         string    `json:"id"`
	Name       string    `json:"routeName"`
	Difficulty string    `json:"difficulty"`
	Tags       []string  `json:"tags"`
	Notes      *string   `json:"notes,omitempty"`
	Attempts   []Attempt `json:"attempts"`
	// MediaURI is a local file reference until uploaded, then a remote URL.
	MediaURI *string `json:"mediaUrl,omitempty"`
}

// Attempt is a single go at a route.
type Attempt struct {
	ID        string `json:"id"`
	Success   bool   `json:"success"`
	CreatedAt string `json:"createdAt"`
}

// Summary is the list view of a persisted session.
type Summary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	IsIndoor    bool    `json:"isIndoor"`
	GymName     *string `json:"gymName,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	RoutesCount int     `json:"routesCount"`
}

// RoutesCount is derived from the route list.
func (s Session) RoutesCount() int {
	return len(s.Routes)
}

// Persisted reports whether the session carries a server-issued id.
func (s Session) Persisted() bool {
	return s.ID != ""
}

// Summarize builds the list view of the session.
func (s Session) Summarize() Summary {
	return Summary{
		ID:          s.ID,
		Title:       s.Title,
		Location:    s.Location,
		IsIndoor:    s.IsIndoor,
		GymName:     cloneString(s.GymName),
		CreatedAt:   s.CreatedAt,
		RoutesCount: s.RoutesCount(),
	}
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	out.GymName = cloneString(s.GymName)
	if s.Routes != nil {
		out.Routes = make([]Route, len(s.Routes))
		for i, r := range s.Routes {
			out.Routes[i] = r.Clone()
		}
	}
	return out
}

// Clone returns a deep copy.
func (r Route) Clone() Route {
	out := r
	out.Tags = slices.Clone(r.Tags)
	out.Attempts = slices.Clone(r.Attempts)
	out.Notes = cloneString(r.Notes)
	out.MediaURI = cloneString(r.MediaURI)
	return out
}

// SuccessCount returns the number of successful attempts.
func (r Route) SuccessCount() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Success {
			n++
		}
	}
	return n
}

// MediaIsRemote reports whether the media reference is already an uploaded URL.
func (r Route) MediaIsRemote() bool {
	if r.MediaURI == nil {
		return false
	}
	u, err := url.Parse(*r.MediaURI)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping first occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// StringPtr returns nil for blank strings.
func StringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

// StringValue dereferences a possibly nil string.
func StringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
