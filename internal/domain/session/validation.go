package session

import (
	"fmt"
	"strings"
)

// ValidateFields validates the session-level scalar fields.
func ValidateFields(s Session) error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return fmt.Errorf("%w: uid is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidArgument)
	}
	return nil
}

// ValidateRoute validates a route and each of its attempts. Nil tag or
// attempt slices are rejected: the wire format requires both to be lists.
func ValidateRoute(r Route) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: routeName is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.Difficulty) == "" {
		return fmt.Errorf("%w: difficulty is required for route %q", ErrInvalidArgument, r.Name)
	}
	if r.Tags == nil {
		return fmt.Errorf("%w: tags must be a list for route %q", ErrInvalidArgument, r.Name)
	}
	if r.Attempts == nil {
		return fmt.Errorf("%w: attempts must be a list for route %q", ErrInvalidArgument, r.Name)
	}
	seen := make(map[string]struct{}, len(r.Attempts))
	for i, a := range r.Attempts {
		if err := ValidateAttempt(a); err != nil {
			return fmt.Errorf("route %q attempt %d: %w", r.Name, i, err)
		}
		if a.ID == "" {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: duplicate attempt id %q in route %q", ErrInvalidArgument, a.ID, r.Name)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// ValidateAttempt validates a single attempt.
func ValidateAttempt(a Attempt) error {
	if strings.TrimSpace(a.CreatedAt) == "" {
		return fmt.Errorf("%w: attempt createdAt is required", ErrInvalidArgument)
	}
	return nil
}

// Validate checks the whole aggregate before any remote write.
func Validate(s Session) error {
	if err := ValidateFields(s); err != nil {
		return err
	}
	if s.Routes == nil {
		return fmt.Errorf("%w: routes must be a list", ErrInvalidArgument)
	}
	return ValidateRoutes(s.Routes)
}

// ValidateRoutes validates every route and rejects repeated route ids.
func ValidateRoutes(routes []Route) error {
	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if err := ValidateRoute(r); err != nil {
			return err
		}
		if r.ID == "" {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: duplicate route id %q", ErrInvalidArgument, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
