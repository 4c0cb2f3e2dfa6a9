package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/gateway"
	"github.com/rpggio/climbr/internal/identity"
)

// Saver persists a whole session. *gateway.Gateway implements it.
type Saver interface {
	Save(ctx context.Context, sess session.Session) (gateway.Result, error)
}

// Uploader stores a local media file and returns its remote URL.
type Uploader interface {
	Upload(ctx context.Context, ownerID, routeID, localURI string) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, ownerID, routeID, localURI string) (string, error)

func (f UploaderFunc) Upload(ctx context.Context, ownerID, routeID, localURI string) (string, error) {
	return f(ctx, ownerID, routeID, localURI)
}

// Config configures a Manager.
type Config struct {
	Saver    Saver
	Identity identity.Provider
	// Uploader is optional. Without one, local media references are kept
	// locally but left out of the submission.
	Uploader Uploader
	// KeepAfterCreate keeps a newly created session active after End
	// instead of clearing it.
	KeepAfterCreate bool
	Now             func() time.Time
	Logger          *slog.Logger
}

// Manager holds the one session being recorded and publishes every change to
// its subscribers.
type Manager struct {
	saver           Saver
	identity        identity.Provider
	uploader        Uploader
	keepAfterCreate bool
	now             func() time.Time
	logger          *slog.Logger

	mu          sync.Mutex
	state       State
	revision    uint64
	generation  uint64
	subscribers []*subscriber
	nextSubID   int
	published   uint64

	syncing atomic.Bool
}

type subscriber struct {
	id int
	fn func(State)
	// delivered is the sequence of the newest snapshot handed to fn.
	delivered uint64
}

// New creates a Manager with no active session.
func New(cfg Config) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		saver:           cfg.Saver,
		identity:        cfg.Identity,
		uploader:        cfg.Uploader,
		keepAfterCreate: cfg.KeepAfterCreate,
		now:             now,
		logger:          logger,
	}
}

// Subscribe registers fn for every published state. The returned function
// removes the subscription.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.subscribers = append(m.subscribers, &subscriber{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.subscribers = slices.DeleteFunc(m.subscribers, func(s *subscriber) bool { return s.id == id })
	}
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Start begins a new session, replacing any unsynced one.
func (m *Manager) Start(title, location string, gymName *string) {
	gym := session.StringPtr(session.StringValue(gymName))
	m.replace(&session.Session{
		Title:     title,
		Location:  location,
		IsIndoor:  gym != nil,
		GymName:   gym,
		CreatedAt: session.Timestamp(m.now()),
		Routes:    []session.Route{},
	})
}

// StartAtGym begins an indoor session located at "gym - wall".
func (m *Manager) StartAtGym(title, gym, wall string) {
	gym = strings.TrimSpace(gym)
	wall = strings.TrimSpace(wall)
	location := gym
	switch {
	case gym != "" && wall != "":
		location = gym + " - " + wall
	case gym == "":
		location = wall
	}
	m.replace(&session.Session{
		Title:     title,
		Location:  location,
		IsIndoor:  true,
		GymName:   session.StringPtr(gym),
		CreatedAt: session.Timestamp(m.now()),
		Routes:    []session.Route{},
	})
}

// Open makes a previously persisted session active for editing. Saving it
// again issues a full replace.
func (m *Manager) Open(sess session.Session) {
	clone := sess.Clone()
	if clone.Routes == nil {
		clone.Routes = []session.Route{}
	}
	m.replace(&clone)
}

// Discard drops the active session without saving.
func (m *Manager) Discard() {
	m.replace(nil)
}

// DismissError clears the outstanding error.
func (m *Manager) DismissError() {
	m.mu.Lock()
	if m.state.Error == "" {
		m.mu.Unlock()
		return
	}
	m.state.Error = ""
	snap, seq := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap, seq)
}

// AddRoute appends a route. Missing route and attempt ids are generated.
func (m *Manager) AddRoute(route session.Route) {
	m.mutate(func(sess *session.Session) bool {
		r := route.Clone()
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.Tags = session.NormalizeTags(r.Tags)
		if r.Attempts == nil {
			r.Attempts = []session.Attempt{}
		}
		for i := range r.Attempts {
			if r.Attempts[i].ID == "" {
				r.Attempts[i].ID = uuid.NewString()
			}
		}
		sess.Routes = append(sess.Routes, r)
		return true
	})
}

// UpdateRoute replaces the route at index. The route keeps its id, and keeps
// its attempts and media unless newRoute supplies them.
func (m *Manager) UpdateRoute(index int, newRoute session.Route) {
	m.mutate(func(sess *session.Session) bool {
		if index < 0 || index >= len(sess.Routes) {
			return false
		}
		existing := sess.Routes[index]
		r := newRoute.Clone()
		r.ID = existing.ID
		r.Tags = session.NormalizeTags(r.Tags)
		if r.Attempts == nil {
			r.Attempts = existing.Attempts
		}
		for i := range r.Attempts {
			if r.Attempts[i].ID == "" {
				r.Attempts[i].ID = uuid.NewString()
			}
		}
		if r.MediaURI == nil {
			r.MediaURI = existing.MediaURI
		}
		sess.Routes[index] = r
		return true
	})
}

// DeleteRoute removes the route at index.
func (m *Manager) DeleteRoute(index int) {
	m.mutate(func(sess *session.Session) bool {
		if index < 0 || index >= len(sess.Routes) {
			return false
		}
		sess.Routes = slices.Delete(sess.Routes, index, index+1)
		return true
	})
}

// AddAttempt appends an attempt to the route with routeID.
func (m *Manager) AddAttempt(routeID string, success bool) {
	m.mutate(func(sess *session.Session) bool {
		i := routeIndex(sess.Routes, routeID)
		if i < 0 {
			return false
		}
		sess.Routes[i].Attempts = append(sess.Routes[i].Attempts, session.Attempt{
			ID:        uuid.NewString(),
			Success:   success,
			CreatedAt: session.Timestamp(m.now()),
		})
		return true
	})
}

// UpdateAttemptStatus sets the outcome of one attempt.
func (m *Manager) UpdateAttemptStatus(routeIdx, attemptIdx int, success bool) {
	m.mutate(func(sess *session.Session) bool {
		if !inRange(sess, routeIdx, attemptIdx) {
			return false
		}
		sess.Routes[routeIdx].Attempts[attemptIdx].Success = success
		return true
	})
}

// DeleteAttempt removes one attempt; the others keep their ids and order.
func (m *Manager) DeleteAttempt(routeIdx, attemptIdx int) {
	m.mutate(func(sess *session.Session) bool {
		if !inRange(sess, routeIdx, attemptIdx) {
			return false
		}
		r := &sess.Routes[routeIdx]
		r.Attempts = slices.Delete(r.Attempts, attemptIdx, attemptIdx+1)
		return true
	})
}

// SetRouteMedia sets the media reference of the route with routeID. A blank
// uri clears it.
func (m *Manager) SetRouteMedia(routeID, uri string) {
	m.mutate(func(sess *session.Session) bool {
		i := routeIndex(sess.Routes, routeID)
		if i < 0 {
			return false
		}
		sess.Routes[i].MediaURI = session.StringPtr(uri)
		return true
	})
}

// End saves the active session. On failure the session is left as it was and
// the error is kept until DismissError. Mutations stay available while End runs.
func (m *Manager) End(ctx context.Context) error {
	if !m.syncing.CompareAndSwap(false, true) {
		return ErrSyncInFlight
	}
	defer m.syncing.Store(false)

	m.mu.Lock()
	if m.state.Error != "" {
		m.mu.Unlock()
		return ErrErrorPending
	}
	if m.state.Session == nil {
		m.mu.Unlock()
		return ErrNoActiveSession
	}
	submitted := m.state.Session.Clone()
	revision := m.revision
	generation := m.generation
	m.state.Loading = true
	snap, seq := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap, seq)

	ownerID, uploads, result, err := m.sync(ctx, &submitted)

	m.mu.Lock()
	m.state.Loading = false
	if err != nil {
		m.state.Error = err.Error()
		snap, seq = m.snapshotLocked()
		m.mu.Unlock()
		m.logger.Warn("session sync failed", "session_id", submitted.ID, "error", err)
		m.publish(snap, seq)
		return err
	}

	m.state.LastSavedID = result.SessionID
	switch {
	case m.generation != generation:
		// The session was replaced or discarded while saving.
	case result.Created && !m.keepAfterCreate && m.revision == revision:
		m.state.Session = nil
		m.generation++
	default:
		reconcile(m.state.Session, &submitted, ownerID, uploads, result)
		m.revision++
	}
	snap, seq = m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("session synced", "session_id", result.SessionID, "created", result.Created, "routes", len(result.RouteIDs))
	m.publish(snap, seq)
	return nil
}

// sync resolves the owner, uploads local media and saves the submission.
// submitted is rewritten to what was actually sent.
func (m *Manager) sync(ctx context.Context, submitted *session.Session) (string, map[string]upload, gateway.Result, error) {
	if m.identity == nil {
		return "", nil, gateway.Result{}, session.ErrUnauthenticated
	}
	ownerID, err := m.identity.CurrentUserID(ctx)
	if err != nil {
		return "", nil, gateway.Result{}, fmt.Errorf("resolving user: %w", session.ErrUnauthenticated)
	}
	if submitted.OwnerID == "" {
		submitted.OwnerID = ownerID
	}

	uploads := make(map[string]upload)
	for i := range submitted.Routes {
		r := &submitted.Routes[i]
		if r.MediaURI == nil || r.MediaIsRemote() {
			continue
		}
		if m.uploader == nil {
			m.logger.Warn("no uploader configured, media not submitted", "route_id", r.ID)
			r.MediaURI = nil
			continue
		}
		url, err := m.uploader.Upload(ctx, ownerID, r.ID, *r.MediaURI)
		if err != nil {
			return "", nil, gateway.Result{}, fmt.Errorf("uploading media for route %s: %w", r.ID, err)
		}
		uploads[r.ID] = upload{local: *r.MediaURI, remote: url}
		r.MediaURI = &url
	}

	result, err := m.saver.Save(ctx, *submitted)
	if err != nil {
		return "", nil, gateway.Result{}, err
	}
	return ownerID, uploads, result, nil
}

// upload pairs a local media reference with the URL it was uploaded to.
type upload struct {
	local  string
	remote string
}

// reconcile applies server ids and uploaded media URLs to the current session.
// Returned route ids are paired with submitted routes by position, then
// matched to current routes by their submitted id.
func reconcile(current, submitted *session.Session, ownerID string, uploads map[string]upload, result gateway.Result) {
	if current == nil {
		return
	}
	current.ID = result.SessionID
	if current.OwnerID == "" {
		current.OwnerID = ownerID
	}

	serverIDs := make(map[string]string, len(submitted.Routes))
	for i, r := range submitted.Routes {
		if i < len(result.RouteIDs) {
			serverIDs[r.ID] = result.RouteIDs[i]
		}
	}

	for i := range current.Routes {
		r := &current.Routes[i]
		submittedID := r.ID
		if up, ok := uploads[submittedID]; ok && session.StringValue(r.MediaURI) == up.local {
			remote := up.remote
			r.MediaURI = &remote
		}
		if id, ok := serverIDs[submittedID]; ok {
			r.ID = id
		}
	}
}

func (m *Manager) replace(sess *session.Session) {
	m.mu.Lock()
	m.state.Session = sess
	m.revision++
	m.generation++
	snap, seq := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap, seq)
}

// mutate applies fn to the active session and publishes when fn reports a change.
func (m *Manager) mutate(fn func(sess *session.Session) bool) {
	m.mu.Lock()
	if m.state.Session == nil || !fn(m.state.Session) {
		m.mu.Unlock()
		return
	}
	m.revision++
	snap, seq := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap, seq)
}

// snapshotLocked copies the state and stamps it with the next publish
// sequence. m.mu must be held.
func (m *Manager) snapshotLocked() (State, uint64) {
	m.published++
	return m.state.clone(), m.published
}

// publish delivers state to every subscriber that has not already seen a
// newer snapshot.
func (m *Manager) publish(state State, seq uint64) {
	m.mu.Lock()
	subs := slices.Clone(m.subscribers)
	m.mu.Unlock()
	for _, s := range subs {
		m.mu.Lock()
		stale := seq <= s.delivered
		if !stale {
			s.delivered = seq
		}
		m.mu.Unlock()
		if stale {
			continue
		}
		s.fn(state.clone())
	}
}

func routeIndex(routes []session.Route, routeID string) int {
	return slices.IndexFunc(routes, func(r session.Route) bool { return r.ID == routeID })
}

func inRange(sess *session.Session, routeIdx, attemptIdx int) bool {
	if routeIdx < 0 || routeIdx >= len(sess.Routes) {
		return false
	}
	return attemptIdx >= 0 && attemptIdx < len(sess.Routes[routeIdx].Attempts)
}
