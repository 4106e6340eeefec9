// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	sessionCookie = "docconv_session"

	// maxSessions bounds memory; the least recently used session is dropped.
	maxSessions = 32
)

// FlashKind styles a one-shot message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashWarning FlashKind = "warning"
)

// Flash is a message shown once on the next page render.
type Flash struct {
	Kind    FlashKind
	Message string
}

// Output is the last result of one converter together with its preview.
type Output struct {
	Result  types.ConversionResult
	Preview []byte

	// PreviewNote explains a missing preview.
	PreviewNote string
}

// Session is the per-browser UI state: the last settings and the last
// output of each converter. Nothing is persisted.
type Session struct {
	ID       string
	Settings types.Settings
	Outputs  map[types.Converter]Output
	Flashes  []Flash

	lastSeen time.Time
}

// Output returns the last output of converter c.
func (s Session) Output(c types.Converter) (Output, bool) {
	o, ok := s.Outputs[c]
	return o, ok
}

// SetOutput replaces the last output of converter c.
func (s *Session) SetOutput(c types.Converter, o Output) {
	if s.Outputs == nil {
		s.Outputs = make(map[types.Converter]Output, len(types.Converters))
	}
	s.Outputs[c] = o
}

// SessionStore keeps sessions in memory, keyed by a random cookie id.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	defaults types.Settings
	now      func() time.Time
}

// NewSessionStore returns an empty store. New sessions start with defaults.
func NewSessionStore(defaults types.Settings) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		defaults: defaults.Normalize(),
		now:      time.Now,
	}
}

// Open returns the id of the request's session, creating the session and
// setting its cookie when the request has none or an unknown one.
func (s *SessionStore) Open(w http.ResponseWriter, r *http.Request) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if sess, ok := s.sessions[c.Value]; ok {
				sess.lastSeen = s.now()
				return sess.ID
			}
		}
	}

	id := uuid.NewString()
	s.evict()
	s.sessions[id] = &Session{ID: id, Settings: s.defaults, lastSeen: s.now()}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// evict drops the least recently used session when the store is full. The
// caller holds s.mu.
func (s *SessionStore) evict() {
	if len(s.sessions) < maxSessions {
		return
	}
	var oldest *Session
	for _, sess := range s.sessions {
		if oldest == nil || sess.lastSeen.Before(oldest.lastSeen) {
			oldest = sess
		}
	}
	delete(s.sessions, oldest.ID)
}

// Get returns a copy of session id. Missing sessions yield a fresh one with
// default settings.
func (s *SessionStore) Get(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{ID: id, Settings: s.defaults}
	}
	cp := *sess
	cp.Flashes = append([]Flash(nil), sess.Flashes...)
	if sess.Outputs != nil {
		cp.Outputs = make(map[types.Converter]Output, len(sess.Outputs))
		for c, o := range sess.Outputs {
			cp.Outputs[c] = o
		}
	}
	return cp
}

// Update applies fn to session id under the store lock.
func (s *SessionStore) Update(id string, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id, Settings: s.defaults}
		s.evict()
		s.sessions[id] = sess
	}
	fn(sess)
	sess.lastSeen = s.now()
}

// AddFlash queues a message for the next render of session id.
func (s *SessionStore) AddFlash(id string, kind FlashKind, msg string) {
	s.Update(id, func(sess *Session) {
		sess.Flashes = append(sess.Flashes, Flash{Kind: kind, Message: msg})
	})
}

// PopFlashes returns and clears the queued messages of session id.
func (s *SessionStore) PopFlashes(id string) []Flash {
	var out []Flash
	s.Update(id, func(sess *Session) {
		out, sess.Flashes = sess.Flashes, nil
	})
	return out
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
