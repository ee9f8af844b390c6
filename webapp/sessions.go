package webapp

import (
	"net/http"
	"sync"

	"salescoachdev/session"

	"github.com/google/uuid"
)

const sessionCookie = "session_id"

// registry maps browser sessions (uuid cookie) to their transient
// conversation state. Only the map itself is shared; each Session has a
// single owner.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session.Session)}
}

func (r *registry) lookup(id string) *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

func (r *registry) create() *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := session.New(uuid.NewString())
	r.sessions[s.ID] = s
	return s
}

// session resolves the request's conversation session, minting a cookie and a
// fresh session for first-time visitors.
func (w *WebApp) session(rw http.ResponseWriter, r *http.Request) *session.Session {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if s := w.registry.lookup(cookie.Value); s != nil {
			return s
		}
	}

	s := w.registry.create()
	http.SetCookie(rw, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
	})
	return s
}
