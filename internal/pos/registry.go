package pos

import (
	"sync"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/catalog"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/checkout"
)

// Registry hands out one Session per till id, creating them lazily.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	finder    catalog.Finder
	submitter checkout.SaleSubmitter
}

func NewRegistry(finder catalog.Finder, submitter checkout.SaleSubmitter) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		finder:    finder,
		submitter: submitter,
	}
}

// Session returns the till's session, creating it on first use.
func (r *Registry) Session(tillID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tillID]
	if !ok {
		s = NewSession(r.finder, r.submitter)
		r.sessions[tillID] = s
	}
	return s
}
