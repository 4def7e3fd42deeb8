package app

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"signalhub/internal/core"
	"signalhub/internal/domain"
)

type presenceEntry struct {
	Name string
	Conn core.PeerConn
}

// Presence is the bidirectional mapping between live connections and
// registered names. At most one online entry per name; collisions are
// rejected with domain.ErrNameTaken rather than rebinding.
type Presence struct {
	mu     sync.RWMutex
	byConn map[domain.ConnID]*presenceEntry
	byName map[string]domain.ConnID
}

func NewPresence() *Presence {
	return &Presence{
		byConn: make(map[domain.ConnID]*presenceEntry),
		byName: make(map[string]domain.ConnID),
	}
}

// Register binds name to cid. One atomic step: validate, check
// uniqueness, insert. A connection registers once; rebinding would
// strand any call session still referencing the old name, so it is
// refused and the old binding stays.
func (p *Presence) Register(cid domain.ConnID, name string, conn core.PeerConn) error {
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byConn[cid]; ok {
		return domain.ErrAlreadyRegistered
	}
	if _, ok := p.byName[name]; ok {
		return domain.ErrNameTaken
	}
	p.byConn[cid] = &presenceEntry{Name: name, Conn: conn}
	p.byName[name] = cid
	log.Info().Str("module", "app.presence").Str("cid", string(cid)).Str("name", name).Msg("registered")
	return nil
}

// Lookup resolves an online name to its connection.
func (p *Presence) Lookup(name string) (domain.ConnID, core.PeerConn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cid, ok := p.byName[name]
	if !ok {
		return "", nil, false
	}
	return cid, p.byConn[cid].Conn, true
}

// NameOf returns the registered name of a connection, if any.
func (p *Presence) NameOf(cid domain.ConnID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.byConn[cid]
	if !ok {
		return "", false
	}
	return e.Name, true
}

// Remove unbinds the connection and frees its name. Returns the name
// that was bound, or ok=false if the connection never registered.
func (p *Presence) Remove(cid domain.ConnID) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byConn[cid]
	if !ok {
		return "", false
	}
	delete(p.byConn, cid)
	delete(p.byName, e.Name)
	log.Info().Str("module", "app.presence").Str("cid", string(cid)).Str("name", e.Name).Msg("removed")
	return e.Name, true
}

// Names returns the online names, sorted for stable broadcasts.
func (p *Presence) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.byName))
	for name := range p.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type connSnap struct {
	Name string
	Conn core.PeerConn
}

// snapshot returns all online entries for fan-out outside the lock.
func (p *Presence) snapshot() []connSnap {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]connSnap, 0, len(p.byConn))
	for _, e := range p.byConn {
		out = append(out, connSnap{Name: e.Name, Conn: e.Conn})
	}
	return out
}
