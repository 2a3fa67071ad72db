// Package selection keeps the date range each browser session has picked.
package selection

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soulparking/dashboard/internal/api/authz"
	"github.com/soulparking/dashboard/internal/daterange"
	"github.com/soulparking/dashboard/internal/metrics"
)

const DefaultRegistrySize = 1024

type entry struct {
	holder *daterange.Holder
	mu     sync.Mutex
	preset string
}

func (e *entry) Selection() daterange.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return daterange.Selection{Range: e.holder.Get(), Preset: e.preset}
}

// Registry owns one Holder per session token. The least recently used
// holders are dropped once the registry is full.
type Registry struct {
	mu       sync.Mutex
	holders  *lru.Cache[string, *entry]
	location *time.Location
	now      func() time.Time
	listener daterange.Listener
}

// NewRegistry creates a registry whose holders notify listener after every
// change. A nil location means time.Local.
func NewRegistry(size int, location *time.Location, listener daterange.Listener) (*Registry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	if location == nil {
		location = time.Local
	}

	holders, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create holder registry: %w", err)
	}
	return &Registry{
		holders:  holders,
		location: location,
		now:      time.Now,
		listener: listener,
	}, nil
}

// Now returns the current time in the registry's location.
func (reg *Registry) Now() time.Time {
	return reg.now().In(reg.location)
}

// Location returns the zone used to resolve presets and calendar dates.
func (reg *Registry) Location() *time.Location {
	return reg.location
}

// Holder returns the holder for token, creating one initialised to the next seven days.
func (reg *Registry) Holder(token string) *daterange.Holder {
	return reg.entry(token).holder
}

func (reg *Registry) entry(token string) *entry {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if e, ok := reg.holders.Get(token); ok {
		return e
	}

	e := &entry{
		holder: daterange.NewHolder(daterange.StartOfDay(reg.Now())),
		preset: daterange.PresetCustom,
	}
	if reg.listener != nil {
		e.holder.Subscribe(reg.listener)
	}
	reg.holders.Add(token, e)
	metrics.ActiveSessions.Set(float64(reg.holders.Len()))
	return e
}

// Set stores sel for token and notifies the holder's listeners.
func (reg *Registry) Set(token string, sel daterange.Selection) {
	e := reg.entry(token)
	e.mu.Lock()
	e.preset = sel.Preset
	e.mu.Unlock()
	e.holder.Set(sel.Range)
	metrics.DateRangeChanges.WithLabelValues(sel.Preset).Inc()
}

// Selection returns what token currently holds.
func (reg *Registry) Selection(token string) daterange.Selection {
	return reg.entry(token).Selection()
}

// Remove forgets the holder for token, typically on logout.
func (reg *Registry) Remove(token string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.holders.Remove(token)
	metrics.ActiveSessions.Set(float64(reg.holders.Len()))
}

func (reg *Registry) Len() int {
	return reg.holders.Len()
}

// Resolve reads the range from the request query, falling back to the range
// held for the signed-in session. Requests without a session and without
// query parameters get a fresh default range.
func (reg *Registry) Resolve(r *http.Request) (daterange.Selection, error) {
	sel, ok, err := daterange.ParseQuery(r.URL.Query(), reg.Now())
	if err != nil {
		return daterange.Selection{}, err
	}
	if ok {
		return sel, nil
	}

	if user := authz.UserFromContext(r.Context()); user != nil && user.SessionToken != "" {
		return reg.Selection(user.SessionToken), nil
	}

	holder := daterange.NewHolder(daterange.StartOfDay(reg.Now()))
	return daterange.Selection{Range: holder.Get(), Preset: daterange.PresetCustom}, nil
}

// Commit stores sel for the signed-in session, if any. It reports whether anything was stored.
func (reg *Registry) Commit(r *http.Request, sel daterange.Selection) bool {
	user := authz.UserFromContext(r.Context())
	if user == nil || user.SessionToken == "" {
		return false
	}
	current := reg.Selection(user.SessionToken)
	if current.Preset == sel.Preset && current.Range.Equal(sel.Range) {
		return false
	}
	reg.Set(user.SessionToken, sel)
	return true
}
