// Package store provides implementations of leads.Store: an in-memory map for
// development and tests, SQLite for a single-node deployment, and Redis for
// instances that share state.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kkfinancial/loan-consult/internal/leads"
	"go.uber.org/zap"
)

// Option customizes a store.
type Option func(*options)

type options struct {
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: zap.NewNop(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides uuid-based id generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type memoryEntry struct {
	lead leads.Lead
	seq  uint64
}

// Memory is a process-local leads.Store. Nothing survives a restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	seq     uint64
	opts    options
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	o := applyOptions(opts)
	return &Memory{
		entries: make(map[string]*memoryEntry),
		opts:    o,
	}
}

// Create stores req as a pending lead.
func (m *Memory) Create(_ context.Context, req leads.ConsultationRequest) (leads.Lead, error) {
	lead := leads.NewLead(req, m.opts.newID(), m.opts.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.entries[lead.ID] = &memoryEntry{lead: lead, seq: m.seq}

	m.opts.logger.Debug("lead created",
		zap.String("op", "store.Memory.Create"),
		zap.String("id", lead.ID),
	)
	return lead, nil
}

// Get returns the lead with id or leads.ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (leads.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok {
		return leads.Lead{}, leads.ErrNotFound
	}
	return entry.lead, nil
}

// List returns every lead, newest first; equal timestamps keep the later
// insertion first.
func (m *Memory) List(_ context.Context) ([]leads.Lead, error) {
	m.mu.RLock()
	entries := make([]*memoryEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.lead.CreatedAt.Equal(b.lead.CreatedAt) {
			return a.lead.CreatedAt.After(b.lead.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]leads.Lead, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.lead)
	}
	return out, nil
}

// UpdateStatus sets the status of lead id.
func (m *Memory) UpdateStatus(_ context.Context, id string, status leads.Status) (leads.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return leads.Lead{}, leads.ErrNotFound
	}
	entry.lead.Status = status
	return entry.lead, nil
}

// Close is a no-op so Memory can be used wherever a closable store is expected.
func (m *Memory) Close() error {
	return nil
}
