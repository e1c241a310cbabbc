package service

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	"github.com/aussiebroadwan/scripthub/pkg/idx"
)

const (
	DefaultAuditCapacity = 1000
	DefaultAuditPageSize = 50

	maxAuditAction  = 200
	maxAuditDetails = 2000
)

// AuditInput is an entry as submitted by the dashboard.
type AuditInput struct {
	Action    string
	Details   string
	Timestamp int64 // unix ms; zero means now
	IP        string
}

// AuditService keeps the most recent owner actions in a fixed size ring.
// Once full, each new entry evicts the oldest.
type AuditService struct {
	mu   sync.RWMutex
	ring []domain.AuditEntry
	head int // next write position
	size int

	now func() time.Time
}

func NewAuditService(capacity int) *AuditService {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditService{
		ring: make([]domain.AuditEntry, capacity),
		now:  time.Now,
	}
}

// Record validates in and stores it as the newest entry.
func (s *AuditService) Record(in AuditInput) (domain.AuditEntry, error) {
	action := strings.TrimSpace(in.Action)
	switch {
	case action == "":
		return domain.AuditEntry{}, invalid("action", "Action is required")
	case utf8.RuneCountInString(action) > maxAuditAction:
		return domain.AuditEntry{}, invalid("action", "Action is too long")
	case utf8.RuneCountInString(in.Details) > maxAuditDetails:
		return domain.AuditEntry{}, invalid("details", "Details are too long")
	case in.Timestamp < 0:
		return domain.AuditEntry{}, invalid("timestamp", "Timestamp must not be negative")
	}

	now := s.now()
	ts := in.Timestamp
	if ts == 0 {
		ts = now.UnixMilli()
	}
	entry := domain.AuditEntry{
		ID:        idx.NewAt(now).String(),
		Action:    action,
		Details:   in.Details,
		Timestamp: ts,
		IP:        in.IP,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring[s.head] = entry
	s.head = (s.head + 1) % len(s.ring)
	if s.size < len(s.ring) {
		s.size++
	}
	return entry, nil
}

// List returns up to limit entries, newest first, skipping offset, along
// with the total number held.
func (s *AuditService) List(offset, limit int) ([]domain.AuditEntry, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultAuditPageSize
	}
	if offset >= s.size {
		return []domain.AuditEntry{}, s.size
	}

	n := min(limit, s.size-offset)
	out := make([]domain.AuditEntry, 0, n)
	for i := offset; i < offset+n; i++ {
		pos := (s.head - 1 - i + 2*len(s.ring)) % len(s.ring)
		out = append(out, s.ring[pos])
	}
	return out, s.size
}

// Capacity is the maximum number of entries kept.
func (s *AuditService) Capacity() int { return len(s.ring) }
