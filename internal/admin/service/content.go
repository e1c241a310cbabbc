package service

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
)

// catalog is an immutable snapshot. Writers build a new one and swap it in,
// so readers never observe a half-applied change.
type catalog struct {
	scripts  []domain.Script
	settings domain.Settings
}

// ContentService holds the script catalog and site settings in memory.
type ContentService struct {
	mu    sync.Mutex // serialises writers
	state atomic.Pointer[catalog]

	now func() time.Time
}

// NewContentService starts from seed. Seed scripts are stored as given.
func NewContentService(seed []domain.Script) *ContentService {
	s := &ContentService{now: time.Now}
	s.state.Store(&catalog{
		scripts:  slices.Clone(seed),
		settings: domain.Settings{},
	})
	return s
}

// ListScripts returns the current catalog.
func (s *ContentService) ListScripts() []domain.Script {
	return slices.Clone(s.state.Load().scripts)
}

// GetScript returns the script with id.
func (s *ContentService) GetScript(id int64) (domain.Script, error) {
	for _, sc := range s.state.Load().scripts {
		if sc.ID == id {
			return sc, nil
		}
	}
	return domain.Script{}, ErrScriptNotFound
}

// SaveScript validates and escapes in, then creates it (ID zero) or
// replaces the script with the same ID. created reports which happened.
func (s *ContentService) SaveScript(in domain.Script) (out domain.Script, created bool, err error) {
	if err := validateScript(in); err != nil {
		return domain.Script{}, false, err
	}
	out = sanitizeScript(in)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	next := &catalog{scripts: slices.Clone(cur.scripts), settings: cur.settings}

	if out.ID == 0 {
		var maxID int64
		for _, sc := range cur.scripts {
			maxID = max(maxID, sc.ID)
		}
		out.ID = maxID + 1
		next.scripts = append(next.scripts, out)
		s.state.Store(next)
		return out, true, nil
	}

	i := slices.IndexFunc(next.scripts, func(sc domain.Script) bool { return sc.ID == out.ID })
	if i < 0 {
		return domain.Script{}, false, ErrScriptNotFound
	}
	next.scripts[i] = out
	s.state.Store(next)
	return out, false, nil
}

// DeleteScript removes the script with id.
func (s *ContentService) DeleteScript(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	kept := slices.DeleteFunc(slices.Clone(cur.scripts), func(sc domain.Script) bool { return sc.ID == id })
	if len(kept) == len(cur.scripts) {
		return ErrScriptNotFound
	}
	s.state.Store(&catalog{scripts: kept, settings: cur.settings})
	return nil
}

// Settings returns a copy of the site settings.
func (s *ContentService) Settings() domain.Settings {
	return maps.Clone(s.state.Load().settings)
}

// UpdateSettings replaces the site settings wholesale.
func (s *ContentService) UpdateSettings(in domain.Settings) domain.Settings {
	next := maps.Clone(in)
	if next == nil {
		next = domain.Settings{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	s.state.Store(&catalog{scripts: cur.scripts, settings: next})
	return maps.Clone(next)
}

// Export captures the current snapshot as a backup document.
func (s *ContentService) Export() domain.Backup {
	cur := s.state.Load()
	scripts := slices.Clone(cur.scripts)
	if scripts == nil {
		scripts = []domain.Script{}
	}
	return domain.Backup{
		Scripts:   scripts,
		Settings:  maps.Clone(cur.settings),
		Version:   domain.BackupVersion,
		Timestamp: s.now().UnixMilli(),
	}
}

// Restore validates every script in b and then replaces the catalog in one
// swap. Nothing changes when validation fails.
func (s *ContentService) Restore(b domain.Backup) (int, error) {
	if b.Version == "" {
		return 0, invalid("version", "Version is required")
	}

	seen := make(map[int64]struct{}, len(b.Scripts))
	scripts := make([]domain.Script, 0, len(b.Scripts))
	for i, sc := range b.Scripts {
		if err := validateRestored(sc); err != nil {
			return 0, fmt.Errorf("scripts[%d]: %w", i, err)
		}
		if _, dup := seen[sc.ID]; dup {
			return 0, invalid(fmt.Sprintf("scripts[%d].id", i), "Duplicate script ID")
		}
		seen[sc.ID] = struct{}{}
		scripts = append(scripts, sanitizeScript(sc))
	}

	settings := maps.Clone(b.Settings)
	if settings == nil {
		settings = domain.Settings{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Store(&catalog{scripts: scripts, settings: settings})
	return len(scripts), nil
}

// validateRestored checks the structure of a backed up script. Exports hold
// escaped text, which may legitimately exceed the editor's length limits.
func validateRestored(sc domain.Script) error {
	switch {
	case sc.ID <= 0:
		return invalid("id", "ID must be positive")
	case sc.Title == "":
		return invalid("title", "Title is required")
	case sc.Description == "":
		return invalid("description", "Description is required")
	case !validLink(sc.Link):
		return invalid("link", "Must be a valid URL")
	case sc.Downloads < 0:
		return invalid("downloads", "Downloads must not be negative")
	case sc.Category == "":
		return invalid("category", "Category is required")
	}
	return nil
}
