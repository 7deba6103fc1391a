package app

import (
	"sync"
	"time"

	"nihss-scoring-service/internal/domain"
	"nihss-scoring-service/internal/nihss"
)

// Session is the in-memory representation of one assessment. Mutations are
// serialized so each selection is fully recomputed before the next applies.
type Session struct {
	id          string
	startedAt   time.Time
	updatedAt   time.Time
	now         func() time.Time
	mu          sync.RWMutex
	sheet       nihss.ScoreSheet
	version     uint64
	subscribers map[chan domain.Assessment]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string) *Session {
	return newSessionWithClock(id, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, now func() time.Time) *Session {
	return newSessionWithClock(id, now)
}

// RestoreSession rebuilds a session from a previously stored sheet at the
// given store version.
func RestoreSession(id string, sheet nihss.ScoreSheet, startedAt, updatedAt time.Time, version uint64) *Session {
	s := newSessionWithClock(id, time.Now)
	s.sheet = sheet
	s.startedAt = startedAt
	s.updatedAt = updatedAt
	s.version = version
	return s
}

func newSessionWithClock(id string, now func() time.Time) *Session {
	started := now()
	return &Session{
		id:          id,
		startedAt:   started,
		updatedAt:   started,
		now:         now,
		sheet:       nihss.NewScoreSheet(),
		subscribers: make(map[chan domain.Assessment]struct{}),
	}
}

// ID returns the assessment identifier.
func (s *Session) ID() string {
	return s.id
}

// Sheet returns the current score sheet.
func (s *Session) Sheet() nihss.ScoreSheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sheet
}

// StartedAt returns when the assessment was started.
func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// UpdatedAt returns the time of the last change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Version is the store version the current sheet was last saved or loaded at.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// MarkSaved records the store version of a successful save.
func (s *Session) MarkSaved(version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
}

// Replace swaps in state loaded from the store and pushes it to subscribers.
func (s *Session) Replace(sheet nihss.ScoreSheet, updatedAt time.Time, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheet = sheet
	s.updatedAt = updatedAt
	s.version = version
	s.broadcastLocked()
}

// Snapshot returns the current render-ready state.
func (s *Session) Snapshot() domain.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) selectOption(sel domain.Selection) (domain.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		next nihss.ScoreSheet
		err  error
	)
	if sel.Option != nil {
		next, err = nihss.SelectOption(s.sheet, sel.ItemID, *sel.Option)
	} else {
		next, err = nihss.SelectOptionCode(s.sheet, sel.ItemID, sel.Code)
	}
	if err != nil {
		return domain.Assessment{}, err
	}
	s.sheet = nihss.Recompute(next)
	s.updatedAt = s.now()
	return s.broadcastLocked(), nil
}

func (s *Session) reset() domain.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheet = nihss.Reset()
	s.updatedAt = s.now()
	return s.broadcastLocked()
}

func (s *Session) record() domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := nihss.TotalScore(s.sheet)
	sev := nihss.ClassifySeverity(total)
	return domain.Record{
		AssessmentID: s.id,
		Scores:       s.sheet.Scores(),
		Total:        total,
		Severity:     sev.Label,
		Tier:         string(sev.Tier),
		ComaActive:   nihss.EvaluateComaState(s.sheet),
		StartedAt:    s.startedAt,
		FinalizedAt:  s.now(),
	}
}

func (s *Session) subscribe() (<-chan domain.Assessment, func()) {
	ch := make(chan domain.Assessment, 8)

	// Queue the initial snapshot before any broadcast can follow it.
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close ends every subscription; used when the assessment is finalized,
// discarded or removed from the store.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked() domain.Assessment {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so slow clients never block a selection.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Assessment {
	scale := nihss.Items()
	states := make([]domain.ItemState, 0, len(scale))
	for _, item := range scale {
		states = append(states, domain.ItemState{
			ItemID: item.ID,
			Score:  s.sheet.Score(item.ID),
			Choice: s.sheet.Choice(item.ID),
			Locked: s.sheet.Locked(item.ID),
		})
	}
	total := nihss.TotalScore(s.sheet)
	sev := nihss.ClassifySeverity(total)
	return domain.Assessment{
		ID:         s.id,
		Items:      states,
		Total:      total,
		Severity:   sev.Label,
		Tier:       string(sev.Tier),
		ComaActive: nihss.EvaluateComaState(s.sheet),
		StartedAt:  s.startedAt,
		UpdatedAt:  s.updatedAt,
	}
}
