package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"nihss-scoring-service/internal/app"
	"nihss-scoring-service/internal/domain"
	"nihss-scoring-service/internal/nihss"
)

// SessionStore is a Redis-backed implementation of app.SessionRepository.
// Notes:
//   - Redis is authoritative. Each assessment lives in
//     assessment:{id}:choices (selected option per item) and
//     assessment:{id}:meta (startedAt, updatedAt, version).
//   - Live sessions are also kept in a local map so subscriptions keep using
//     the in-process broadcast. Get compares the local version with the stored
//     one and reloads when another instance has written since.
//   - Save is a WATCHed compare-and-set on the version, so a stale instance
//     cannot overwrite newer state; it gets domain.ErrConflict instead.
//   - Keys expire after ttl of inactivity.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.Mutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Create(ctx context.Context, id string) (*app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		return session, nil
	}
	session := app.NewSession(id)
	if err := s.write(ctx, session); err != nil {
		return nil, err
	}
	s.sessions[id] = session
	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.client.HGetAll(ctx, s.metaKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read assessment %s: %w", id, err)
	}
	local, cached := s.sessions[id]
	if len(meta) == 0 {
		// Finalized, discarded or expired, possibly by another instance.
		if cached {
			delete(s.sessions, id)
			local.Close()
		}
		return nil, domain.ErrAssessmentNotFound
	}

	version, err := parseVersion(meta["version"])
	if err != nil {
		return nil, fmt.Errorf("read assessment %s: %w", id, err)
	}
	if cached && local.Version() == version {
		return local, nil
	}

	sheet, err := s.loadSheet(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read assessment %s: %w", id, err)
	}
	startedAt := parseTime(meta["startedAt"], time.Now())
	updatedAt := parseTime(meta["updatedAt"], startedAt)
	if cached {
		local.Replace(sheet, updatedAt, version)
		return local, nil
	}
	session := app.RestoreSession(id, sheet, startedAt, updatedAt, version)
	s.sessions[id] = session
	return session, nil
}

// Save writes the session if the stored version still matches the one the
// session was loaded at. On any failure the session is reset to the stored
// state, or dropped from the local map when that cannot be read either.
func (s *SessionStore) Save(ctx context.Context, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.write(ctx, session)
	if err == nil {
		return nil
	}
	if rerr := s.reload(ctx, session); rerr != nil {
		delete(s.sessions, session.ID())
	}
	return err
}

func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	_ = s.client.Del(ctx, s.choicesKey(id), s.metaKey(id)).Err()
}

func (s *SessionStore) write(ctx context.Context, session *app.Session) error {
	id := session.ID()
	metaKey := s.metaKey(id)
	choicesKey := s.choicesKey(id)

	expected := session.Version()
	next := expected + 1
	choices := session.Sheet().Choices()
	fields := make(map[string]interface{}, len(choices))
	for itemID, choice := range choices {
		fields[itemID] = choice
	}

	txf := func(tx *redis.Tx) error {
		stored, err := tx.HGet(ctx, metaKey, "version").Uint64()
		if errors.Is(err, redis.Nil) {
			stored = 0
		} else if err != nil {
			return err
		}
		if stored != expected {
			return domain.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, choicesKey, fields)
			pipe.HSet(ctx, metaKey,
				"startedAt", session.StartedAt().UTC().Format(time.RFC3339Nano),
				"updatedAt", session.UpdatedAt().UTC().Format(time.RFC3339Nano),
				"version", next,
			)
			if s.ttl > 0 {
				pipe.Expire(ctx, choicesKey, s.ttl)
				pipe.Expire(ctx, metaKey, s.ttl)
			}
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, metaKey)
	if errors.Is(err, redis.TxFailedErr) {
		err = domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("write assessment %s: %w", id, err)
	}
	session.MarkSaved(next)
	return nil
}

func (s *SessionStore) reload(ctx context.Context, session *app.Session) error {
	id := session.ID()
	meta, err := s.client.HGetAll(ctx, s.metaKey(id)).Result()
	if err != nil {
		return err
	}
	if len(meta) == 0 {
		return domain.ErrAssessmentNotFound
	}
	version, err := parseVersion(meta["version"])
	if err != nil {
		return err
	}
	sheet, err := s.loadSheet(ctx, id)
	if err != nil {
		return err
	}
	session.Replace(sheet, parseTime(meta["updatedAt"], session.UpdatedAt()), version)
	return nil
}

func (s *SessionStore) loadSheet(ctx context.Context, id string) (nihss.ScoreSheet, error) {
	raw, err := s.client.HGetAll(ctx, s.choicesKey(id)).Result()
	if err != nil {
		return nihss.ScoreSheet{}, err
	}
	choices := make(map[string]int, len(raw))
	for itemID, v := range raw {
		choice, err := strconv.Atoi(v)
		if err != nil {
			return nihss.ScoreSheet{}, fmt.Errorf("item %s: %w", itemID, err)
		}
		choices[itemID] = choice
	}
	return nihss.RestoreScoreSheet(choices)
}

func (s *SessionStore) choicesKey(id string) string {
	return "assessment:" + id + ":choices"
}

func (s *SessionStore) metaKey(id string) string {
	return "assessment:" + id + ":meta"
}

func parseVersion(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func parseTime(raw string, fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return fallback
}
