package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"nihss-scoring-service/internal/domain"
)

// RecordStore is the durable home of finalized assessments (e.g., Postgres).
type RecordStore interface {
	LoadRecord(ctx context.Context, assessmentID string) (domain.Record, error)
	StoreRecord(ctx context.Context, record domain.Record) error
}

// RecordRepository caches records with TTL to avoid repeated DB hits.
type RecordRepository struct {
	store RecordStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedRecord
}

type cachedRecord struct {
	record    domain.Record
	expiresAt time.Time
}

func NewRecordRepository(store RecordStore, ttl time.Duration) *RecordRepository {
	return &RecordRepository{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedRecord),
	}
}

func (r *RecordRepository) GetRecord(ctx context.Context, assessmentID string) (domain.Record, error) {
	if record, ok := r.cached(assessmentID); ok {
		return record, nil
	}

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		if record, ok := r.cached(assessmentID); ok {
			return record, nil
		}

		record, err := r.store.LoadRecord(ctx, assessmentID)
		if err != nil {
			return domain.Record{}, err
		}
		r.put(record)
		return record, nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	return result.(domain.Record), nil
}

// SaveRecord writes through to the store and refreshes the cache entry.
func (r *RecordRepository) SaveRecord(ctx context.Context, record domain.Record) error {
	if err := r.store.StoreRecord(ctx, record); err != nil {
		return err
	}
	r.put(record)
	return nil
}

func (r *RecordRepository) cached(assessmentID string) (domain.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[assessmentID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Record{}, false
	}
	return entry.record, true
}

func (r *RecordRepository) put(record domain.Record) {
	ttl := r.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	r.mu.Lock()
	r.cache[record.AssessmentID] = cachedRecord{
		record:    record,
		expiresAt: r.clock().Add(ttl),
	}
	r.mu.Unlock()
}

func (r *RecordRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticRecordStore is a map-backed RecordStore, used when no database is configured and in tests.
type StaticRecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

func NewStaticRecordStore() *StaticRecordStore {
	return &StaticRecordStore{records: make(map[string]domain.Record)}
}

func (s *StaticRecordStore) LoadRecord(_ context.Context, assessmentID string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[assessmentID]; ok {
		return record, nil
	}
	return domain.Record{}, domain.ErrRecordNotFound
}

func (s *StaticRecordStore) StoreRecord(_ context.Context, record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.AssessmentID] = record
	return nil
}
