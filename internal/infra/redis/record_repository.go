package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"nihss-scoring-service/internal/domain"
)

// RecordStore is the durable home of finalized assessments (e.g., Postgres).
type RecordStore interface {
	LoadRecord(ctx context.Context, assessmentID string) (domain.Record, error)
	StoreRecord(ctx context.Context, record domain.Record) error
}

// RecordRepository caches finalized assessments in Redis and falls back to the store on a miss.
// Scores are stored as:  HSET record:{id}:scores {itemID} {score}
// Summary is stored as:  HSET record:{id}:meta total|severity|tier|coma|startedAt|finalizedAt
type RecordRepository struct {
	client *redis.Client
	store  RecordStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewRecordRepository(client *redis.Client, store RecordStore, ttl time.Duration) *RecordRepository {
	return &RecordRepository{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RecordRepository) GetRecord(ctx context.Context, assessmentID string) (domain.Record, error) {
	if record, ok := r.fromCache(ctx, assessmentID); ok {
		return record, nil
	}

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if record, ok := r.fromCache(ctx, assessmentID); ok {
			return record, nil
		}
		record, err := r.store.LoadRecord(ctx, assessmentID)
		if err != nil {
			return domain.Record{}, err
		}
		r.fill(ctx, record)
		return record, nil
	})
	if err != nil {
		return domain.Record{}, err
	}
	return result.(domain.Record), nil
}

// SaveRecord writes through to the store, then primes the cache.
func (r *RecordRepository) SaveRecord(ctx context.Context, record domain.Record) error {
	if err := r.store.StoreRecord(ctx, record); err != nil {
		return err
	}
	r.fill(ctx, record)
	return nil
}

func (r *RecordRepository) fromCache(ctx context.Context, assessmentID string) (domain.Record, bool) {
	meta, err := r.client.HGetAll(ctx, r.metaKey(assessmentID)).Result()
	if err != nil || len(meta) == 0 {
		return domain.Record{}, false
	}
	scores, err := r.client.HGetAll(ctx, r.scoresKey(assessmentID)).Result()
	if err != nil {
		return domain.Record{}, false
	}
	return buildRecordFromCache(assessmentID, scores, meta), true
}

func (r *RecordRepository) fill(ctx context.Context, record domain.Record) {
	scoresKey := r.scoresKey(record.AssessmentID)
	metaKey := r.metaKey(record.AssessmentID)

	pipe := r.client.Pipeline()
	for itemID, score := range record.Scores {
		pipe.HSet(ctx, scoresKey, itemID, score)
	}
	pipe.HSet(ctx, metaKey,
		"total", record.Total,
		"severity", record.Severity,
		"tier", record.Tier,
		"coma", strconv.FormatBool(record.ComaActive),
		"startedAt", record.StartedAt.UTC().Format(time.RFC3339Nano),
		"finalizedAt", record.FinalizedAt.UTC().Format(time.RFC3339Nano),
	)
	if ttl := r.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, scoresKey, ttl)
		pipe.Expire(ctx, metaKey, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (r *RecordRepository) scoresKey(assessmentID string) string {
	return "record:" + assessmentID + ":scores"
}

func (r *RecordRepository) metaKey(assessmentID string) string {
	return "record:" + assessmentID + ":meta"
}

func buildRecordFromCache(assessmentID string, scores, meta map[string]string) domain.Record {
	record := domain.Record{
		AssessmentID: assessmentID,
		Scores:       make(map[string]int, len(scores)),
		Severity:     meta["severity"],
		Tier:         meta["tier"],
	}
	for itemID, raw := range scores {
		if v, err := strconv.Atoi(raw); err == nil {
			record.Scores[itemID] = v
		}
	}
	record.Total, _ = strconv.Atoi(meta["total"])
	record.ComaActive, _ = strconv.ParseBool(meta["coma"])
	record.StartedAt = parseTime(meta["startedAt"], time.Time{})
	record.FinalizedAt = parseTime(meta["finalizedAt"], time.Time{})
	return record
}

func (r *RecordRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
