package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"nihss-scoring-service/internal/domain"
)

// RecordStore archives finalized assessments in the assessment_records table.
type RecordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

func (s *RecordStore) LoadRecord(ctx context.Context, assessmentID string) (domain.Record, error) {
	var (
		raw    []byte
		record domain.Record
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, scores, total, severity, tier, coma_active, started_at, finalized_at
		FROM assessment_records WHERE id=$1`, assessmentID).
		Scan(&record.AssessmentID, &raw, &record.Total, &record.Severity, &record.Tier,
			&record.ComaActive, &record.StartedAt, &record.FinalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("load record: %w", err)
	}
	if err := json.Unmarshal(raw, &record.Scores); err != nil {
		return domain.Record{}, fmt.Errorf("unmarshal scores: %w", err)
	}
	return record, nil
}

func (s *RecordStore) StoreRecord(ctx context.Context, record domain.Record) error {
	scores, err := json.Marshal(record.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO assessment_records (id, scores, total, severity, tier, coma_active, started_at, finalized_at)
		VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			scores = EXCLUDED.scores,
			total = EXCLUDED.total,
			severity = EXCLUDED.severity,
			tier = EXCLUDED.tier,
			coma_active = EXCLUDED.coma_active,
			finalized_at = EXCLUDED.finalized_at`,
		record.AssessmentID, string(scores), record.Total, record.Severity, record.Tier,
		record.ComaActive, record.StartedAt, record.FinalizedAt)
	if err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}
