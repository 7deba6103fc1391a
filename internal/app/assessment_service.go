package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"nihss-scoring-service/internal/domain"
)

// SessionRepository abstracts where live assessments are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Create(ctx context.Context, id string) (*Session, error)
	// Get returns domain.ErrAssessmentNotFound for unknown ids; any other
	// error means the store could not be read.
	Get(ctx context.Context, id string) (*Session, error)
	// Save writes the session's current sheet to the backing store, if any.
	// It returns domain.ErrConflict when the stored assessment moved on since
	// the session was loaded; the session then holds the stored state again.
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string)
}

// RecordRepository stores finalized assessments.
type RecordRepository interface {
	GetRecord(ctx context.Context, assessmentID string) (domain.Record, error)
	SaveRecord(ctx context.Context, record domain.Record) error
}

// AssessmentService contains the NIHSS assessment use cases.
type AssessmentService struct {
	sessions SessionRepository
	records  RecordRepository
	newID    func() string
}

func NewAssessmentService(sessions SessionRepository, records RecordRepository) *AssessmentService {
	return &AssessmentService{
		sessions: sessions,
		records:  records,
		newID:    uuid.NewString,
	}
}

// Start opens a new assessment with every item at its default.
func (s *AssessmentService) Start(ctx context.Context) (domain.Assessment, error) {
	session, err := s.sessions.Create(ctx, s.newID())
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("create assessment: %w", err)
	}
	return session.Snapshot(), nil
}

// Get returns the current state of an assessment.
func (s *AssessmentService) Get(ctx context.Context, id string) (domain.Assessment, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domain.Assessment{}, err
	}
	return session.Snapshot(), nil
}

// Select applies an option choice, re-evaluates the coma protocol and
// publishes the new state to subscribers.
func (s *AssessmentService) Select(ctx context.Context, id string, sel domain.Selection) (domain.Assessment, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domain.Assessment{}, err
	}
	snap, err := session.selectOption(sel)
	if err != nil {
		return domain.Assessment{}, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.Assessment{}, fmt.Errorf("save assessment %s: %w", id, err)
	}
	return snap, nil
}

// Reset returns every item of the assessment to its default.
func (s *AssessmentService) Reset(ctx context.Context, id string) (domain.Assessment, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domain.Assessment{}, err
	}
	snap := session.reset()
	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.Assessment{}, fmt.Errorf("save assessment %s: %w", id, err)
	}
	return snap, nil
}

// Subscribe returns a channel that receives state updates for an assessment.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AssessmentService) Subscribe(ctx context.Context, id string) (<-chan domain.Assessment, func(), error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Finalize archives the assessment and closes the live session.
func (s *AssessmentService) Finalize(ctx context.Context, id string) (domain.Record, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	record := session.record()
	if err := s.records.SaveRecord(ctx, record); err != nil {
		return domain.Record{}, fmt.Errorf("archive assessment %s: %w", id, err)
	}
	session.Close()
	s.sessions.Delete(ctx, id)
	return record, nil
}

// Discard drops a live assessment without archiving it.
func (s *AssessmentService) Discard(ctx context.Context, id string) error {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	session.Close()
	s.sessions.Delete(ctx, id)
	return nil
}

// Record loads a finalized assessment.
func (s *AssessmentService) Record(ctx context.Context, id string) (domain.Record, error) {
	return s.records.GetRecord(ctx, id)
}
