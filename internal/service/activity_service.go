package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
)

const activityBufferSize = 10_000

// ActivityService persists activity-log entries asynchronously for ordinary
// CRUD operations. Transactional flows (prescription lifecycle, stock
// adjustments) bypass it and append rows through their transaction-bound
// registry instead, so a rollback also discards the log entry.
type ActivityService struct {
	repo    *repository.ActivityRepository
	log     *zap.Logger
	metrics *metrics.Collector
	entries chan *domain.ActivityLog
	done    chan struct{}
}

func NewActivityService(repo *repository.ActivityRepository, collector *metrics.Collector, log *zap.Logger) *ActivityService {
	svc := &ActivityService{
		repo:    repo,
		log:     log,
		metrics: collector,
		entries: make(chan *domain.ActivityLog, activityBufferSize),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// LogAsync enqueues an activity entry for async persistence.
// If the buffer is full, the entry is dropped and a warning is emitted.
func (s *ActivityService) LogAsync(actor domain.Actor, action domain.ActivityAction, entityType, entityID string, oldValue, newValue any) {
	entry := NewActivityLog(actor, action, entityType, entityID, oldValue, newValue)

	select {
	case s.entries <- entry:
	default:
		s.metrics.ActivityBufferDropped.Inc()
		s.log.Warn("activity log buffer full, dropping entry",
			zap.String("action", string(action)),
			zap.String("entity_type", entityType),
		)
	}
}

func (s *ActivityService) Shutdown() {
	close(s.entries)
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("activity service shutdown timed out; some entries may be lost")
	}
}

func (s *ActivityService) worker() {
	defer close(s.done)
	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Append(ctx, entry); err != nil {
			s.log.Error("failed to persist activity log", zap.Error(err))
		} else {
			s.metrics.ActivityEntriesTotal.Inc()
		}
		cancel()
	}
}

// List exposes the activity trail for compliance review. Admin only.
func (s *ActivityService) List(ctx context.Context, q *repository.ListActivitiesQuery, actor domain.Actor) (*repository.PagedActivities, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, q)
}

// NewActivityLog builds an entry with JSON snapshots of the old and new
// state. Marshal failures degrade to an empty snapshot rather than blocking
// the mutation being recorded.
func NewActivityLog(actor domain.Actor, action domain.ActivityAction, entityType, entityID string, oldValue, newValue any) *domain.ActivityLog {
	return &domain.ActivityLog{
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValue:   snapshotJSON(oldValue),
		NewValue:   snapshotJSON(newValue),
	}
}

func snapshotJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
