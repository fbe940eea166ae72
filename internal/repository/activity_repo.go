package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kliniksentosa/klinik-api/internal/domain"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append writes one activity-log row. Within a transaction-bound registry the
// row rolls back together with the mutation it describes.
func (r *ActivityRepository) Append(ctx context.Context, entry *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

type ListActivitiesQuery struct {
	EntityType string
	EntityID   string
	Page       int
	PageSize   int
}

type PagedActivities struct {
	Activities []*domain.ActivityLog
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}

func (r *ActivityRepository) List(ctx context.Context, q *ListActivitiesQuery) (*PagedActivities, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	stmt := r.db.WithContext(ctx).Model(&domain.ActivityLog{})
	if q.EntityType != "" {
		stmt = stmt.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID != "" {
		stmt = stmt.Where("entity_id = ?", q.EntityID)
	}

	var count int64
	if err := stmt.Count(&count).Error; err != nil {
		return nil, err
	}

	var entries []*domain.ActivityLog
	err := stmt.
		Order("occurred_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return &PagedActivities{
		Activities: entries,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}
