package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"givehub/portal-backend/pkg/apperr"
)

// Store persists in-app notifications
type Store interface {
	Save(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore migrates the notifications table and returns a gorm-backed Store
func NewStore(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&Notification{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notifications: %w", err)
	}
	return &gormStore{db: db}, nil
}

func (s *gormStore) Save(ctx context.Context, n *Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *gormStore) ListForUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Notification, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	list := []Notification{}
	err := query.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (s *gormStore) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	var n Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if n.ReadAt != nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&n).Update("read_at", at).Error
}

func (s *gormStore) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&n).Error
	return n, err
}
