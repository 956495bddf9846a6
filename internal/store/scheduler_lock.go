package store

import (
	"context"
	"time"

	"github.com/naccer/portal/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SchedulerLockStore struct {
	db *gorm.DB
}

func NewSchedulerLockStore(db *gorm.DB) *SchedulerLockStore {
	return &SchedulerLockStore{db: db}
}

// TryAcquire claims (name, key) for owner. It reports false when another
// instance already holds an unexpired claim. Expired claims are taken over.
func (s *SchedulerLockStore) TryAcquire(ctx context.Context, name, key, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	db := s.db.WithContext(ctx)

	err := db.Where("lock_name = ? AND lock_key = ? AND expires_at < ?", name, key, now).
		Delete(&models.SchedulerLock{}).Error
	if err != nil {
		return false, translate(err, "", "failed to release expired lock")
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lock_name"}, {Name: "lock_key"}},
		DoNothing: true,
	}).Create(&models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  owner,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if res.Error != nil {
		return false, translate(res.Error, "", "failed to acquire lock")
	}
	return res.RowsAffected > 0, nil
}
