package scheduling

import (
	"context"
	"fmt"

	"thesistrack_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConflictError is raised only at booking-write time, when the atomic check
// finds that a racing writer took the slot first. Callers should surface it as
// "slot no longer available, retry".
type ConflictError struct {
	UserID    uint
	Date      string
	StartTime string
	EndTime   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict for user %d on %s %s-%s", e.UserID, e.Date, e.StartTime, e.EndTime)
}

// Store is the schedule-store collaborator consumed by the Engine. Lookup is
// batched by participant set so one scheduling request costs one round trip.
type Store interface {
	FindByParticipants(ctx context.Context, participantIDs []uint) ([]models.Booking, error)
	// InsertBatch persists a multi-participant event all-or-nothing. The
	// overlap re-check and the insert run in one transaction, closing the gap
	// between slot computation and booking confirmation.
	InsertBatch(ctx context.Context, bookings []models.Booking) error
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	DeleteByThesis(ctx context.Context, thesisID uint) (int64, error)
}

// GormStore implements Store on the application database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByParticipants(ctx context.Context, participantIDs []uint) ([]models.Booking, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("user_id IN ?", participantIDs).
		Order("date ASC, start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *GormStore) InsertBatch(ctx context.Context, bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, b := range bookings {
			// Row locks on the participant's existing bookings serialize
			// concurrent writers for the same user+date.
			var overlapping int64
			err := tx.Model(&models.Booking{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND date = ?", b.UserID, b.Date).
				Where("start_time < ? AND end_time > ?", b.EndTime, b.StartTime).
				Count(&overlapping).Error
			if err != nil {
				return err
			}
			if overlapping > 0 {
				return &ConflictError{
					UserID:    b.UserID,
					Date:      b.Date,
					StartTime: b.StartTime,
					EndTime:   b.EndTime,
				}
			}
		}
		return tx.Create(&bookings).Error
	})
}

func (s *GormStore) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Booking{})
	return result.RowsAffected, result.Error
}

// DeleteByThesis removes every booking tied to a thesis, used when a defense
// is cancelled or rescheduled (old bookings removed before new ones insert).
func (s *GormStore) DeleteByThesis(ctx context.Context, thesisID uint) (int64, error) {
	result := s.db.WithContext(ctx).Where("thesis_id = ?", thesisID).Delete(&models.Booking{})
	return result.RowsAffected, result.Error
}
