package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonreach-backend/models"
)

// ErrOverlap is returned when a booking insert would overlap a
// confirmed booking on the same resource.
var ErrOverlap = errors.New("booking overlaps an existing confirmed booking")

type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, offset, limit int) ([]models.Booking, error)
	ListConfirmedBetween(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	// CreateConfirmed inserts the booking and updates the customer's
	// visit aggregates in one transaction. An advisory transaction
	// lock serializes the overlap check and insert across
	// connections, so two concurrent attempts cannot both land on
	// the same window.
	CreateConfirmed(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type bookingRepo struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) List(ctx context.Context, offset, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Order("start_time DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListConfirmedBetween(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time >= ? AND start_time < ?",
			models.BookingConfirmed, start, end).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) CreateConfirmed(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// At READ COMMITTED a plain count cannot see a concurrent
		// uncommitted insert, so two transactions could both pass the
		// overlap check. The advisory lock is held until commit and
		// forces competing booking writers to run one at a time.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext('bookings'))").Error; err != nil {
			return err
		}

		end := booking.EndTime()
		overlap := tx.Model(&models.Booking{}).
			Where("status = ? AND start_time < ? AND start_time + duration_minutes * interval '1 minute' > ?",
				models.BookingConfirmed, end, booking.StartTime)
		if booking.StylistID != "" {
			overlap = overlap.Where("stylist_id = ?", booking.StylistID)
		}
		var count int64
		if err := overlap.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrOverlap
		}

		booking.Status = models.BookingConfirmed
		if err := tx.Create(booking).Error; err != nil {
			return err
		}

		return tx.Model(&models.Customer{}).
			Where("id = ?", booking.CustomerID).
			Updates(map[string]interface{}{
				"total_visits": gorm.Expr("total_visits + 1"),
				"total_spent":  gorm.Expr("total_spent + ?", booking.Price),
				"last_visit":   booking.StartTime,
			}).Error
	})
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status).Error
}
