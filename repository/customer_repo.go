package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonreach-backend/models"
)

// CustomerRepository is the narrow persistence surface the campaign
// core needs for customers.
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	GetContactable(ctx context.Context, ids []uuid.UUID) ([]models.Customer, error)
	List(ctx context.Context, offset, limit int) ([]models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) error
	SetOptOut(ctx context.Context, id uuid.UUID, channel string) error
	ContactablePool(ctx context.Context, noContactSince time.Time, limit int) ([]models.Customer, error)
}

// Contact channels for opt-out bookkeeping.
const (
	ChannelCalls = "calls"
	ChannelSMS   = "sms"
)

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "phone = ?", phone).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetContactable loads the given customers, dropping any that have
// opted out of calls.
func (r *customerRepo) GetContactable(ctx context.Context, ids []uuid.UUID) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.WithContext(ctx).
		Where("id IN ? AND opt_out_calls = ?", ids, false).
		Find(&customers).Error
	return customers, err
}

func (r *customerRepo) List(ctx context.Context, offset, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&customers).Error
	return customers, err
}

func (r *customerRepo) Save(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *customerRepo) SetOptOut(ctx context.Context, id uuid.UUID, channel string) error {
	column := "opt_out_calls"
	if channel == ChannelSMS {
		column = "opt_out_sms"
	}
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Update(column, true).Error
}

// ContactablePool returns customers who have not opted out of calls
// and have had no conversation since the cool-down cutoff.
func (r *customerRepo) ContactablePool(ctx context.Context, noContactSince time.Time, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.WithContext(ctx).
		Where("opt_out_calls = ?", false).
		Where("id NOT IN (?)", r.db.Model(&models.Conversation{}).
			Select("customer_id").
			Where("created_at > ?", noContactSince)).
		Order("last_visit ASC NULLS FIRST").
		Limit(limit).
		Find(&customers).Error
	return customers, err
}
