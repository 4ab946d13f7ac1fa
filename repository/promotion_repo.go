package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonreach-backend/models"
)

// ErrUsesExhausted is returned when an increment would push a
// promotion past its usage cap.
var ErrUsesExhausted = errors.New("promotion usage cap reached")

type PromotionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	// ActiveCatalog returns active, date-valid promotions in catalog
	// (creation) order.
	ActiveCatalog(ctx context.Context, now time.Time) ([]models.Promotion, error)
	List(ctx context.Context) ([]models.Promotion, error)
	Create(ctx context.Context, promotion *models.Promotion) error
	// IncrementUses bumps current_uses atomically; concurrent runs can
	// never push the counter past max_uses.
	IncrementUses(ctx context.Context, id uuid.UUID) error
}

type promotionRepo struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepo{db: db}
}

func (r *promotionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.WithContext(ctx).First(&promotion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *promotionRepo) ActiveCatalog(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("created_at ASC").
		Find(&promotions).Error
	return promotions, err
}

func (r *promotionRepo) List(ctx context.Context) ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&promotions).Error
	return promotions, err
}

func (r *promotionRepo) Create(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

func (r *promotionRepo) IncrementUses(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ? AND (max_uses IS NULL OR current_uses < max_uses)", id).
		Update("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsesExhausted
	}
	return nil
}
