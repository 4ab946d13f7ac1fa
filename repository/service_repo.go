package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salonreach-backend/models"
)

type ServiceRepository interface {
	List(ctx context.Context) ([]models.Service, error)
	Upsert(ctx context.Context, service *models.Service) error
}

type serviceRepo struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepo{db: db}
}

func (r *serviceRepo) List(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&services).Error
	return services, err
}

func (r *serviceRepo) Upsert(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "duration", "category", "is_active"}),
	}).Create(service).Error
}
