package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salonreach-backend/models"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	GetByCallSID(ctx context.Context, callSID string) (*models.Conversation, error)
	Save(ctx context.Context, conversation *models.Conversation) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Conversation, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]models.Conversation, error)
	// HasEngaged reports whether the customer already responded
	// booked or interested to this promotion.
	HasEngaged(ctx context.Context, customerID, promotionID uuid.UUID) (bool, error)
	// ClaimDueFollowUps atomically marks due follow-ups as claimed
	// and returns them; overlapping poll ticks get disjoint sets.
	ClaimDueFollowUps(ctx context.Context, now time.Time) ([]models.Conversation, error)
	RescheduleFollowUp(ctx context.Context, id uuid.UUID, at time.Time) error
	CompleteFollowUp(ctx context.Context, id uuid.UUID) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *conversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepo) GetByCallSID(ctx context.Context, callSID string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, "call_sid = ?", callSID).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepo) Save(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Save(conversation).Error
}

func (r *conversationRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&conversations).Error
	return conversations, err
}

func (r *conversationRepo) ListBetween(ctx context.Context, start, end time.Time) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC").
		Find(&conversations).Error
	return conversations, err
}

func (r *conversationRepo) HasEngaged(ctx context.Context, customerID, promotionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("customer_id = ? AND promotion_id = ? AND customer_response IN ?",
			customerID, promotionID,
			[]string{models.ResponseBooked, models.ResponseInterested}).
		Count(&count).Error
	return count > 0, err
}

func (r *conversationRepo) ClaimDueFollowUps(ctx context.Context, now time.Time) ([]models.Conversation, error) {
	var claimed []models.Conversation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row locks with SKIP LOCKED keep overlapping poll ticks on
		// disjoint sets; a second tick never sees rows this one is
		// about to claim.
		var due []models.Conversation
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("follow_up_required = ? AND follow_up_claimed = ? AND follow_up_date <= ?",
				true, false, now).
			Order("follow_up_date ASC").
			Find(&due).Error; err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(due))
		for i, conv := range due {
			ids[i] = conv.ID
		}
		if err := tx.Model(&models.Conversation{}).
			Where("id IN ? AND follow_up_claimed = ?", ids, false).
			Update("follow_up_claimed", true).Error; err != nil {
			return err
		}
		claimed = due
		return nil
	})
	return claimed, err
}

func (r *conversationRepo) RescheduleFollowUp(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"follow_up_date":    at,
			"follow_up_claimed": false,
		}).Error
}

func (r *conversationRepo) CompleteFollowUp(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"follow_up_required": false,
			"follow_up_claimed":  false,
		}).Error
}

func (r *conversationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.Conversation{})
	return result.RowsAffected, result.Error
}
