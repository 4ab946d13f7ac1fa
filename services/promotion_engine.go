package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"salonreach-backend/config"
	"salonreach-backend/models"
	"salonreach-backend/repository"
)

// PromotionEngine filters the promotion catalog down to what a
// customer may receive and ranks the survivors.
type PromotionEngine struct {
	promotions    repository.PromotionRepository
	conversations repository.ConversationRepository
	thresholds    SegmentThresholds
}

func NewPromotionEngine(
	promotions repository.PromotionRepository,
	conversations repository.ConversationRepository,
	cfg config.Config,
) *PromotionEngine {
	return &PromotionEngine{
		promotions:    promotions,
		conversations: conversations,
		thresholds:    ThresholdsFromConfig(cfg),
	}
}

// EligiblePromotions returns the active, date-valid promotions the
// customer passes every targeting rule for, in catalog order.
func (e *PromotionEngine) EligiblePromotions(
	ctx context.Context,
	customer *models.Customer,
	catalog []models.Promotion,
	now time.Time,
) ([]models.Promotion, error) {
	segments := ClassifySegments(customer, now, e.thresholds)

	var eligible []models.Promotion
	for i := range catalog {
		promotion := &catalog[i]
		if !promotion.InDateWindow(now) {
			continue
		}
		ok, err := e.isEligible(ctx, customer, segments, promotion, now)
		if err != nil {
			return nil, err
		}
		if ok {
			eligible = append(eligible, *promotion)
		}
	}

	log.Debug().
		Str("customer_id", customer.ID.String()).
		Int("eligible", len(eligible)).
		Msg("eligibility filter applied")
	return eligible, nil
}

func (e *PromotionEngine) isEligible(
	ctx context.Context,
	customer *models.Customer,
	segments models.StringList,
	promotion *models.Promotion,
	now time.Time,
) (bool, error) {
	if promotion.UsesExhausted() {
		return false, nil
	}

	// Inverted day bounds cannot match anyone; treat as bad targeting
	// data and keep going with the rest of the catalog.
	if promotion.MinDaysSinceVisit != nil && promotion.MaxDaysSinceVisit != nil &&
		*promotion.MinDaysSinceVisit > *promotion.MaxDaysSinceVisit {
		log.Warn().Str("promotion", promotion.Name).Msg("inverted visit-day bounds, skipping promotion")
		return false, nil
	}

	engaged, err := e.conversations.HasEngaged(ctx, customer.ID, promotion.ID)
	if err != nil {
		return false, err
	}
	if engaged {
		return false, nil
	}

	if customer.LastVisit != nil {
		daysSince := int(now.Sub(*customer.LastVisit).Hours() / 24)
		if promotion.MinDaysSinceVisit != nil && daysSince < *promotion.MinDaysSinceVisit {
			return false, nil
		}
		if promotion.MaxDaysSinceVisit != nil && daysSince > *promotion.MaxDaysSinceVisit {
			return false, nil
		}
	}

	if len(promotion.TargetSegments) > 0 && !promotion.TargetSegments.Intersects(segments) {
		return false, nil
	}

	if len(promotion.TargetServices) > 0 && len(customer.PreferredServices) > 0 &&
		!promotion.TargetServices.Intersects(customer.PreferredServices) {
		return false, nil
	}

	return true, nil
}

// Score rates how well a promotion fits a customer. Higher is better.
func (e *PromotionEngine) Score(customer *models.Customer, promotion *models.Promotion, now time.Time) float64 {
	score := 0.0

	if promotion.DiscountPercentage != nil {
		score += *promotion.DiscountPercentage * 2
	}
	if promotion.DiscountAmount != nil {
		score += *promotion.DiscountAmount / 10
	}

	segments := ClassifySegments(customer, now, e.thresholds)
	for _, segment := range segments {
		if promotion.TargetSegments.Contains(segment) {
			score += 20
		}
	}

	if len(promotion.TargetServices) > 0 {
		for _, service := range customer.PreferredServices {
			if promotion.TargetServices.Contains(service) {
				score += 15
			}
		}
	}

	// Saturation penalty so heavily used offers rotate out.
	usageCap := 1000
	if promotion.MaxUses != nil && *promotion.MaxUses > usageCap {
		usageCap = *promotion.MaxUses
	}
	score -= float64(promotion.CurrentUses) / float64(usageCap) * 10

	if promotion.EndDate.Sub(now) <= 7*24*time.Hour {
		score += 25
	}

	if segments.Contains(SegmentLapsed) && isWinBackName(promotion.Name) {
		score += 30
	}

	return score
}

func isWinBackName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "comeback") || strings.Contains(lower, "welcome back")
}

// SelectBest scores every eligible promotion and returns the winner.
// Ties break toward catalog order, so selection is deterministic.
// Returns nil when nothing is eligible.
func (e *PromotionEngine) SelectBest(
	ctx context.Context,
	customer *models.Customer,
	now time.Time,
) (*models.Promotion, error) {
	catalog, err := e.promotions.ActiveCatalog(ctx, now)
	if err != nil {
		return nil, err
	}
	eligible, err := e.EligiblePromotions(ctx, customer, catalog, now)
	if err != nil {
		return nil, err
	}
	return e.SelectBestFrom(customer, eligible, now), nil
}

// SelectBestFrom picks the highest scorer from a pre-filtered list.
func (e *PromotionEngine) SelectBestFrom(
	customer *models.Customer,
	eligible []models.Promotion,
	now time.Time,
) *models.Promotion {
	if len(eligible) == 0 {
		return nil
	}

	best := 0
	bestScore := e.Score(customer, &eligible[0], now)
	for i := 1; i < len(eligible); i++ {
		if s := e.Score(customer, &eligible[i], now); s > bestScore {
			best, bestScore = i, s
		}
	}

	log.Info().
		Str("customer_id", customer.ID.String()).
		Str("promotion", eligible[best].Name).
		Float64("score", bestScore).
		Msg("selected promotion")
	return &eligible[best]
}
