// controllers/promotion.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonreach-backend/models"
	"salonreach-backend/repository"
	"salonreach-backend/services"
	"salonreach-backend/utils"
)

// PromotionController manages the promotion catalog and previews
// per-customer eligibility.
type PromotionController struct {
	Promotions repository.PromotionRepository
	Customers  repository.CustomerRepository
	Engine     *services.PromotionEngine
	Now        func() time.Time
}

// CreatePromotionInput is the admin payload for a new promotion.
type CreatePromotionInput struct {
	Name               string   `json:"name" binding:"required"`
	Description        string   `json:"description"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	DiscountAmount     *float64 `json:"discount_amount"`
	TargetServices     []string `json:"target_services"`
	TargetSegments     []string `json:"target_segments"`
	MinDaysSinceVisit  *int     `json:"min_days_since_visit"`
	MaxDaysSinceVisit  *int     `json:"max_days_since_visit"`
	StartDate          string   `json:"start_date" binding:"required"`
	EndDate            string   `json:"end_date" binding:"required"`
	MaxUses            *int     `json:"max_uses"`
}

// CreatePromotion adds a promotion to the catalog.
func (pc *PromotionController) CreatePromotion(c *gin.Context) {
	var input CreatePromotionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", input.StartDate)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", input.EndDate)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
		return
	}
	if !end.After(start) {
		utils.RespondWithError(c, http.StatusBadRequest, "end_date must be after start_date")
		return
	}

	promotion := models.Promotion{
		Name:               input.Name,
		Description:        input.Description,
		DiscountPercentage: input.DiscountPercentage,
		DiscountAmount:     input.DiscountAmount,
		TargetServices:     models.StringList(input.TargetServices),
		TargetSegments:     models.StringList(input.TargetSegments),
		MinDaysSinceVisit:  input.MinDaysSinceVisit,
		MaxDaysSinceVisit:  input.MaxDaysSinceVisit,
		StartDate:          start,
		EndDate:            end,
		MaxUses:            input.MaxUses,
		IsActive:           true,
	}
	if err := pc.Promotions.Create(c.Request.Context(), &promotion); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create promotion")
		return
	}
	c.JSON(http.StatusCreated, promotion)
}

// ListPromotions returns the full catalog.
func (pc *PromotionController) ListPromotions(c *gin.Context) {
	promotions, err := pc.Promotions.List(c.Request.Context())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list promotions")
		return
	}
	c.JSON(http.StatusOK, promotions)
}

// PreviewEligibility shows which active promotions a customer
// qualifies for, scored and ordered as the dialer would see them.
func (pc *PromotionController) PreviewEligibility(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}
	customer, err := pc.Customers.GetByID(c.Request.Context(), customerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	now := pc.Now()
	catalog, err := pc.Promotions.ActiveCatalog(c.Request.Context(), now)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load promotions")
		return
	}
	eligible, err := pc.Engine.EligiblePromotions(c.Request.Context(), customer, catalog, now)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to evaluate eligibility")
		return
	}

	type scoredPromotion struct {
		Promotion models.Promotion `json:"promotion"`
		Score     float64          `json:"score"`
	}
	scored := make([]scoredPromotion, 0, len(eligible))
	for i := range eligible {
		scored = append(scored, scoredPromotion{
			Promotion: eligible[i],
			Score:     pc.Engine.Score(customer, &eligible[i], now),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"customer_id": customer.ID,
		"eligible":    scored,
	})
}
