// controllers/campaign.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salonreach-backend/repository"
	"salonreach-backend/services"
	"salonreach-backend/utils"
)

// CampaignController exposes campaign dispatch and history.
type CampaignController struct {
	Orchestrator *services.CampaignOrchestrator
	Campaigns    repository.CampaignRepository
}

// StartCampaignInput targets one promotion at a customer list.
type StartCampaignInput struct {
	PromotionID string   `json:"promotion_id" binding:"required,uuid"`
	CustomerIDs []string `json:"customer_ids" binding:"required,min=1"`
}

// StartCampaign dispatches a manual campaign run. The call loop runs
// in the background; the campaign row is returned immediately after
// dispatch starts.
func (cc *CampaignController) StartCampaign(c *gin.Context) {
	var input StartCampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	promotionID, err := uuid.Parse(input.PromotionID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid promotion ID")
		return
	}
	customerIDs := make([]uuid.UUID, 0, len(input.CustomerIDs))
	for _, raw := range input.CustomerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID: "+raw)
			return
		}
		customerIDs = append(customerIDs, id)
	}

	campaign, err := cc.Orchestrator.RunCampaign(c.Request.Context(), promotionID, customerIDs)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, services.ErrBadTargeting) {
			utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Error().Err(err).Msg("campaign start failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to start campaign")
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// RunScheduled triggers an on-demand scheduled-style run.
func (cc *CampaignController) RunScheduled(c *gin.Context) {
	dispatched, err := cc.Orchestrator.RunScheduledCampaign(c.Request.Context())
	if err != nil {
		utils.RespondWithError(c, http.StatusConflict, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls_dispatched": dispatched})
}

// StopCampaign asks the running dispatch loop to wind down.
func (cc *CampaignController) StopCampaign(c *gin.Context) {
	cc.Orchestrator.Stop()
	c.JSON(http.StatusOK, gin.H{"message": "Campaign stop requested"})
}

// ListCampaigns returns recent campaign runs.
func (cc *CampaignController) ListCampaigns(c *gin.Context) {
	campaigns, err := cc.Campaigns.List(c.Request.Context(), 50)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// GetCampaign returns one campaign run by ID.
func (cc *CampaignController) GetCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid campaign ID")
		return
	}
	campaign, err := cc.Campaigns.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Campaign not found")
		return
	}
	c.JSON(http.StatusOK, campaign)
}
