// controllers/webhook.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salonreach-backend/models"
	"salonreach-backend/repository"
	"salonreach-backend/services"
	"salonreach-backend/utils"
)

// WebhookController receives call and message callbacks from the
// communication gateway.
type WebhookController struct {
	Orchestrator  *services.CampaignOrchestrator
	Conversations repository.ConversationRepository
	Customers     repository.CustomerRepository
	Promotions    repository.PromotionRepository
	Scripts       *services.ScriptBuilder
	Now           func() time.Time
}

// PromotionalCallTwiML serves the IVR document the gateway fetches
// when a dispatched call connects.
func (wc *WebhookController) PromotionalCallTwiML(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Query("conversation_id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	conversation, err := wc.Conversations.GetByID(c.Request.Context(), conversationID)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Conversation not found")
		return
	}
	customer, err := wc.Customers.GetByID(c.Request.Context(), conversation.CustomerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	var promotion *models.Promotion
	if conversation.PromotionID != nil {
		promotion, err = wc.Promotions.GetByID(c.Request.Context(), *conversation.PromotionID)
		if err != nil {
			utils.RespondWithError(c, http.StatusNotFound, "Promotion not found")
			return
		}
	}
	if promotion == nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Conversation has no promotion attached")
		return
	}

	gatherAction := "/api/v1/webhooks/gather-response"
	document, err := wc.Scripts.PromotionalCallTwiML(customer, promotion, gatherAction, wc.Now())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build call script")
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(document))
}

// GatherResponse handles the digit the customer pressed and answers
// with the follow-on script.
func (wc *WebhookController) GatherResponse(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	digit := c.PostForm("Digits")
	if callSID == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing CallSid")
		return
	}

	if _, err := wc.Orchestrator.HandleResponse(c.Request.Context(), callSID, digit); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Unknown call")
			return
		}
		log.Error().Err(err).Str("call_sid", callSID).Msg("gather handling failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to process response")
		return
	}

	document, err := wc.Scripts.ResponseTwiML(digit)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build response script")
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(document))
}

// CallStatus records gateway delivery updates.
func (wc *WebhookController) CallStatus(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	if callSID == "" || status == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing CallSid or CallStatus")
		return
	}
	duration, _ := strconv.Atoi(c.PostForm("CallDuration"))

	if err := wc.Orchestrator.HandleCallStatus(c.Request.Context(), callSID, status, duration); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Unknown call")
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record call status")
		return
	}
	c.Status(http.StatusOK)
}

// MessageStatus records delivery updates for outbound texts. Nothing
// downstream keys off these yet, so failures are only logged.
func (wc *WebhookController) MessageStatus(c *gin.Context) {
	messageSID := c.PostForm("MessageSid")
	status := c.PostForm("MessageStatus")
	if messageSID == "" || status == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing MessageSid or MessageStatus")
		return
	}

	event := log.Info()
	if status == "failed" || status == "undelivered" {
		event = log.Warn()
	}
	event.Str("message_sid", messageSID).Str("status", status).Msg("message status update")
	c.Status(http.StatusOK)
}

// IncomingSMS processes an inbound text and replies through the
// gateway's message webhook format.
func (wc *WebhookController) IncomingSMS(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")
	if from == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing From")
		return
	}

	reply, err := wc.Orchestrator.HandleIncomingSMS(c.Request.Context(), from, body)
	if err != nil {
		log.Error().Err(err).Str("from", from).Msg("inbound sms handling failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to process message")
		return
	}

	document, err := services.MessageReplyTwiML(reply)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build reply")
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(document))
}
