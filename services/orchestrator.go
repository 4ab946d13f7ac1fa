package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salonreach-backend/config"
	"salonreach-backend/models"
	"salonreach-backend/repository"
	"salonreach-backend/utils"
)

// CampaignOrchestrator drives outbound promotional calls. It owns the
// dispatch rules: the daily cap, the per-run session limit, quiet
// hours, the contact cool-down and the pacing delay between calls.
type CampaignOrchestrator struct {
	customers     repository.CustomerRepository
	conversations repository.ConversationRepository
	promotions    repository.PromotionRepository
	campaigns     repository.CampaignRepository

	engine  *PromotionEngine
	booking *BookingService
	gateway CommunicationGateway
	limiter *DispatchLimiter
	scripts *ScriptBuilder

	webhookBaseURL    string
	sessionCallLimit  int
	cooldownDays      int
	dispatchDelay     time.Duration
	respectQuietHours bool
	quietStartHour    int
	quietEndHour      int
	businessStart     int
	businessEnd       int
	defaultMinutes    int
	searchDays        int
	optOutKeywords    []string

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool

	now   func() time.Time
	sleep func(time.Duration, <-chan struct{}) bool
}

func NewCampaignOrchestrator(
	customers repository.CustomerRepository,
	conversations repository.ConversationRepository,
	promotions repository.PromotionRepository,
	campaigns repository.CampaignRepository,
	engine *PromotionEngine,
	booking *BookingService,
	gateway CommunicationGateway,
	limiter *DispatchLimiter,
	scripts *ScriptBuilder,
	cfg config.Config,
) *CampaignOrchestrator {
	return &CampaignOrchestrator{
		customers:         customers,
		conversations:     conversations,
		promotions:        promotions,
		campaigns:         campaigns,
		engine:            engine,
		booking:           booking,
		gateway:           gateway,
		limiter:           limiter,
		scripts:           scripts,
		webhookBaseURL:    cfg.WebhookBaseURL,
		sessionCallLimit:  cfg.SessionCallLimit,
		cooldownDays:      cfg.ContactCooldownDays,
		dispatchDelay:     time.Duration(cfg.DispatchDelaySeconds) * time.Second,
		respectQuietHours: cfg.RespectQuietHours,
		quietStartHour:    cfg.QuietStartHour,
		quietEndHour:      cfg.QuietEndHour,
		businessStart:     cfg.BusinessHoursStart,
		businessEnd:       cfg.BusinessHoursEnd,
		defaultMinutes:    cfg.DefaultServiceMinutes,
		searchDays:        cfg.BookingSearchDays,
		optOutKeywords:    cfg.OptOutKeywords,
		stopCh:            make(chan struct{}),
		now:               time.Now,
		sleep:             sleepInterruptible,
	}
}

// sleepInterruptible waits for d unless the stop channel closes first.
// Returns false when interrupted.
func sleepInterruptible(d time.Duration, stop <-chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}

// Stop asks a running campaign loop to wind down. The call currently
// being dispatched is allowed to finish.
func (o *CampaignOrchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		close(o.stopCh)
	}
}

func (o *CampaignOrchestrator) begin() (<-chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return nil, errors.New("a campaign run is already in progress")
	}
	o.running = true
	o.stopCh = make(chan struct{})
	return o.stopCh, nil
}

func (o *CampaignOrchestrator) end() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// IsAppropriateTime reports whether outbound calls may be placed now.
// The quiet window may wrap midnight, for example 20:00 through 09:00.
func (o *CampaignOrchestrator) IsAppropriateTime(now time.Time) bool {
	hour := now.Hour()
	if o.respectQuietHours {
		if o.quietStartHour <= o.quietEndHour {
			if hour >= o.quietStartHour && hour < o.quietEndHour {
				return false
			}
		} else if hour >= o.quietStartHour || hour < o.quietEndHour {
			return false
		}
	}
	return hour >= o.businessStart && hour < o.businessEnd
}

// prefersThisHour reports whether the customer's stated contact-time
// preference matches the current hour. No preference matches any hour.
func prefersThisHour(customer *models.Customer, now time.Time) bool {
	if customer.PreferredContactTime == "" {
		return true
	}
	return customer.PreferredContactTime == utils.HourBand(now.Hour())
}

// RunScheduledCampaign selects a batch of contactable customers and
// dispatches promotional calls, pacing them out and honoring the
// daily cap. Returns the number of calls dispatched.
func (o *CampaignOrchestrator) RunScheduledCampaign(ctx context.Context) (int, error) {
	stop, err := o.begin()
	if err != nil {
		return 0, err
	}
	defer o.end()

	now := o.now()
	if !o.IsAppropriateTime(now) {
		log.Info().Msg("campaign run skipped, outside calling hours")
		return 0, nil
	}

	remaining, err := o.limiter.Remaining(ctx)
	if err != nil {
		return 0, err
	}
	if remaining == 0 {
		log.Info().Msg("campaign run skipped, daily call cap reached")
		return 0, nil
	}

	budget := o.sessionCallLimit
	if remaining < budget {
		budget = remaining
	}

	cutoff := now.AddDate(0, 0, -o.cooldownDays)
	pool, err := o.customers.ContactablePool(ctx, cutoff, budget*4)
	if err != nil {
		return 0, fmt.Errorf("load contactable pool: %w", err)
	}

	// Only customers whose preferred contact band matches this hour
	// (or who stated no preference) are callable right now; the rest
	// wait for a run inside their band.
	var batch []models.Customer
	for i := range pool {
		if len(batch) >= budget {
			break
		}
		if prefersThisHour(&pool[i], now) {
			batch = append(batch, pool[i])
		}
	}

	log.Info().
		Int("pool", len(pool)).
		Int("batch", len(batch)).
		Int("budget", budget).
		Msg("starting scheduled campaign run")

	dispatched := 0
	for i := range batch {
		select {
		case <-stop:
			log.Info().Int("dispatched", dispatched).Msg("campaign run stopped")
			return dispatched, nil
		default:
		}

		customer := &batch[i]
		promotion, err := o.engine.SelectBest(ctx, customer, o.now())
		if err != nil {
			log.Error().Err(err).Str("customer_id", customer.ID.String()).
				Msg("promotion selection failed")
			continue
		}
		if promotion == nil {
			continue
		}

		if err := o.dispatchCall(ctx, customer, promotion, models.CallTypePromotional); err != nil {
			if errors.Is(err, ErrDailyCapReached) {
				log.Info().Int("dispatched", dispatched).Msg("daily cap hit mid-run")
				return dispatched, nil
			}
			log.Error().Err(err).Str("customer_id", customer.ID.String()).
				Msg("call dispatch failed")
			continue
		}
		dispatched++

		if dispatched < len(batch) {
			if !o.sleep(o.dispatchDelay, stop) {
				log.Info().Int("dispatched", dispatched).Msg("campaign run stopped")
				return dispatched, nil
			}
		}
	}

	log.Info().Int("dispatched", dispatched).Msg("scheduled campaign run complete")
	return dispatched, nil
}

// RunCampaign dispatches a specific promotion to a hand-picked
// customer list and records the run as a campaign row.
func (o *CampaignOrchestrator) RunCampaign(
	ctx context.Context,
	promotionID uuid.UUID,
	customerIDs []uuid.UUID,
) (*models.Campaign, error) {
	stop, err := o.begin()
	if err != nil {
		return nil, err
	}
	defer o.end()

	promotion, err := o.promotions.GetByID(ctx, promotionID)
	if err != nil {
		return nil, fmt.Errorf("%w: promotion %s", ErrNotFound, promotionID)
	}
	now := o.now()
	if !promotion.IsActive || !promotion.InDateWindow(now) {
		return nil, fmt.Errorf("%w: promotion %q is not active", ErrBadTargeting, promotion.Name)
	}

	targets, err := o.customers.GetContactable(ctx, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("load campaign targets: %w", err)
	}

	campaign := &models.Campaign{
		Name:                fmt.Sprintf("%s - %s", promotion.Name, now.Format("2006-01-02 15:04")),
		PromotionID:         promotion.ID,
		TargetCustomerCount: len(targets),
		ActualStart:         &now,
		Status:              models.CampaignRunning,
	}
	if err := o.campaigns.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("record campaign: %w", err)
	}

	for i := range targets {
		select {
		case <-stop:
			campaign.Status = models.CampaignCancelled
			o.finishCampaign(ctx, campaign)
			return campaign, nil
		default:
		}

		customer := &targets[i]
		if err := o.dispatchCall(ctx, customer, promotion, models.CallTypePromotional); err != nil {
			if errors.Is(err, ErrDailyCapReached) {
				break
			}
			log.Error().Err(err).Str("customer_id", customer.ID.String()).
				Msg("campaign call dispatch failed")
			continue
		}
		campaign.CallsCompleted++

		if i < len(targets)-1 {
			if !o.sleep(o.dispatchDelay, stop) {
				campaign.Status = models.CampaignCancelled
				o.finishCampaign(ctx, campaign)
				return campaign, nil
			}
		}
	}

	campaign.Status = models.CampaignCompleted
	o.finishCampaign(ctx, campaign)
	return campaign, nil
}

func (o *CampaignOrchestrator) finishCampaign(ctx context.Context, campaign *models.Campaign) {
	end := o.now()
	campaign.ActualEnd = &end
	if err := o.campaigns.Save(ctx, campaign); err != nil {
		log.Error().Err(err).Str("campaign_id", campaign.ID.String()).
			Msg("failed to save campaign result")
	}
}

// dispatchCall consumes one unit of the daily budget, records the
// conversation and places the call through the gateway.
func (o *CampaignOrchestrator) dispatchCall(
	ctx context.Context,
	customer *models.Customer,
	promotion *models.Promotion,
	callType string,
) error {
	if err := o.limiter.Increment(ctx); err != nil {
		return err
	}

	conversation := &models.Conversation{
		CustomerID: customer.ID,
		CallType:   callType,
		CallStatus: models.CallStatusInitiated,
	}
	if promotion != nil {
		conversation.PromotionID = &promotion.ID
	}
	if err := o.conversations.Create(ctx, conversation); err != nil {
		return fmt.Errorf("record conversation: %w", err)
	}

	callID, err := o.gateway.PlaceCall(ctx, customer.Phone,
		o.twimlURL(conversation.ID), o.statusCallbackURL())
	if err != nil {
		conversation.CallStatus = models.CallStatusFailed
		conversation.Notes = err.Error()
		if saveErr := o.conversations.Save(ctx, conversation); saveErr != nil {
			log.Error().Err(saveErr).Msg("failed to mark conversation failed")
		}
		return err
	}

	conversation.CallSID = callID
	if err := o.conversations.Save(ctx, conversation); err != nil {
		return fmt.Errorf("save call sid: %w", err)
	}

	log.Info().
		Str("customer_id", customer.ID.String()).
		Str("call_sid", callID).
		Str("call_type", callType).
		Msg("call dispatched")
	return nil
}

func (o *CampaignOrchestrator) twimlURL(conversationID uuid.UUID) string {
	return o.webhookBaseURL + "/api/v1/twiml/promotional-call?conversation_id=" +
		url.QueryEscape(conversationID.String())
}

func (o *CampaignOrchestrator) statusCallbackURL() string {
	return o.webhookBaseURL + "/api/v1/webhooks/call-status"
}

// ProcessFollowUps dispatches follow-up calls whose due date has
// passed. Outside calling hours the batch is pushed back two hours
// instead. Returns how many follow-ups were placed.
func (o *CampaignOrchestrator) ProcessFollowUps(ctx context.Context) (int, error) {
	now := o.now()
	due, err := o.conversations.ClaimDueFollowUps(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("claim follow-ups: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	if !o.IsAppropriateTime(now) {
		deferred := now.Add(2 * time.Hour)
		for i := range due {
			if err := o.conversations.RescheduleFollowUp(ctx, due[i].ID, deferred); err != nil {
				log.Error().Err(err).Str("conversation_id", due[i].ID.String()).
					Msg("failed to defer follow-up")
			}
		}
		log.Info().Int("count", len(due)).Time("deferred_to", deferred).
			Msg("follow-ups deferred outside calling hours")
		return 0, nil
	}

	placed := 0
	for i := range due {
		original := &due[i]
		customer, err := o.customers.GetByID(ctx, original.CustomerID)
		if err != nil {
			log.Error().Err(err).Str("conversation_id", original.ID.String()).
				Msg("follow-up skipped, customer lookup failed")
			continue
		}
		if customer.OptOutCalls {
			if err := o.conversations.CompleteFollowUp(ctx, original.ID); err != nil {
				log.Error().Err(err).Msg("failed to close opted-out follow-up")
			}
			continue
		}

		var promotion *models.Promotion
		if original.PromotionID != nil {
			promotion, err = o.promotions.GetByID(ctx, *original.PromotionID)
			if err != nil {
				promotion = nil
			}
		}

		if err := o.dispatchCall(ctx, customer, promotion, models.CallTypeFollowUp); err != nil {
			if errors.Is(err, ErrDailyCapReached) {
				if rescheduleErr := o.conversations.RescheduleFollowUp(ctx, original.ID, now.Add(2*time.Hour)); rescheduleErr != nil {
					log.Error().Err(rescheduleErr).Msg("failed to defer follow-up after cap")
				}
				break
			}
			log.Error().Err(err).Str("conversation_id", original.ID.String()).
				Msg("follow-up dispatch failed")
			continue
		}
		if err := o.conversations.CompleteFollowUp(ctx, original.ID); err != nil {
			log.Error().Err(err).Str("conversation_id", original.ID.String()).
				Msg("failed to close dispatched follow-up")
		}
		placed++
	}

	log.Info().Int("placed", placed).Msg("follow-up batch processed")
	return placed, nil
}

// HandleResponse classifies the digit a customer pressed during the
// gather and applies the side effects for that choice.
func (o *CampaignOrchestrator) HandleResponse(ctx context.Context, callSID, digit string) (*models.Conversation, error) {
	conversation, err := o.conversations.GetByCallSID(ctx, callSID)
	if err != nil {
		return nil, fmt.Errorf("%w: conversation for call %s", ErrNotFound, callSID)
	}
	customer, err := o.customers.GetByID(ctx, conversation.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	now := o.now()
	switch digit {
	case "1":
		conversation.CustomerResponse = models.ResponseBooked
		if err := o.bookFromCall(ctx, customer, conversation, now); err != nil {
			log.Error().Err(err).Str("conversation_id", conversation.ID.String()).
				Msg("auto-booking after response failed")
			conversation.Notes = "booking attempt failed: " + err.Error()
			followUp := now.Add(24 * time.Hour)
			conversation.FollowUpRequired = true
			conversation.FollowUpDate = &followUp
		}
	case "2":
		conversation.CustomerResponse = models.ResponseInterested
		o.sendPromotionDetails(ctx, customer, conversation, now)
		followUp := now.Add(48 * time.Hour)
		conversation.FollowUpRequired = true
		conversation.FollowUpDate = &followUp
	case "3":
		conversation.CustomerResponse = models.ResponseCallback
		followUp := now.Add(24 * time.Hour)
		conversation.FollowUpRequired = true
		conversation.FollowUpDate = &followUp
	case "9":
		conversation.CustomerResponse = models.ResponseRemoveFromList
		if err := o.customers.SetOptOut(ctx, customer.ID, repository.ChannelCalls); err != nil {
			return nil, fmt.Errorf("record opt-out: %w", err)
		}
		log.Info().Str("customer_id", customer.ID.String()).Msg("customer opted out of calls")
	default:
		conversation.CustomerResponse = models.ResponseUnknown
		log.Warn().Str("call_sid", callSID).Str("digit", digit).Msg("unrecognized gather digit")
	}

	if InferPreferences(customer, conversation.Notes) {
		if err := o.customers.Save(ctx, customer); err != nil {
			log.Error().Err(err).Str("customer_id", customer.ID.String()).
				Msg("preference update failed")
		}
	}

	if err := o.conversations.Save(ctx, conversation); err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}
	return conversation, nil
}

// bookFromCall books the next open default-length slot for the
// customer and counts the promotion use.
func (o *CampaignOrchestrator) bookFromCall(
	ctx context.Context,
	customer *models.Customer,
	conversation *models.Conversation,
	now time.Time,
) error {
	slots, err := o.booking.allocator.NextAvailable(ctx, o.defaultMinutes, 1, o.searchDays, now)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return fmt.Errorf("%w: no open slots in the next %d days", ErrSlotConflict, o.searchDays)
	}

	serviceName := "General Appointment"
	if len(customer.PreferredServices) > 0 {
		serviceName = customer.PreferredServices[0]
	}

	_, err = o.booking.BookAppointment(ctx, BookAppointmentInput{
		CustomerID:     customer.ID,
		ConversationID: &conversation.ID,
		Slot:           slots[0],
		ServiceName:    serviceName,
		CreatedVia:     models.BookingViaVoiceCall,
	})
	if err != nil {
		return err
	}

	if conversation.PromotionID != nil {
		if err := o.promotions.IncrementUses(ctx, *conversation.PromotionID); err != nil {
			if errors.Is(err, repository.ErrUsesExhausted) {
				log.Warn().Str("promotion_id", conversation.PromotionID.String()).
					Msg("promotion uses exhausted at redemption time")
			} else {
				log.Error().Err(err).Msg("failed to count promotion use")
			}
		}
	}
	return nil
}

func (o *CampaignOrchestrator) sendPromotionDetails(
	ctx context.Context,
	customer *models.Customer,
	conversation *models.Conversation,
	now time.Time,
) {
	if customer.OptOutSMS || conversation.PromotionID == nil {
		return
	}
	promotion, err := o.promotions.GetByID(ctx, *conversation.PromotionID)
	if err != nil {
		return
	}
	body := o.scripts.PromotionalSMS(customer, promotion, now)
	if _, err := o.gateway.SendMessage(ctx, customer.Phone, body); err != nil {
		log.Error().Err(err).Str("customer_id", customer.ID.String()).
			Msg("failed to text promotion details")
	}
}

// HandleCallStatus records gateway delivery updates for a call.
func (o *CampaignOrchestrator) HandleCallStatus(ctx context.Context, callSID, status string, durationSeconds int) error {
	conversation, err := o.conversations.GetByCallSID(ctx, callSID)
	if err != nil {
		return fmt.Errorf("%w: conversation for call %s", ErrNotFound, callSID)
	}

	conversation.CallStatus = status
	if durationSeconds > 0 {
		conversation.CallDuration = durationSeconds
	}

	// A completed call with no digit pressed stays actionable.
	if status == models.CallStatusCompleted && conversation.CustomerResponse == "" {
		conversation.CustomerResponse = models.ResponseUnknown
	}

	return o.conversations.Save(ctx, conversation)
}

// HandleIncomingSMS processes an inbound text. Opt-out keywords take
// effect immediately; anything else gets an intent-based reply.
func (o *CampaignOrchestrator) HandleIncomingSMS(ctx context.Context, from, body string) (string, error) {
	customer, err := o.customers.GetByPhone(ctx, from)
	if err != nil {
		log.Warn().Str("from", from).Msg("inbound text from unknown number")
		return o.scripts.InboundSMSReply(body), nil
	}

	if IsOptOutMessage(body, o.optOutKeywords) {
		if err := o.customers.SetOptOut(ctx, customer.ID, repository.ChannelSMS); err != nil {
			return "", fmt.Errorf("record sms opt-out: %w", err)
		}
		log.Info().Str("customer_id", customer.ID.String()).Msg("customer opted out of texts")
		return o.scripts.OptOutConfirmationSMS(), nil
	}

	if InferPreferences(customer, body) {
		if err := o.customers.Save(ctx, customer); err != nil {
			log.Error().Err(err).Str("customer_id", customer.ID.String()).
				Msg("preference update failed")
		}
	}

	return o.scripts.InboundSMSReply(body), nil
}

// CleanupOldData deletes conversations past the retention window.
func (o *CampaignOrchestrator) CleanupOldData(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := o.now().AddDate(0, 0, -retentionDays)
	deleted, err := o.conversations.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old conversations: %w", err)
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).
			Msg("old conversations purged")
	}
	return deleted, nil
}
