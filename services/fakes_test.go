package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"salonreach-backend/models"
	"salonreach-backend/repository"
)

// In-memory doubles for the repository and collaborator interfaces.
// Kept deliberately simple: maps guarded by one mutex each.

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*models.Customer
	pool      []models.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*models.Customer)}
}

func (f *fakeCustomerRepo) add(customer *models.Customer) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	f.mu.Lock()
	f.customers[customer.ID] = customer
	f.mu.Unlock()
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s not found", id)
	}
	copied := *customer
	return &copied, nil
}

func (f *fakeCustomerRepo) GetByPhone(_ context.Context, phone string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, customer := range f.customers {
		if customer.Phone == phone {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("customer with phone %s not found", phone)
}

func (f *fakeCustomerRepo) GetContactable(_ context.Context, ids []uuid.UUID) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Customer
	for _, id := range ids {
		if customer, ok := f.customers[id]; ok && !customer.OptOutCalls {
			out = append(out, *customer)
		}
	}
	return out, nil
}

func (f *fakeCustomerRepo) List(_ context.Context, _, _ int) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Customer
	for _, customer := range f.customers {
		out = append(out, *customer)
	}
	return out, nil
}

func (f *fakeCustomerRepo) Save(_ context.Context, customer *models.Customer) error {
	f.add(customer)
	return nil
}

func (f *fakeCustomerRepo) SetOptOut(_ context.Context, id uuid.UUID, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer, ok := f.customers[id]
	if !ok {
		return fmt.Errorf("customer %s not found", id)
	}
	if channel == repository.ChannelSMS {
		customer.OptOutSMS = true
	} else {
		customer.OptOutCalls = true
	}
	return nil
}

func (f *fakeCustomerRepo) ContactablePool(_ context.Context, _ time.Time, limit int) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pool
	if len(out) > limit {
		out = out[:limit]
	}
	return append([]models.Customer(nil), out...), nil
}

type fakePromotionRepo struct {
	mu      sync.Mutex
	catalog []models.Promotion
}

func (f *fakePromotionRepo) add(promotion models.Promotion) {
	if promotion.ID == uuid.Nil {
		promotion.ID = uuid.New()
	}
	f.mu.Lock()
	f.catalog = append(f.catalog, promotion)
	f.mu.Unlock()
}

func (f *fakePromotionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.catalog {
		if f.catalog[i].ID == id {
			copied := f.catalog[i]
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("promotion %s not found", id)
}

func (f *fakePromotionRepo) ActiveCatalog(_ context.Context, now time.Time) ([]models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Promotion
	for i := range f.catalog {
		if f.catalog[i].InDateWindow(now) {
			out = append(out, f.catalog[i])
		}
	}
	return out, nil
}

func (f *fakePromotionRepo) List(_ context.Context) ([]models.Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Promotion(nil), f.catalog...), nil
}

func (f *fakePromotionRepo) Create(_ context.Context, promotion *models.Promotion) error {
	f.add(*promotion)
	return nil
}

func (f *fakePromotionRepo) IncrementUses(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.catalog {
		if f.catalog[i].ID == id {
			if f.catalog[i].UsesExhausted() {
				return repository.ErrUsesExhausted
			}
			f.catalog[i].CurrentUses++
			return nil
		}
	}
	return fmt.Errorf("promotion %s not found", id)
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*models.Conversation
	engaged       map[string]bool // customerID|promotionID
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[uuid.UUID]*models.Conversation),
		engaged:       make(map[string]bool),
	}
}

func engagementKey(customerID, promotionID uuid.UUID) string {
	return customerID.String() + "|" + promotionID.String()
}

func (f *fakeConversationRepo) markEngaged(customerID, promotionID uuid.UUID) {
	f.mu.Lock()
	f.engaged[engagementKey(customerID, promotionID)] = true
	f.mu.Unlock()
}

func (f *fakeConversationRepo) Create(_ context.Context, conversation *models.Conversation) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	f.mu.Lock()
	stored := *conversation
	f.conversations[conversation.ID] = &stored
	f.mu.Unlock()
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation, ok := f.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	copied := *conversation
	return &copied, nil
}

func (f *fakeConversationRepo) GetByCallSID(_ context.Context, callSID string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conversation := range f.conversations {
		if conversation.CallSID == callSID {
			copied := *conversation
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("conversation for call %s not found", callSID)
}

func (f *fakeConversationRepo) Save(_ context.Context, conversation *models.Conversation) error {
	f.mu.Lock()
	stored := *conversation
	f.conversations[conversation.ID] = &stored
	f.mu.Unlock()
	return nil
}

func (f *fakeConversationRepo) ListByCustomer(_ context.Context, customerID uuid.UUID, _ int) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Conversation
	for _, conversation := range f.conversations {
		if conversation.CustomerID == customerID {
			out = append(out, *conversation)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) ListBetween(_ context.Context, start, end time.Time) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Conversation
	for _, conversation := range f.conversations {
		if !conversation.CreatedAt.Before(start) && conversation.CreatedAt.Before(end) {
			out = append(out, *conversation)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) HasEngaged(_ context.Context, customerID, promotionID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engaged[engagementKey(customerID, promotionID)], nil
}

func (f *fakeConversationRepo) ClaimDueFollowUps(_ context.Context, now time.Time) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var claimed []models.Conversation
	for _, conversation := range f.conversations {
		if conversation.FollowUpRequired && !conversation.FollowUpClaimed &&
			conversation.FollowUpDate != nil && !conversation.FollowUpDate.After(now) {
			conversation.FollowUpClaimed = true
			claimed = append(claimed, *conversation)
		}
	}
	return claimed, nil
}

func (f *fakeConversationRepo) RescheduleFollowUp(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation, ok := f.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	conversation.FollowUpDate = &at
	conversation.FollowUpClaimed = false
	return nil
}

func (f *fakeConversationRepo) CompleteFollowUp(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation, ok := f.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	conversation.FollowUpRequired = false
	conversation.FollowUpClaimed = false
	return nil
}

func (f *fakeConversationRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, conversation := range f.conversations {
		if conversation.CreatedAt.Before(cutoff) {
			delete(f.conversations, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*models.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[uuid.UUID]*models.Campaign)}
}

func (f *fakeCampaignRepo) Create(_ context.Context, campaign *models.Campaign) error {
	if campaign.ID == uuid.Nil {
		campaign.ID = uuid.New()
	}
	f.mu.Lock()
	stored := *campaign
	f.campaigns[campaign.ID] = &stored
	f.mu.Unlock()
	return nil
}

func (f *fakeCampaignRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	campaign, ok := f.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s not found", id)
	}
	copied := *campaign
	return &copied, nil
}

func (f *fakeCampaignRepo) Save(_ context.Context, campaign *models.Campaign) error {
	f.mu.Lock()
	stored := *campaign
	f.campaigns[campaign.ID] = &stored
	f.mu.Unlock()
	return nil
}

func (f *fakeCampaignRepo) List(_ context.Context, _ int) ([]models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Campaign
	for _, campaign := range f.campaigns {
		out = append(out, *campaign)
	}
	return out, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings []*models.Booking
	failWith error
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, booking := range f.bookings {
		if booking.ID == id {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("booking %s not found", id)
}

func (f *fakeBookingRepo) List(_ context.Context, _, _ int) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, booking := range f.bookings {
		out = append(out, *booking)
	}
	return out, nil
}

func (f *fakeBookingRepo) ListConfirmedBetween(_ context.Context, start, end time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, booking := range f.bookings {
		if booking.Status == models.BookingConfirmed &&
			!booking.StartTime.Before(start) && booking.StartTime.Before(end) {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListCreatedBetween(_ context.Context, start, end time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, booking := range f.bookings {
		if !booking.CreatedAt.Before(start) && booking.CreatedAt.Before(end) {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CreateConfirmed(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.bookings {
		if existing.Status != models.BookingConfirmed {
			continue
		}
		if booking.StylistID != "" && existing.StylistID != booking.StylistID {
			continue
		}
		if existing.StartTime.Before(booking.EndTime()) && existing.EndTime().After(booking.StartTime) {
			return repository.ErrOverlap
		}
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.Status = models.BookingConfirmed
	stored := *booking
	f.bookings = append(f.bookings, &stored)
	return nil
}

func (f *fakeBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, booking := range f.bookings {
		if booking.ID == id {
			booking.Status = status
			return nil
		}
	}
	return fmt.Errorf("booking %s not found", id)
}

type placedCall struct {
	To        string
	ScriptURL string
}

type sentMessage struct {
	To   string
	Body string
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    []placedCall
	messages []sentMessage

	failCallsTo map[string]error
	nextCallID  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failCallsTo: make(map[string]error)}
}

func (f *fakeGateway) PlaceCall(_ context.Context, to, scriptURL, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failCallsTo[to]; ok {
		return "", err
	}
	f.nextCallID++
	f.calls = append(f.calls, placedCall{To: to, ScriptURL: scriptURL})
	return fmt.Sprintf("CA_test_%d", f.nextCallID), nil
}

func (f *fakeGateway) SendMessage(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{To: to, Body: body})
	return fmt.Sprintf("SM_test_%d", len(f.messages)), nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeBackend struct {
	mu        sync.Mutex
	intervals []BookedInterval
	created   []BookingRequest
	cancelled []string
	queryErr  error
	createErr error
	nextID    int
}

func (f *fakeBackend) QueryBookings(_ context.Context, from, to time.Time) ([]BookedInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []BookedInterval
	for _, interval := range f.intervals {
		if interval.Start.Before(to) && interval.Start.Add(time.Duration(interval.DurationMinutes)*time.Minute).After(from) {
			out = append(out, interval)
		}
	}
	return out, nil
}

func (f *fakeBackend) CreateBooking(_ context.Context, req BookingRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	f.created = append(f.created, req)
	f.intervals = append(f.intervals, BookedInterval{
		Start:           req.StartTime,
		DurationMinutes: req.DurationMinutes,
		StylistID:       req.StylistID,
	})
	return fmt.Sprintf("ext_%d", f.nextID), nil
}

func (f *fakeBackend) CancelBooking(_ context.Context, externalID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, externalID)
	return nil
}

func (f *fakeBackend) ListServices(_ context.Context) ([]ExternalService, error) {
	return nil, nil
}
