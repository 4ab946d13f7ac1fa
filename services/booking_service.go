package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salonreach-backend/config"
	"salonreach-backend/models"
	"salonreach-backend/repository"
)

// BookAppointmentInput carries everything needed to confirm one
// appointment slot for a customer.
type BookAppointmentInput struct {
	CustomerID     uuid.UUID
	ConversationID *uuid.UUID
	Slot           TimeSlot
	ServiceName    string
	Price          float64
	CreatedVia     string
	Notes          string
}

// BookingService confirms, cancels and reminds about appointments.
// Creation is two phase: the external backend accepts the slot first,
// the local row is written second. A backend failure leaves no local
// state behind.
type BookingService struct {
	customers repository.CustomerRepository
	bookings  repository.BookingRepository
	backend   AppointmentBackend
	allocator *SlotAllocator
	gateway   CommunicationGateway
	scripts   *ScriptBuilder

	defaultServiceMinutes int
	now                   func() time.Time
}

func NewBookingService(
	customers repository.CustomerRepository,
	bookings repository.BookingRepository,
	backend AppointmentBackend,
	allocator *SlotAllocator,
	gateway CommunicationGateway,
	scripts *ScriptBuilder,
	cfg config.Config,
) *BookingService {
	return &BookingService{
		customers:             customers,
		bookings:              bookings,
		backend:               backend,
		allocator:             allocator,
		gateway:               gateway,
		scripts:               scripts,
		defaultServiceMinutes: cfg.DefaultServiceMinutes,
		now:                   time.Now,
	}
}

// BookAppointment re-checks the slot, confirms it with the backend,
// then records it locally and texts the customer a confirmation.
func (s *BookingService) BookAppointment(ctx context.Context, input BookAppointmentInput) (*models.Booking, error) {
	customer, err := s.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	slot := input.Slot
	if slot.DurationMinutes <= 0 {
		slot.DurationMinutes = s.defaultServiceMinutes
	}

	// Freshness check against the backend right before confirming.
	existing, err := s.backend.QueryBookings(ctx, slot.StartTime, slot.EndTime())
	if err != nil {
		return nil, err
	}
	if s.allocator.HasConflict(slot, existing, slot.StylistID) {
		return nil, ErrSlotConflict
	}

	externalID, err := s.backend.CreateBooking(ctx, BookingRequest{
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		ServiceName:     input.ServiceName,
		StylistID:       slot.StylistID,
		StartTime:       slot.StartTime,
		DurationMinutes: slot.DurationMinutes,
		Notes:           input.Notes,
	})
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		CustomerID:        customer.ID,
		ConversationID:    input.ConversationID,
		ExternalBookingID: externalID,
		StartTime:         slot.StartTime,
		DurationMinutes:   slot.DurationMinutes,
		ServiceName:       input.ServiceName,
		StylistID:         slot.StylistID,
		Price:             input.Price,
		CreatedVia:        input.CreatedVia,
	}
	if err := s.bookings.CreateConfirmed(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			// The backend holds the slot but a local row beat us to the
			// interval. Release the backend reservation and surface the
			// conflict.
			if cancelErr := s.backend.CancelBooking(ctx, externalID, "slot conflict"); cancelErr != nil {
				log.Error().Err(cancelErr).Str("external_booking_id", externalID).
					Msg("failed to release backend booking after local conflict")
			}
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("record booking: %w", err)
	}

	log.Info().
		Str("booking_id", booking.ID.String()).
		Str("customer_id", customer.ID.String()).
		Time("start_time", booking.StartTime).
		Msg("appointment booked")

	if !customer.OptOutSMS {
		body := s.scripts.BookingConfirmationSMS(customer, booking)
		if _, err := s.gateway.SendMessage(ctx, customer.Phone, body); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID.String()).
				Msg("failed to send booking confirmation")
		}
	}

	return booking, nil
}

// CancelBooking cancels in the backend first, then flips the local
// status and notifies the customer.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}
	if booking.Status == models.BookingCancelled {
		return nil
	}

	if booking.ExternalBookingID != "" {
		if err := s.backend.CancelBooking(ctx, booking.ExternalBookingID, reason); err != nil {
			return err
		}
	}
	if err := s.bookings.UpdateStatus(ctx, booking.ID, models.BookingCancelled); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	log.Info().Str("booking_id", booking.ID.String()).Str("reason", reason).Msg("booking cancelled")

	customer, err := s.customers.GetByID(ctx, booking.CustomerID)
	if err != nil {
		return nil
	}
	if !customer.OptOutSMS {
		if _, err := s.gateway.SendMessage(ctx, customer.Phone, s.scripts.CancellationSMS(customer, booking)); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID.String()).
				Msg("failed to send cancellation notice")
		}
	}
	return nil
}

// SendAppointmentReminders texts customers whose confirmed bookings
// start within the given window. Returns the number of reminders sent.
func (s *BookingService) SendAppointmentReminders(ctx context.Context, hoursAhead int) (int, error) {
	now := s.now()
	windowEnd := now.Add(time.Duration(hoursAhead) * time.Hour)

	upcoming, err := s.bookings.ListConfirmedBetween(ctx, now, windowEnd)
	if err != nil {
		return 0, fmt.Errorf("list upcoming bookings: %w", err)
	}

	sent := 0
	for i := range upcoming {
		booking := &upcoming[i]
		customer, err := s.customers.GetByID(ctx, booking.CustomerID)
		if err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID.String()).
				Msg("reminder skipped, customer lookup failed")
			continue
		}
		if customer.OptOutSMS {
			continue
		}
		if _, err := s.gateway.SendMessage(ctx, customer.Phone, s.scripts.ReminderSMS(customer, booking)); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID.String()).
				Msg("reminder send failed")
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Info().Int("count", sent).Msg("appointment reminders sent")
	}
	return sent, nil
}
