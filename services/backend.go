package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"salonreach-backend/config"
)

// AppointmentBackend is the salon's scheduling system of record.
// Bookings are confirmed there first; the local row is written only
// after the backend accepts the appointment.
type AppointmentBackend interface {
	QueryBookings(ctx context.Context, from, to time.Time) ([]BookedInterval, error)
	CreateBooking(ctx context.Context, req BookingRequest) (string, error)
	CancelBooking(ctx context.Context, externalID, reason string) error
	ListServices(ctx context.Context) ([]ExternalService, error)
}

// BookingRequest is the payload sent to the scheduling backend when
// confirming a new appointment.
type BookingRequest struct {
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	ServiceName     string    `json:"service_name"`
	StylistID       string    `json:"stylist_id,omitempty"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes,omitempty"`
}

// ExternalService is a service catalog entry from the backend.
type ExternalService struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	Category        string  `json:"category"`
	IsActive        bool    `json:"is_active"`
}

type externalBooking struct {
	ID              string    `json:"id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	StylistID       string    `json:"stylist_id"`
	Status          string    `json:"status"`
}

// httpAppointmentBackend talks JSON over HTTP to the booking API.
type httpAppointmentBackend struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPAppointmentBackend(cfg config.Config) AppointmentBackend {
	return &httpAppointmentBackend{
		baseURL: cfg.BookingAPIURL,
		token:   cfg.BookingAPIToken,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *httpAppointmentBackend) QueryBookings(ctx context.Context, from, to time.Time) ([]BookedInterval, error) {
	query := url.Values{}
	query.Set("from", from.Format(time.RFC3339))
	query.Set("to", to.Format(time.RFC3339))
	query.Set("status", "confirmed")

	var payload struct {
		Bookings []externalBooking `json:"bookings"`
	}
	if err := b.do(ctx, http.MethodGet, "/bookings?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	intervals := make([]BookedInterval, 0, len(payload.Bookings))
	for _, booking := range payload.Bookings {
		intervals = append(intervals, BookedInterval{
			Start:           booking.StartTime,
			DurationMinutes: booking.DurationMinutes,
			StylistID:       booking.StylistID,
		})
	}
	return intervals, nil
}

func (b *httpAppointmentBackend) CreateBooking(ctx context.Context, req BookingRequest) (string, error) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := b.do(ctx, http.MethodPost, "/bookings", req, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", fmt.Errorf("%w: booking API returned no booking id", ErrBackendUnavailable)
	}
	return payload.ID, nil
}

func (b *httpAppointmentBackend) CancelBooking(ctx context.Context, externalID, reason string) error {
	body := map[string]string{"reason": reason}
	return b.do(ctx, http.MethodPost, "/bookings/"+externalID+"/cancel", body, nil)
}

func (b *httpAppointmentBackend) ListServices(ctx context.Context) ([]ExternalService, error) {
	var payload struct {
		Services []ExternalService `json:"services"`
	}
	if err := b.do(ctx, http.MethodGet, "/services", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Services, nil
}

func (b *httpAppointmentBackend) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode booking API request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build booking API request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: booking API returned %d: %s", ErrBackendUnavailable, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode booking API response: %v", ErrBackendUnavailable, err)
		}
	}
	return nil
}
