// controllers/booking.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonreach-backend/models"
	"salonreach-backend/repository"
	"salonreach-backend/services"
	"salonreach-backend/utils"
)

// BookingController exposes slot search and manual booking.
type BookingController struct {
	Bookings  repository.BookingRepository
	Allocator *services.SlotAllocator
	Booking   *services.BookingService
	Now       func() time.Time
}

// GetAvailableSlots lists open appointment windows.
func (bc *BookingController) GetAvailableSlots(c *gin.Context) {
	duration, _ := strconv.Atoi(c.DefaultQuery("duration", "60"))
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days <= 0 || days > 60 {
		days = 7
	}
	stylistID := c.Query("stylist_id")

	now := bc.Now()
	slots, err := bc.Allocator.AvailableSlots(c.Request.Context(), duration, now, now.AddDate(0, 0, days), stylistID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadGateway, "Booking backend unavailable")
		return
	}
	c.JSON(http.StatusOK, slots)
}

// CreateBookingInput is the admin payload for a manual booking.
type CreateBookingInput struct {
	CustomerID      string  `json:"customer_id" binding:"required,uuid"`
	StartTime       string  `json:"start_time" binding:"required"`
	DurationMinutes int     `json:"duration_minutes"`
	ServiceName     string  `json:"service_name" binding:"required"`
	StylistID       string  `json:"stylist_id"`
	Price           float64 `json:"price"`
	Notes           string  `json:"notes"`
}

// CreateBooking confirms a manual appointment.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var input CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	customerID, err := uuid.Parse(input.CustomerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}
	start, err := time.Parse(time.RFC3339, input.StartTime)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid start_time, expected RFC3339")
		return
	}

	booking, err := bc.Booking.BookAppointment(c.Request.Context(), services.BookAppointmentInput{
		CustomerID: customerID,
		Slot: services.TimeSlot{
			StartTime:       start,
			DurationMinutes: input.DurationMinutes,
			StylistID:       input.StylistID,
		},
		ServiceName: input.ServiceName,
		Price:       input.Price,
		CreatedVia:  models.BookingViaManual,
		Notes:       input.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlotConflict):
			utils.RespondWithError(c, http.StatusConflict, "Requested slot is no longer available")
		case errors.Is(err, services.ErrBackendUnavailable):
			utils.RespondWithError(c, http.StatusBadGateway, "Booking backend unavailable")
		default:
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create booking")
		}
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// CancelBooking cancels an appointment and notifies the customer.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID")
		return
	}
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := bc.Booking.CancelBooking(c.Request.Context(), id, input.Reason); err != nil {
		if errors.Is(err, services.ErrBackendUnavailable) {
			utils.RespondWithError(c, http.StatusBadGateway, "Booking backend unavailable")
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel booking")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
}

// ListBookings pages through recorded bookings.
func (bc *BookingController) ListBookings(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	bookings, err := bc.Bookings.List(c.Request.Context(), offset, limit)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list bookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}
