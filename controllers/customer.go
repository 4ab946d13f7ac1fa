// controllers/customer.go
package controllers

import (
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

// CustomerController exposes the customer base and contact history.
type CustomerController struct {
	Customers     repository.CustomerRepository
	Conversations repository.ConversationRepository
	Thresholds    services.SegmentThresholds
	Now           func() time.Time
}

// CreateCustomerInput is the admin payload for adding a customer.
type CreateCustomerInput struct {
	Name                 string   `json:"name" binding:"required"`
	Phone                string   `json:"phone" binding:"required"`
	Email                string   `json:"email"`
	PreferredServices    []string `json:"preferred_services"`
	PreferredContactTime string   `json:"preferred_contact_time"`
	PreferredStylist     string   `json:"preferred_stylist"`
	ExternalCustomerID   string   `json:"external_customer_id"`
}

// CreateCustomer registers a customer for outreach.
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number")
		return
	}

	customer := models.Customer{
		Name:                 input.Name,
		Phone:                input.Phone,
		Email:                input.Email,
		PreferredServices:    models.StringList(input.PreferredServices),
		PreferredContactTime: input.PreferredContactTime,
		PreferredStylist:     input.PreferredStylist,
		ExternalCustomerID:   input.ExternalCustomerID,
	}
	if err := cc.Customers.Save(c.Request.Context(), &customer); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// ListCustomers pages through the customer base.
func (cc *CustomerController) ListCustomers(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	customers, err := cc.Customers.List(c.Request.Context(), offset, limit)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list customers")
		return
	}
	c.JSON(http.StatusOK, customers)
}

// GetCustomer returns one customer with their current segments.
func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}
	customer, err := cc.Customers.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
		"segments": services.ClassifySegments(customer, cc.Now(), cc.Thresholds),
	})
}

// GetConversations lists a customer's recent contact attempts.
func (cc *CustomerController) GetConversations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}
	conversations, err := cc.Conversations.ListByCustomer(c.Request.Context(), id, 50)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// SetOptOut flips an opt-out flag for a contact channel.
func (cc *CustomerController) SetOptOut(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}
	channel := c.Query("channel")
	if channel != repository.ChannelCalls && channel != repository.ChannelSMS {
		utils.RespondWithError(c, http.StatusBadRequest, "channel must be calls or sms")
		return
	}
	if err := cc.Customers.SetOptOut(c.Request.Context(), id, channel); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record opt-out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Opt-out recorded"})
}
