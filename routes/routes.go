package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"salonreach-backend/config"
	"salonreach-backend/controllers"
	"salonreach-backend/repository"
	"salonreach-backend/services"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Config config.Config

	Customers     repository.CustomerRepository
	Conversations repository.ConversationRepository
	Promotions    repository.PromotionRepository
	Campaigns     repository.CampaignRepository
	Bookings      repository.BookingRepository
	Services      repository.ServiceRepository

	Engine       *services.PromotionEngine
	Allocator    *services.SlotAllocator
	Booking      *services.BookingService
	Orchestrator *services.CampaignOrchestrator
	Reports      *services.ReportService
	Scripts      *services.ScriptBuilder
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	webhookController := controllers.WebhookController{
		Orchestrator:  deps.Orchestrator,
		Conversations: deps.Conversations,
		Customers:     deps.Customers,
		Promotions:    deps.Promotions,
		Scripts:       deps.Scripts,
		Now:           time.Now,
	}
	campaignController := controllers.CampaignController{
		Orchestrator: deps.Orchestrator,
		Campaigns:    deps.Campaigns,
	}
	promotionController := controllers.PromotionController{
		Promotions: deps.Promotions,
		Customers:  deps.Customers,
		Engine:     deps.Engine,
		Now:        time.Now,
	}
	customerController := controllers.CustomerController{
		Customers:     deps.Customers,
		Conversations: deps.Conversations,
		Thresholds:    services.ThresholdsFromConfig(deps.Config),
		Now:           time.Now,
	}
	bookingController := controllers.BookingController{
		Bookings:  deps.Bookings,
		Allocator: deps.Allocator,
		Booking:   deps.Booking,
		Now:       time.Now,
	}
	reportController := controllers.ReportController{Reports: deps.Reports}
	serviceController := controllers.ServiceController{Services: deps.Services}

	api := r.Group("/api/v1")
	{
		// Gateway callbacks
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/call-status", webhookController.CallStatus)
			webhooks.POST("/gather-response", webhookController.GatherResponse)
			webhooks.POST("/message-status", webhookController.MessageStatus)
			webhooks.POST("/incoming-sms", webhookController.IncomingSMS)
		}
		api.Match([]string{"GET", "POST"}, "/twiml/promotional-call", webhookController.PromotionalCallTwiML)

		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", customerController.CreateCustomer)
			customers.GET("", customerController.ListCustomers)
			customers.GET("/:id", customerController.GetCustomer)
			customers.GET("/:id/conversations", customerController.GetConversations)
			customers.GET("/:id/eligibility", promotionController.PreviewEligibility)
			customers.POST("/:id/opt-out", customerController.SetOptOut)
		}

		// Promotion routes
		promotions := api.Group("/promotions")
		{
			promotions.POST("", promotionController.CreatePromotion)
			promotions.GET("", promotionController.ListPromotions)
		}

		// Campaign routes
		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("/start", campaignController.StartCampaign)
			campaigns.POST("/run-scheduled", campaignController.RunScheduled)
			campaigns.POST("/stop", campaignController.StopCampaign)
			campaigns.GET("", campaignController.ListCampaigns)
			campaigns.GET("/:id", campaignController.GetCampaign)
		}

		// Booking routes
		bookings := api.Group("/bookings")
		{
			bookings.GET("/slots", bookingController.GetAvailableSlots)
			bookings.POST("", bookingController.CreateBooking)
			bookings.GET("", bookingController.ListBookings)
			bookings.POST("/:id/cancel", bookingController.CancelBooking)
		}

		// Service catalog
		api.GET("/services", serviceController.ListServices)

		// Report routes
		reports := api.Group("/reports")
		{
			reports.GET("/daily", reportController.GetDailySummary)
			reports.GET("/weekly", reportController.GetWeeklySummary)
			reports.GET("/range", reportController.GetRangeSummary)
		}
	}

	return r
}
