// controllers/service.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonreach-backend/repository"
	"salonreach-backend/utils"
)

// ServiceController exposes the synced service catalog.
type ServiceController struct {
	Services repository.ServiceRepository
}

// ListServices returns the active services pulled from the
// appointment backend.
func (sc *ServiceController) ListServices(c *gin.Context) {
	services, err := sc.Services.List(c.Request.Context())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list services")
		return
	}
	c.JSON(http.StatusOK, services)
}
