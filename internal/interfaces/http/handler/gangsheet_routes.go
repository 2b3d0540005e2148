package handler

import (
	"github.com/unaytac-cmd/printnest-sub005/internal/interfaces/http/router"
)

// GangsheetRoutes builds the route group for the gangsheet API.
func GangsheetRoutes(h *GangsheetHandler) *router.DomainGroup {
	group := router.NewDomainGroup("gangsheet", "/gangsheet")

	// Job lifecycle
	group.POST("/jobs", h.CreateJob)
	group.GET("/jobs", h.ListJobs)
	group.GET("/jobs/:id", h.GetJob)
	group.GET("/jobs/:id/status", h.GetJobStatus)
	group.POST("/jobs/:id/cancel", h.CancelJob)

	// Order lookup
	group.GET("/orders/:orderId/jobs", h.ListOrderJobs)

	// Tenant roll settings
	group.GET("/settings", h.GetSettings)
	group.PUT("/settings", h.UpdateSettings)
	group.DELETE("/settings", h.ResetSettings)

	return group
}
