package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every endpoint on an authenticated API group.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	// Events (SSE, token via query param)
	api.GET("/events", h.SSE.Stream)

	// Catalog
	clients := api.Group("/clients")
	{
		clients.GET("", h.Catalog.ListClients)
		clients.POST("", h.Catalog.CreateClient)
		clients.GET("/:id", h.Catalog.GetClient)
		clients.PUT("/:id", h.Catalog.UpdateClient)
		clients.DELETE("/:id", h.Catalog.DeleteClient)
		clients.GET("/:id/installations", h.Installation.ListByClient)
	}
	modules := api.Group("/modules")
	{
		modules.GET("", h.Catalog.ListModules)
		modules.POST("", h.Catalog.CreateModule)
		modules.GET("/:id", h.Catalog.GetModule)
		modules.PUT("/:id", h.Catalog.UpdateModule)
		modules.DELETE("/:id", h.Catalog.DeleteModule)
	}
	inverters := api.Group("/inverters")
	{
		inverters.GET("", h.Catalog.ListInverters)
		inverters.POST("", h.Catalog.CreateInverter)
		inverters.GET("/:id", h.Catalog.GetInverter)
		inverters.PUT("/:id", h.Catalog.UpdateInverter)
		inverters.DELETE("/:id", h.Catalog.DeleteInverter)
	}
	registerNamed(api.Group("/brands"), h.Catalog.Brands)
	registerNamed(api.Group("/districts"), h.Catalog.Districts)
	registerNamed(api.Group("/breakers"), h.Catalog.Breakers)

	// Installations
	installations := api.Group("/installations")
	{
		installations.GET("", h.Installation.List)
		installations.POST("", h.Installation.Create)
		installations.GET("/:id", h.Installation.Get)
		installations.PUT("/:id", h.Installation.Update)
		installations.PUT("/:id/equipment", h.Installation.SetEquipment)
		installations.POST("/:id/state/:state", h.Installation.SetState)
		installations.POST("/:id/archive", h.Installation.Archive)
	}

	// Alarm codes
	alarms := api.Group("/alarms")
	{
		alarms.GET("", h.Alarm.List)
		alarms.POST("", h.Alarm.Create)
		alarms.POST("/action-plans/generate", h.Alarm.GenerateMissingPlans)
		alarms.GET("/:id", h.Alarm.Get)
		alarms.PUT("/:id", h.Alarm.Update)
		alarms.DELETE("/:id", h.Alarm.Delete)
		alarms.GET("/:id/action-plan", h.Alarm.GetActionPlan)
		alarms.POST("/:id/action-plan", h.Alarm.GenerateActionPlan)
	}

	// Complaints
	complaints := api.Group("/complaints")
	{
		complaints.GET("", h.Complaint.List)
		complaints.POST("", h.Complaint.Create)
		complaints.GET("/:id", h.Complaint.Get)
		complaints.PUT("/:id", h.Complaint.Update)
		complaints.POST("/:id/state/:state", h.Complaint.SetState)
		complaints.POST("/:id/close", h.Complaint.Close)
		complaints.GET("/:id/action-plan", h.Complaint.ActionPlan)
		complaints.GET("/:id/interventions", h.Complaint.ListInterventions)
		complaints.POST("/:id/interventions", h.Complaint.CreateIntervention)
	}

	// Interventions
	interventions := api.Group("/interventions")
	{
		interventions.GET("", h.Intervention.List)
		interventions.POST("", h.Intervention.Create)
		interventions.GET("/:id", h.Intervention.Get)
		interventions.PUT("/:id", h.Intervention.Update)
		interventions.PUT("/:id/team", h.Intervention.SetTeam)
		interventions.POST("/:id/state/:state", h.Intervention.SetState)
		interventions.GET("/:id/agenda", h.Intervention.ListAgendaLines)
		interventions.POST("/:id/agenda", h.Intervention.AddAgendaLine)
		interventions.DELETE("/:id/agenda/:lineId", h.Intervention.RemoveAgendaLine)
		interventions.GET("/:id/responses", h.Intervention.ListResponses)
		interventions.POST("/:id/responses", h.Intervention.CreateResponse)
		interventions.GET("/:id/evaluations", h.Intervention.ListEvaluations)
		interventions.POST("/:id/evaluations", h.Intervention.CreateEvaluation)

		interventions.GET("/:id/attachments", h.Attachment.List("intervention"))
		interventions.POST("/:id/attachments", h.Attachment.Upload("intervention"))
		interventions.GET("/:id/attachments/:attachmentId", h.Attachment.Download("intervention"))
		interventions.DELETE("/:id/attachments/:attachmentId", h.Attachment.Delete("intervention"))
	}

	// Responses
	responses := api.Group("/responses")
	{
		responses.GET("", h.Response.List)
		responses.POST("", h.Response.Create)
		responses.GET("/:id", h.Response.Get)
		responses.PUT("/:id", h.Response.Update)
		responses.POST("/:id/paid", h.Response.MarkPaid)
	}

	// Evaluations
	evaluations := api.Group("/evaluations")
	{
		evaluations.GET("", h.Evaluation.List)
		evaluations.POST("", h.Evaluation.Create)
		evaluations.GET("/:id", h.Evaluation.Get)
		evaluations.PUT("/:id", h.Evaluation.Update)
		evaluations.POST("/:id/state/:state", h.Evaluation.SetState)
	}

	// Technicians
	technicians := api.Group("/technicians")
	{
		technicians.GET("", h.Technician.List)
		technicians.POST("", h.Technician.Create)
		technicians.GET("/:id", h.Technician.Get)
		technicians.PUT("/:id", h.Technician.Update)
		technicians.DELETE("/:id", h.Technician.Delete)
		technicians.GET("/:id/evaluations", h.Technician.ListEvaluations)
		technicians.POST("/:id/analysis", h.Technician.AnalyzePerformance)
	}

	// Reports
	reports := api.Group("/reports")
	{
		reports.GET("/dashboard", h.Report.Dashboard)
		reports.DELETE("/dashboard/cache", h.Report.InvalidateDashboard)
		reports.GET("/installations", h.Report.Installations)
		reports.GET("/complaints", h.Report.Complaints)
		reports.GET("/interventions", h.Report.Interventions)
		reports.GET("/:kind/export", h.Report.Export)
	}
}

func registerNamed(g *gin.RouterGroup, h *NamedHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
