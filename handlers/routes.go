package handlers

import (
	"catasto_app_go/config"
	"catasto_app_go/middleware"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the registry API on e. The returned limiter guards
// the workflow endpoints and must be stopped on shutdown.
func RegisterRoutes(e *echo.Echo, cfg *config.Config) *middleware.RateLimiter {
	api := e.Group("/api")

	// Comuni, sections and places
	api.GET("/comuni", ListComuniHandler)
	api.POST("/comuni", CreateComuneHandler)
	api.GET("/comuni/:id", GetComuneHandler)
	api.PUT("/comuni/:id", UpdateComuneHandler)
	api.DELETE("/comuni/:id", DeleteComuneHandler)
	api.GET("/comuni/:id/sezioni", ListSezioniHandler)
	api.POST("/comuni/:id/sezioni", CreateSezioneHandler)
	api.PUT("/sezioni/:id", UpdateSezioneHandler)
	api.DELETE("/sezioni/:id", DeleteSezioneHandler)
	api.GET("/comuni/:id/localita", ListLocalitaHandler)
	api.POST("/comuni/:id/localita", GetOrCreateLocalitaHandler)
	api.PUT("/localita/:id", UpdateLocalitaHandler)
	api.DELETE("/localita/:id", DeleteLocalitaHandler)

	// Owners
	api.GET("/possessori", SearchPossessoriHandler)
	api.POST("/possessori", CreatePossessoreHandler)
	api.GET("/possessori/:id", GetPossessoreHandler)
	api.PUT("/possessori/:id", UpdatePossessoreHandler)
	api.DELETE("/possessori/:id", DeletePossessoreHandler)
	api.GET("/possessori/:id/partite", GetPossessorePartiteHandler)

	// Partite, links and immobili
	api.GET("/partite", SearchPartiteHandler)
	api.POST("/partite", CreatePartitaHandler)
	api.GET("/partite/:id", GetPartitaHandler)
	api.PUT("/partite/:id", UpdatePartitaHandler)
	api.POST("/partite/:id/chiusura", ClosePartitaHandler)
	api.POST("/partite/:id/possessori", AddPossessoreLinkHandler)
	api.PUT("/links/:id", UpdateLinkHandler)
	api.DELETE("/links/:id", RemoveLinkHandler)
	api.POST("/partite/:id/immobili", AddImmobileHandler)
	api.GET("/immobili/:id", GetImmobileHandler)
	api.PUT("/immobili/:id", UpdateImmobileHandler)
	api.DELETE("/immobili/:id", DeleteImmobileHandler)
	api.POST("/immobili/:id/sposta", MoveImmobileHandler)

	// Ledger
	api.GET("/partite/:id/variazioni", ListPartitaVariazioniHandler)
	api.GET("/partite/:id/genealogia", GetPartitaGenealogyHandler)
	api.GET("/variazioni/:id", GetVariazioneHandler)
	api.DELETE("/variazioni/:id", DeleteVariazioneHandler)

	// Documents and consultations
	api.POST("/documenti", CreateDocumentoHandler)
	api.GET("/documenti/:id", GetDocumentoHandler)
	api.DELETE("/documenti/:id", DeleteDocumentoHandler)
	api.GET("/partite/:id/documenti", ListPartitaDocumentiHandler)
	api.POST("/partite/:id/documenti", LinkDocumentoHandler)
	api.DELETE("/partite/:id/documenti/:documento_id", UnlinkDocumentoHandler)
	api.GET("/consultazioni", ListConsultazioniHandler)
	api.POST("/consultazioni", CreateConsultazioneHandler)

	// Catalogs, audit and import
	api.GET("/cataloghi/:category", GetCatalogOptionsHandler)
	api.GET("/audit", GetAuditLogsHandler)
	api.GET("/audit/:table/:id", GetRecordHistoryHandler)
	api.GET("/import/partite/template", GetImportTemplateHandler)

	// Workflows write many rows per request and are rate limited per actor
	limiter := middleware.NewWorkflowRateLimiter(cfg.WorkflowRateLimit)
	workflows := api.Group("/workflows", limiter.Middleware())
	{
		workflows.POST("/register", RegisterPropertyHandler)
		workflows.POST("/transfer", TransferOwnershipHandler)
		workflows.POST("/split", SplitHandler)
		workflows.POST("/duplicate", DuplicatePartitaHandler)
		workflows.POST("/transfer-immobile", TransferImmobileHandler)
	}
	api.POST("/comuni/:id/import/partite", ImportPartiteHandler, limiter.Middleware())

	return limiter
}
