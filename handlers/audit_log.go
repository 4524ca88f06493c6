package handlers

import (
	"net/http"
	"time"

	"catasto_app_go/db"
	"catasto_app_go/models"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
)

// GetAuditLogsHandler returns filtered and paginated audit logs
// GET /api/audit?table=partite&record_id=3&operation=UPDATE&user_id=u&session_id=s&date_from=2026-01-01&date_to=2026-01-31
func GetAuditLogsHandler(c echo.Context) error {
	filters := services.AuditLogFilters{
		Table:     c.QueryParam("table"),
		RecordID:  c.QueryParam("record_id"),
		Operation: c.QueryParam("operation"),
		UserID:    c.QueryParam("user_id"),
		SessionID: c.QueryParam("session_id"),
	}

	from, err := parseOptionalDateField("date_from", c.QueryParam("date_from"))
	if err != nil {
		return err
	}
	if from != nil {
		filters.DateFrom = *from
	}
	to, err := parseOptionalDateField("date_to", c.QueryParam("date_to"))
	if err != nil {
		return err
	}
	if to != nil {
		filters.DateTo = to.Add(24*time.Hour - time.Second) // End of day
	}

	page, pageSize := pagination(c)
	logs, total, err := services.SearchAuditLogs(db.DB, filters, page, pageSize)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, newPage(logs, total, page, pageSize))
}

type recordHistoryEntry struct {
	models.AuditLog
	Changes []models.FieldChange `json:"changes"`
}

// GetRecordHistoryHandler returns the audit history of one record, newest first,
// with the columns each entry changed
// GET /api/audit/:table/:id
func GetRecordHistoryHandler(c echo.Context) error {
	logs, err := services.GetRecordAuditHistory(db.DB, c.Param("table"), c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	history := make([]recordHistoryEntry, len(logs))
	for i := range logs {
		history[i] = recordHistoryEntry{AuditLog: logs[i], Changes: logs[i].Diff()}
	}
	return c.JSON(http.StatusOK, history)
}
