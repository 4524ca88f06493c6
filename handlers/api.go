package handlers

import (
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catasto_app_go/config"
	"catasto_app_go/logger"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// textPolicy strips every tag from free-text input
var textPolicy = bluemonday.StrictPolicy()

// cleanText sanitizes a free-text field. StrictPolicy escapes entities, which
// are decoded back so "Rossi & figli" is stored verbatim.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := cleanText(*s)
	if v == "" {
		return nil
	}
	return &v
}

// serviceError maps a service error onto the HTTP status of its kind
func serviceError(c echo.Context, err error) error {
	kind := services.ErrorKind(err)
	status := http.StatusInternalServerError
	switch kind {
	case "not_found":
		status = http.StatusNotFound
	case "unique_constraint", "invalid_state", "dependency":
		status = http.StatusConflict
	case "validation":
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return echo.NewHTTPError(status, map[string]string{"error": "internal", "message": "internal server error"})
	}
	return echo.NewHTTPError(status, map[string]string{"error": kind, "message": err.Error()})
}

// badRequest reports malformed input
func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, map[string]string{"error": "bad_request", "message": message})
}

// bindJSON decodes the request body into dst
func bindJSON(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// paramID parses a positive numeric path parameter
func paramID(c echo.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(n), nil
}

// queryUint parses an optional numeric query parameter; absent means 0
func queryUint(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid " + name)
	}
	return uint(n), nil
}

// queryBool parses an optional boolean query parameter
func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("invalid " + name)
	}
	return &b, nil
}

// pagination reads page and page_size; the services clamp them
func pagination(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	return page, pageSize
}

// parseDateField parses a required date field of a request body
func parseDateField(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]string{"error": "validation", "message": name + " is required"})
	}
	t, err := services.ParseDate(value)
	if err != nil {
		return time.Time{}, badRequest(name + ": " + err.Error())
	}
	return t, nil
}

// parseOptionalDateField parses an optional date field of a request body
func parseOptionalDateField(name, value string) (*time.Time, error) {
	t, err := services.ParseOptionalDate(value)
	if err != nil {
		return nil, badRequest(name + ": " + err.Error())
	}
	return t, nil
}

// pageResponse wraps a page of results
type pageResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func newPage(items interface{}, total int64, page, pageSize int) pageResponse {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return pageResponse{Items: items, Total: total, Page: page, PageSize: pageSize}
}

// getConfig returns the config installed on the context by the server
func getConfig(c echo.Context) *config.Config {
	if cfg, ok := c.Get("config").(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}
