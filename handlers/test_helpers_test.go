package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"catasto_app_go/config"
	"catasto_app_go/db"
	"catasto_app_go/middleware"
	"catasto_app_go/models"
	"catasto_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		WorkflowRateLimit: 100,
		ImportMaxRows:     50,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(models.All()...))
	require.NoError(t, services.SeedDefaultCatalogs(testDB))

	// Set global DB
	db.DB = testDB
	t.Cleanup(func() {
		if sqlDB, err := testDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return testDB
}

// seedAlbenga creates comune 1 with possessori 5 and 7
func seedAlbenga(t *testing.T, database *gorm.DB) {
	t.Helper()
	require.NoError(t, database.Create(&models.Comune{ID: 1, Nome: "Albenga", Provincia: "Savona", Regione: "Liguria"}).Error)
	require.NoError(t, database.Create(&models.Possessore{ID: 5, ComuneRiferimentoID: 1, NomeCompleto: "Rossi Mario fu Giovanni", Attivo: true}).Error)
	require.NoError(t, database.Create(&models.Possessore{ID: 7, ComuneRiferimentoID: 1, NomeCompleto: "Bianchi Giulia", Attivo: true}).Error)
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", testConfig())

	return e, c, rec
}

// newTestServer wires the full middleware chain and routes
func newTestServer(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})
	e.Use(middleware.ActorContext())
	limiter := RegisterRoutes(e, cfg)
	t.Cleanup(limiter.Stop)
	return e
}

// doJSON sends body as JSON through e and returns the recorded response
func doJSON(t *testing.T, e *echo.Echo, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

// httpErrorOf unwraps the error a handler returned when called directly
func httpErrorOf(t *testing.T, err error) (int, map[string]string) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T: %v", err, err)
	body, _ := he.Message.(map[string]string)
	return he.Code, body
}
