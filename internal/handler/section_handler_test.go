package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

type sectionServiceMock struct {
	yearLevel int
}

func (m *sectionServiceMock) List(ctx context.Context, yearLevel int) ([]models.Section, error) {
	m.yearLevel = yearLevel
	return []models.Section{{ID: "1A", YearLevel: 1}}, nil
}

func (m *sectionServiceMock) Create(ctx context.Context, req dto.CreateSectionRequest) (*models.Section, error) {
	return &models.Section{ID: req.ID, YearLevel: req.YearLevel}, nil
}

type pingerStub struct{ err error }

func (p pingerStub) PingContext(context.Context) error { return p.err }

func TestSectionHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sectionServiceMock{}
	handler := &SectionHandler{service: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/sections?yearLevel=2", nil)
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mockSvc.yearLevel)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/sections?yearLevel=two", nil)
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSectionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SectionHandler{service: &sectionServiceMock{}}
	req := httptest.NewRequest(http.MethodPost, "/sections", bytes.NewBufferString(`{"id":"1C","yearLevel":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"1C"`)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, pingerStub{}).Ready(c)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, pingerStub{err: errors.New("connection refused")}).Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
