package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviary-labs/flightdesk/internal/model"
	"github.com/aviary-labs/flightdesk/internal/repository"
	"github.com/aviary-labs/flightdesk/internal/service"
)

type stubLessonOps struct {
	createInput  service.CreateLessonInput
	reviewAccept bool
	reviewMsg    string
	assignCFI    *string
	err          error
}

func (s *stubLessonOps) CreateRequest(_ context.Context, _ model.Actor, input service.CreateLessonInput) (*model.LessonRequest, *model.LessonTicket, error) {
	s.createInput = input
	if s.err != nil {
		return nil, nil, s.err
	}
	return &model.LessonRequest{ID: "req-1", Status: model.LessonStatusPending},
		&model.LessonTicket{ID: "tk-1", LessonRequestID: "req-1"}, nil
}

func (s *stubLessonOps) GetRequest(_ context.Context, _ model.Actor, requestID string) (*model.LessonRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.LessonRequest{ID: requestID}, nil
}

func (s *stubLessonOps) ListStudentRequests(_ context.Context, _ model.Actor, _ string) ([]*model.LessonRequest, error) {
	return []*model.LessonRequest{{ID: "req-1"}}, s.err
}

func (s *stubLessonOps) ReviewModification(_ context.Context, _ model.Actor, _ string, accept bool, studentMessage string) error {
	s.reviewAccept = accept
	s.reviewMsg = studentMessage
	return s.err
}

func (s *stubLessonOps) AssignResources(_ context.Context, _ model.Actor, _ string, cfiID, _ *string) error {
	s.assignCFI = cfiID
	return s.err
}

func newLessonContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("actor", model.Actor{UserID: "stu-1", Role: model.RoleStudent})
	return c, rec
}

func TestLessonCreate(t *testing.T) {
	ops := &stubLessonOps{}
	h := NewLessonHandler(ops)

	body := `{"cfi_id":"cfi-1","aircraft_id":"ac-1","date":"2024-06-01","start_time":"10:00","end_time":"11:00","message":"hi"}`
	c, rec := newLessonContext(t, http.MethodPost, "/v1/lessons", body)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "cfi-1", ops.createInput.CFIID)
	assert.Contains(t, rec.Body.String(), `"req-1"`)
	assert.Contains(t, rec.Body.String(), `"tk-1"`)
}

func TestLessonCreateMissingFields(t *testing.T) {
	h := NewLessonHandler(&stubLessonOps{})
	c, _ := newLessonContext(t, http.MethodPost, "/v1/lessons", `{"cfi_id":"cfi-1"}`)

	err := h.Create(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestLessonCreateServiceError(t *testing.T) {
	ops := &stubLessonOps{err: service.ErrForbidden}
	h := NewLessonHandler(ops)

	body := `{"cfi_id":"cfi-1","aircraft_id":"ac-1","date":"2024-06-01","start_time":"10:00","end_time":"11:00"}`
	c, rec := newLessonContext(t, http.MethodPost, "/v1/lessons", body)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLessonGetNotFound(t *testing.T) {
	ops := &stubLessonOps{err: repository.ErrNotFound}
	h := NewLessonHandler(ops)

	c, rec := newLessonContext(t, http.MethodGet, "/v1/lessons/req-9", "")
	c.SetParamNames("id")
	c.SetParamValues("req-9")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLessonReview(t *testing.T) {
	ops := &stubLessonOps{}
	h := NewLessonHandler(ops)

	c, rec := newLessonContext(t, http.MethodPost, "/v1/lessons/req-1/review",
		`{"decision":"deny","message":"conflict"}`)
	c.SetParamNames("id")
	c.SetParamValues("req-1")

	require.NoError(t, h.Review(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ops.reviewAccept)
	assert.Equal(t, "conflict", ops.reviewMsg)
}

func TestLessonReviewBadDecision(t *testing.T) {
	h := NewLessonHandler(&stubLessonOps{})

	c, _ := newLessonContext(t, http.MethodPost, "/v1/lessons/req-1/review", `{"decision":"maybe"}`)
	c.SetParamNames("id")
	c.SetParamValues("req-1")

	err := h.Review(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestLessonAssignConflict(t *testing.T) {
	ops := &stubLessonOps{err: repository.ErrSlotUnavailable}
	h := NewLessonHandler(ops)

	c, rec := newLessonContext(t, http.MethodPost, "/v1/admin/lessons/req-1/assign",
		`{"aircraft_id":"ac-2"}`)
	c.SetParamNames("id")
	c.SetParamValues("req-1")

	require.NoError(t, h.Assign(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
