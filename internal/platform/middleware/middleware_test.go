package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/pkg/requestcontext"
	"tracker/pkg/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubValidator struct {
	claims *SurveyClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*SurveyClaims, error) {
	return v.claims, v.err
}

func TestRequireSurveyAccess(t *testing.T) {
	var seen requestcontext.Access
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestcontext.SurveyAccess(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing header", func(t *testing.T) {
		h := RequireSurveyAccess(stubValidator{}, discard)(next)
		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
		body := testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		assert.Equal(t, "Missing or invalid Authorization header", body.Description)
	})

	t.Run("invalid token", func(t *testing.T) {
		h := RequireSurveyAccess(stubValidator{err: errors.New("bad signature")}, discard)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := testutil.DoRequest(h, req)
		body := testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		assert.Equal(t, "Invalid or expired token", body.Description)
	})

	t.Run("valid token", func(t *testing.T) {
		h := RequireSurveyAccess(stubValidator{claims: &SurveyClaims{SurveyID: 3, UserID: 9}}, discard)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := testutil.DoRequest(h, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, requestcontext.Access{SurveyID: 3, UserID: 9}, seen)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := testutil.DoRequest(h, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))

	rr = testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, _ = r.Context().Deadline()
	}))
	testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set("Content-Type", "text/plain")
	rr := testutil.DoRequest(h, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnsupportedMediaType, "unsupported_media_type")

	req = httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	assert.Equal(t, http.StatusNoContent, testutil.DoRequest(h, req).Code)

	assert.Equal(t, http.StatusNoContent, testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

type recordingObserver struct {
	routes []string
}

func (o *recordingObserver) ObserveRequestLatency(route string, _ time.Duration) {
	o.routes = append(o.routes, route)
}

func TestLatencyMiddlewareUsesRoutePattern(t *testing.T) {
	observer := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(LatencyMiddleware(observer))
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {})

	testutil.DoRequest(r, httptest.NewRequest(http.MethodGet, "/things/7", nil))
	require.Len(t, observer.routes, 1)
	assert.Equal(t, "/things/{id}", observer.routes[0])
}

func TestRequestTime(t *testing.T) {
	var first, second time.Time
	h := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))
	testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	assert.Equal(t, first, second)
}
