package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tracker/internal/platform/middleware"
	"tracker/internal/survey/metrics"
	"tracker/internal/survey/models"
	dErrors "tracker/pkg/domain-errors"
	"tracker/pkg/platform/httputil"
	"tracker/pkg/requestcontext"
)

// Service defines the interface for survey submission operations.
type Service interface {
	Submit(ctx context.Context, sub *models.Submission) (*models.Receipt, error)
	Get(ctx context.Context, surveyID models.SurveyID) (*models.Submission, error)
}

const defaultRequestTimeout = 30 * time.Second

// Handler serves the survey submission endpoints.
type Handler struct {
	logger         *slog.Logger
	service        Service
	metrics        *metrics.Metrics
	validator      middleware.SurveyAccessValidator
	requestTimeout time.Duration
}

// New creates a new survey submission Handler. A non-positive requestTimeout
// falls back to 30s.
func New(
	service Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	validator middleware.SurveyAccessValidator,
	requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Handler{
		logger:         logger,
		service:        service,
		metrics:        metrics,
		validator:      validator,
		requestTimeout: requestTimeout,
	}
}

// Register registers the submission routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	surveyRouter := chi.NewRouter()
	surveyRouter.Use(middleware.Recovery(h.logger))
	surveyRouter.Use(middleware.RequestID)
	surveyRouter.Use(middleware.RequestTime)
	surveyRouter.Use(middleware.Logger(h.logger))
	surveyRouter.Use(middleware.Timeout(h.requestTimeout))
	surveyRouter.Use(middleware.ContentTypeJSON)
	surveyRouter.Use(middleware.LatencyMiddleware(h.metrics))
	surveyRouter.Use(middleware.RequireSurveyAccess(h.validator, h.logger))
	surveyRouter.Put("/api/surveysubmissions/{id}", h.handleSubmit)
	surveyRouter.Get("/api/surveysubmissions/{id}", h.handleGet)

	r.Mount("/", surveyRouter)
}

// handleSubmit validates and stores a survey submission.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	surveyID, access, ok := h.surveyAccess(w, r)
	if !ok {
		return
	}
	if int64(surveyID) != access.SurveyID {
		h.logger.WarnContext(ctx, "survey id does not match token",
			"request_id", requestID,
			"survey_id", surveyID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "survey id does not match access token"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.SurveyID != surveyID {
		h.logger.WarnContext(ctx, "body survey id does not match path",
			"request_id", requestID,
			"survey_id", surveyID,
			"body_survey_id", req.SurveyID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "survey id does not match request body"))
		return
	}

	receipt, err := h.service.Submit(ctx, req.Submission())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// handleGet returns the stored submission document of a survey.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	surveyID, access, ok := h.surveyAccess(w, r)
	if !ok {
		return
	}
	if int64(surveyID) != access.SurveyID {
		h.logger.WarnContext(ctx, "survey read outside token scope",
			"request_id", requestcontext.RequestID(ctx),
			"survey_id", surveyID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "access token does not grant this survey"))
		return
	}

	doc, err := h.service.Get(ctx, surveyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) surveyAccess(w http.ResponseWriter, r *http.Request) (models.SurveyID, requestcontext.Access, bool) {
	ctx := r.Context()
	access, ok := requestcontext.SurveyAccess(ctx)
	if !ok {
		// RequireSurveyAccess populates this; reaching here means the router is miswired.
		h.logger.ErrorContext(ctx, "survey access missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return 0, access, false
	}
	surveyID, err := models.ParseSurveyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, access, false
	}
	return surveyID, access, true
}
