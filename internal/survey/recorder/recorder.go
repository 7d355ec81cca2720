// Package recorder validates survey submissions and persists accepted ones
// in a single transaction together with the survey's status change.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tracker/internal/audit"
	"tracker/internal/survey/membership"
	"tracker/internal/survey/metrics"
	"tracker/internal/survey/models"
	dErrors "tracker/pkg/domain-errors"
	"tracker/pkg/platform/sentinel"
	"tracker/pkg/requestcontext"
)

// Store is the persistence surface of the recorder. Writes run inside
// Transactor.RunInTx and pick the transaction up from ctx.
type Store interface {
	ListSections(ctx context.Context, surveyID models.SurveyID) ([]models.Section, error)
	FindQuestionsByCategories(ctx context.Context, categoryIDs []models.CategoryID) ([]models.Question, error)
	FindSurvey(ctx context.Context, id models.SurveyID) (*models.Survey, error)
	LockSurvey(ctx context.Context, id models.SurveyID) (*models.Survey, error)
	ListAnswers(ctx context.Context, surveyID models.SurveyID) ([]models.Answer, error)
	UpsertSection(ctx context.Context, surveyID models.SurveyID, categoryID models.CategoryID, tookPart bool) (models.SectionID, error)
	UpsertAnswer(ctx context.Context, a models.Answer) error
	DeleteAnswersForSection(ctx context.Context, surveyID models.SurveyID, sectionID models.SectionID) (int64, error)
	SetStatus(ctx context.Context, id models.SurveyID, status models.Status, submitDate *time.Time) error
}

// Transactor runs fn as one unit of work, rolling back when fn fails.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker serializes submissions for one survey.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates survey submissions.
type Service struct {
	store          Store
	tx             Transactor
	membership     *membership.Validator
	locker         Locker
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLocker(l Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(store Store, tx Transactor, opts ...Option) *Service {
	s := &Service{
		store:      store,
		tx:         tx,
		membership: membership.New(store, store),
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("tracker/survey/recorder"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates sub and, when every answer is acceptable, stores it and
// marks the survey submitted. Nothing is written on any failure.
func (s *Service) Submit(ctx context.Context, sub *models.Submission) (*models.Receipt, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSubmitLatency(time.Since(start)) }()

	ctx, span := s.tracer.Start(ctx, "recorder.Submit", trace.WithAttributes(
		attribute.Int64("survey.id", int64(sub.SurveyID)),
		attribute.Int("survey.categories", len(sub.Categories)),
	))
	defer span.End()

	receipt, err := s.submit(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.Message(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("survey.answers_written", receipt.AnswersWritten))
	s.metrics.IncrementOutcome(metrics.OutcomeAccepted)
	return receipt, nil
}

func (s *Service) submit(ctx context.Context, sub *models.Submission) (*models.Receipt, error) {
	requestID := requestcontext.RequestID(ctx)

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "survey:"+strconv.FormatInt(int64(sub.SurveyID), 10))
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to acquire survey lock",
				"request_id", requestID,
				"survey_id", sub.SurveyID,
				"error", err,
			)
			s.metrics.IncrementOutcome(metrics.OutcomeFailed)
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentinel.ErrLockHeld) {
				return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "survey is being submitted by another request")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save survey submission")
		}
		defer unlock()
	}

	scope, err := s.membership.Validate(ctx, sub)
	if err != nil {
		return nil, s.rejectLoad(ctx, sub, err)
	}

	validated, err := validateAnswers(scope, sub)
	if err != nil {
		var invalid *models.AnswerValidationError
		if errors.As(err, &invalid) {
			s.logger.InfoContext(ctx, "survey submission rejected",
				"request_id", requestID,
				"survey_id", sub.SurveyID,
				"failures", len(invalid.Items),
			)
			s.metrics.IncrementOutcome(metrics.OutcomeInvalid)
			for _, item := range invalid.Items {
				s.metrics.IncrementAnswerFailure(item.ValidationName)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, invalid.Error())
		}
		s.logger.ErrorContext(ctx, "question definition is invalid",
			"request_id", requestID,
			"survey_id", sub.SurveyID,
			"defect", err.Error(),
		)
		s.metrics.IncrementOutcome(metrics.OutcomeMisconfigured)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "survey question configuration is invalid")
	}

	receipt, err := s.persist(ctx, sub.SurveyID, validated)
	if err != nil {
		return nil, s.rejectPersist(ctx, sub, err)
	}

	s.logger.InfoContext(ctx, "survey submitted",
		"request_id", requestID,
		"survey_id", sub.SurveyID,
		"answers_written", receipt.AnswersWritten,
		"sections_cleared", receipt.SectionsCleared,
	)
	return receipt, nil
}

func (s *Service) persist(ctx context.Context, surveyID models.SurveyID, categories []validatedCategory) (*models.Receipt, error) {
	receipt := &models.Receipt{SurveyID: surveyID}
	now := requestcontext.Now(ctx).UTC()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		survey, err := s.store.LockSurvey(ctx, surveyID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("%w: survey %d no longer exists", models.ErrMalformedSubmission, surveyID)
			}
			return fmt.Errorf("lock survey: %w", err)
		}
		next, err := survey.Status.Apply(ctx, models.EventSubmit)
		if err != nil {
			return err
		}

		for _, cat := range categories {
			sectionID, err := s.store.UpsertSection(ctx, surveyID, cat.categoryID, cat.tookPart)
			if err != nil {
				return fmt.Errorf("upsert section for category %d: %w", cat.categoryID, err)
			}
			if !cat.tookPart {
				if _, err := s.store.DeleteAnswersForSection(ctx, surveyID, sectionID); err != nil {
					return fmt.Errorf("clear answers for category %d: %w", cat.categoryID, err)
				}
				receipt.SectionsCleared++
				continue
			}
			for _, a := range cat.answers {
				a.SurveyID = surveyID
				a.SectionID = sectionID
				if err := s.store.UpsertAnswer(ctx, a); err != nil {
					return fmt.Errorf("upsert answer for question %d: %w", a.QuestionID, err)
				}
				receipt.AnswersWritten++
			}
		}

		if err := s.store.SetStatus(ctx, surveyID, next, &now); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("%w: survey %d no longer exists", models.ErrMalformedSubmission, surveyID)
			}
			return fmt.Errorf("set survey status: %w", err)
		}
		receipt.Status = next.String()
		receipt.SubmittedAt = now

		if s.auditPublisher != nil {
			if err := s.auditPublisher.Emit(ctx, audit.Event{
				Type:            audit.EventSurveySubmitted,
				Timestamp:       now,
				SurveyID:        int64(surveyID),
				UserID:          int64(survey.UserID),
				RequestID:       requestcontext.RequestID(ctx),
				Status:          next.String(),
				AnswersWritten:  receipt.AnswersWritten,
				SectionsCleared: receipt.SectionsCleared,
			}); err != nil {
				return fmt.Errorf("append audit event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *Service) rejectLoad(ctx context.Context, sub *models.Submission, err error) error {
	requestID := requestcontext.RequestID(ctx)
	if errors.Is(err, models.ErrMalformedSubmission) {
		s.logger.WarnContext(ctx, "malformed survey submission",
			"request_id", requestID,
			"survey_id", sub.SurveyID,
			"reason", err.Error(),
		)
		s.metrics.IncrementOutcome(metrics.OutcomeMalformed)
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON request structure")
	}
	s.logger.ErrorContext(ctx, "failed to load survey structure",
		"request_id", requestID,
		"survey_id", sub.SurveyID,
		"error", err,
	)
	s.metrics.IncrementOutcome(metrics.OutcomeFailed)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load survey")
}

func (s *Service) rejectPersist(ctx context.Context, sub *models.Submission, err error) error {
	requestID := requestcontext.RequestID(ctx)
	switch {
	case errors.Is(err, models.ErrMalformedSubmission):
		s.logger.WarnContext(ctx, "survey vanished during submission",
			"request_id", requestID,
			"survey_id", sub.SurveyID,
		)
		s.metrics.IncrementOutcome(metrics.OutcomeMalformed)
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON request structure")
	case errors.Is(err, models.ErrSurveyClosed):
		s.logger.WarnContext(ctx, "survey not open for submission",
			"request_id", requestID,
			"survey_id", sub.SurveyID,
			"reason", err.Error(),
		)
		s.metrics.IncrementOutcome(metrics.OutcomeClosed)
		return dErrors.Wrap(err, dErrors.CodeConflict, "survey is not open for submission")
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		s.metrics.IncrementOutcome(metrics.OutcomeFailed)
		return err
	}
	s.logger.ErrorContext(ctx, "failed to save survey submission",
		"request_id", requestID,
		"survey_id", sub.SurveyID,
		"error", err,
	)
	s.metrics.IncrementOutcome(metrics.OutcomeFailed)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save survey submission")
}
