package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tracker/internal/platform/middleware"
	"tracker/internal/survey/handler/mocks"
	"tracker/internal/survey/models"
	dErrors "tracker/pkg/domain-errors"
	"tracker/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/survey-mocks.go -package=mocks Service

// tokenValidator accepts "survey-<id>" tokens.
type tokenValidator struct{}

func (tokenValidator) ValidateToken(token string) (*middleware.SurveyClaims, error) {
	id, ok := strings.CutPrefix(token, "survey-")
	if !ok {
		return nil, errors.New("bad token")
	}
	surveyID, err := models.ParseSurveyID(id)
	if err != nil {
		return nil, err
	}
	return &middleware.SurveyClaims{SurveyID: int64(surveyID), UserID: 1}, nil
}

type SurveyHandlerSuite struct {
	suite.Suite
	router  chi.Router
	service *mocks.MockService
}

func TestSurveyHandlerSuite(t *testing.T) {
	suite.Run(t, new(SurveyHandlerSuite))
}

func (s *SurveyHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.service, logger, nil, tokenValidator{}, 0)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *SurveyHandlerSuite) put(path, token, body string) *http.Request {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPut, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (s *SurveyHandlerSuite) get(path, token string) *http.Request {
	req := testutil.NewRequestWithBody(s.T(), http.MethodGet, path, "")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

const validBody = `{
	"surveyId": 3,
	"catSubmissions": [
		{"categoryId": 4, "tookPart": true, "qstnSubmissions": [{"questionId": 3, "answer": "12"}]},
		{"categoryId": 5, "tookPart": false, "qstnSubmissions": []}
	]
}`

func (s *SurveyHandlerSuite) TestSubmit() {
	s.Run("accepted submission returns the receipt", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, sub *models.Submission) (*models.Receipt, error) {
				s.Equal(models.SurveyID(3), sub.SurveyID)
				s.Require().Len(sub.Categories, 2)
				s.True(sub.Categories[0].TookPart)
				s.JSONEq(`"12"`, string(sub.Categories[0].Questions[0].Answer))
				return &models.Receipt{SurveyID: 3, Status: "submitted", AnswersWritten: 1, SectionsCleared: 1}, nil
			})

		rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/3", "survey-3", validBody))

		s.Equal(http.StatusOK, rr.Code)
		receipt := testutil.UnmarshalResponse[models.Receipt](s.T(), rr)
		s.Equal("submitted", receipt.Status)
		s.Equal(1, receipt.AnswersWritten)
		s.NotEmpty(rr.Header().Get(middleware.RequestIDHeader))
	})

	s.Run("path id differs from token", func() {
		rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/3", "survey-4", validBody))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("body id differs from path", func() {
		body := strings.Replace(validBody, `"surveyId": 3`, `"surveyId": 9`, 1)
		rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/3", "survey-3", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("malformed json", func() {
		rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/3", "survey-3", `{"surveyId": 3, "catSubmissions": [`))
		body := testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
		s.Equal("Invalid JSON request structure", body.Description)
	})

	s.Run("missing categories", func() {
		rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/3", "survey-3", `{"surveyId": 3}`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("non numeric path id", func() {
		rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/abc", "survey-3", validBody))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing token", func() {
		rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/3", "", validBody))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *SurveyHandlerSuite) TestSubmitErrorMapping() {
	invalid := &models.AnswerValidationError{Items: []models.ValidationItem{
		{CategoryID: 4, QuestionID: 3, ValidationName: "number", Message: "Value is not a number"},
		{CategoryID: 5, QuestionID: 5, ValidationName: "select", Message: "Value is not a valid option for this question"},
	}}

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"structural", dErrors.Wrap(models.ErrMalformedSubmission, dErrors.CodeBadRequest, "Invalid JSON request structure"), http.StatusBadRequest, "bad_request"},
		{"closed survey", dErrors.Wrap(models.ErrSurveyClosed, dErrors.CodeConflict, "survey is not open for submission"), http.StatusConflict, "conflict"},
		{"config defect", dErrors.Wrap(models.ErrQuestionMisconfigured, dErrors.CodeInternal, "survey question configuration is invalid"), http.StatusInternalServerError, "internal_error"},
		{"persistence", dErrors.Wrap(errors.New("connection reset"), dErrors.CodeInternal, "failed to save survey submission"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, tc.err)
			rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/3", "survey-3", validBody))
			body := testutil.AssertStatusAndError(s.T(), rr, tc.status, tc.code)
			if tc.status == http.StatusInternalServerError {
				s.Empty(body.Description)
				s.NotContains(rr.Body.String(), "connection reset")
			}
		})
	}

	s.Run("per-answer failures list every item", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(invalid, dErrors.CodeValidation, invalid.Error()))

		rr := testutil.DoRequest(s.router, s.put("/api/surveysubmissions/3", "survey-3", validBody))

		body := testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "validation_error")
		s.Require().Len(body.Errors, 2)
		var first models.ValidationItem
		s.Require().NoError(json.Unmarshal(body.Errors[0], &first))
		s.Equal(invalid.Items[0], first)
	})
}

func (s *SurveyHandlerSuite) TestGet() {
	s.Run("returns the stored document", func() {
		s.service.EXPECT().Get(gomock.Any(), models.SurveyID(3)).Return(&models.Submission{
			SurveyID: 3,
			Categories: []models.CategorySubmission{{
				CategoryID: 4,
				TookPart:   true,
				Questions:  []models.QuestionSubmission{{QuestionID: 3, Answer: json.RawMessage(`12`)}},
			}},
		}, nil)

		rr := testutil.DoRequest(s.router, s.get("/api/surveysubmissions/3", "survey-3"))

		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"surveyId":3,"catSubmissions":[{"categoryId":4,"tookPart":true,"qstnSubmissions":[{"questionId":3,"answer":12}]}]}`, rr.Body.String())
	})

	s.Run("other survey is forbidden", func() {
		rr := testutil.DoRequest(s.router, s.get("/api/surveysubmissions/3", "survey-8"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("unknown survey", func() {
		s.service.EXPECT().Get(gomock.Any(), models.SurveyID(3)).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "survey not found"))
		rr := testutil.DoRequest(s.router, s.get("/api/surveysubmissions/3", "survey-3"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *SurveyHandlerSuite) TestMissingAccessContext() {
	h := New(s.service, slog.New(slog.DiscardHandler), nil, tokenValidator{}, 0)
	rr := testutil.DoRequest(http.HandlerFunc(h.handleGet), s.get("/api/surveysubmissions/3", "survey-3"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
}

func (s *SurveyHandlerSuite) TestRequestTimeoutComesFromConfig() {
	for _, tc := range []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"configured", 250 * time.Millisecond, 250 * time.Millisecond},
		{"unset", 0, defaultRequestTimeout},
	} {
		s.Run(tc.name, func() {
			h := New(s.service, slog.New(slog.DiscardHandler), nil, tokenValidator{}, tc.timeout)
			router := chi.NewRouter()
			h.Register(router)

			var remaining time.Duration
			s.service.EXPECT().Get(gomock.Any(), models.SurveyID(3)).
				DoAndReturn(func(ctx context.Context, _ models.SurveyID) (*models.Submission, error) {
					deadline, ok := ctx.Deadline()
					s.Require().True(ok)
					remaining = time.Until(deadline)
					return &models.Submission{SurveyID: 3}, nil
				})

			rr := testutil.DoRequest(router, s.get("/api/surveysubmissions/3", "survey-3"))
			s.Equal(http.StatusOK, rr.Code)
			s.LessOrEqual(remaining, tc.want)
			s.Greater(remaining, tc.want-200*time.Millisecond)
		})
	}
}
