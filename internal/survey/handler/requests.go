package handler

import (
	"encoding/json"

	"tracker/internal/survey/models"
	dErrors "tracker/pkg/domain-errors"
)

// SubmitRequest is the PUT body. Its shape is the submission wire contract.
type SubmitRequest struct {
	SurveyID   models.SurveyID             `json:"surveyId"`
	Categories []models.CategorySubmission `json:"catSubmissions"`
}

// Validate checks the document shape before it reaches the recorder.
func (r *SubmitRequest) Validate() error {
	if r.SurveyID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "surveyId is required")
	}
	if r.Categories == nil {
		return dErrors.New(dErrors.CodeBadRequest, "catSubmissions is required")
	}
	for _, cat := range r.Categories {
		if cat.CategoryID <= 0 {
			return dErrors.New(dErrors.CodeBadRequest, "categoryId is required")
		}
		for _, q := range cat.Questions {
			if q.QuestionID <= 0 {
				return dErrors.New(dErrors.CodeBadRequest, "questionId is required")
			}
			if len(q.Answer) > 0 && !json.Valid(q.Answer) {
				return dErrors.New(dErrors.CodeBadRequest, "answer is not valid JSON")
			}
		}
	}
	return nil
}

func (r *SubmitRequest) Submission() *models.Submission {
	return &models.Submission{SurveyID: r.SurveyID, Categories: r.Categories}
}
