package recorder

import (
	"context"
	"errors"

	"tracker/internal/survey/models"
	dErrors "tracker/pkg/domain-errors"
	"tracker/pkg/platform/sentinel"
)

// Get rebuilds the stored submission document for a survey. Every section is
// listed; only sections the worker took part in carry answers.
func (s *Service) Get(ctx context.Context, surveyID models.SurveyID) (*models.Submission, error) {
	if _, err := s.store.FindSurvey(ctx, surveyID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "survey not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load survey")
	}

	sections, err := s.store.ListSections(ctx, surveyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load survey sections")
	}
	answers, err := s.store.ListAnswers(ctx, surveyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load survey answers")
	}

	bySection := make(map[models.SectionID][]models.QuestionSubmission, len(sections))
	for _, a := range answers {
		bySection[a.SectionID] = append(bySection[a.SectionID], models.QuestionSubmission{
			QuestionID: a.QuestionID,
			Answer:     a.Value,
		})
	}

	doc := &models.Submission{SurveyID: surveyID, Categories: make([]models.CategorySubmission, 0, len(sections))}
	for _, sec := range sections {
		cat := models.CategorySubmission{
			CategoryID: sec.CategoryID,
			TookPart:   sec.TookPart,
			Questions:  []models.QuestionSubmission{},
		}
		if sec.TookPart {
			cat.Questions = append(cat.Questions, bySection[sec.ID]...)
		}
		doc.Categories = append(doc.Categories, cat)
	}
	return doc, nil
}
