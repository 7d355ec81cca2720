// Package membership checks that a submission only references categories
// and questions that belong to its survey.
package membership

import (
	"context"
	"fmt"
	"slices"

	"tracker/internal/survey/models"
)

type SectionLister interface {
	ListSections(ctx context.Context, surveyID models.SurveyID) ([]models.Section, error)
}

type QuestionFinder interface {
	FindQuestionsByCategories(ctx context.Context, categoryIDs []models.CategoryID) ([]models.Question, error)
}

// Scope is the authoritative structure of one survey.
type Scope struct {
	SurveyID          models.SurveyID
	SectionByCategory map[models.CategoryID]models.SectionID
	Questions         map[models.QuestionID]models.Question
}

// HasCategory reports whether the survey has a section for categoryID.
func (s *Scope) HasCategory(categoryID models.CategoryID) bool {
	_, ok := s.SectionByCategory[categoryID]
	return ok
}

type Validator struct {
	sections  SectionLister
	questions QuestionFinder
}

func New(sections SectionLister, questions QuestionFinder) *Validator {
	return &Validator{sections: sections, questions: questions}
}

// Load builds the survey's scope from the stores.
func (v *Validator) Load(ctx context.Context, surveyID models.SurveyID) (*Scope, error) {
	sections, err := v.sections.ListSections(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	scope := &Scope{
		SurveyID:          surveyID,
		SectionByCategory: make(map[models.CategoryID]models.SectionID, len(sections)),
		Questions:         make(map[models.QuestionID]models.Question),
	}
	categoryIDs := make([]models.CategoryID, 0, len(sections))
	for _, sec := range sections {
		scope.SectionByCategory[sec.CategoryID] = sec.ID
		categoryIDs = append(categoryIDs, sec.CategoryID)
	}
	if len(categoryIDs) == 0 {
		return scope, nil
	}
	slices.Sort(categoryIDs)

	questions, err := v.questions.FindQuestionsByCategories(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	for _, q := range questions {
		scope.Questions[q.ID] = q
	}
	return scope, nil
}

// Check returns an error wrapping models.ErrMalformedSubmission at the first
// category or question that does not belong to the scope.
func (s *Scope) Check(sub *models.Submission) error {
	for _, cat := range sub.Categories {
		if !s.HasCategory(cat.CategoryID) {
			return fmt.Errorf("%w: category %d is not part of survey %d",
				models.ErrMalformedSubmission, cat.CategoryID, s.SurveyID)
		}
		for _, qs := range cat.Questions {
			q, ok := s.Questions[qs.QuestionID]
			if !ok || q.CategoryID != cat.CategoryID {
				return fmt.Errorf("%w: question %d does not belong to category %d",
					models.ErrMalformedSubmission, qs.QuestionID, cat.CategoryID)
			}
		}
	}
	return nil
}

// Validate loads the scope for the submission's survey and checks the submission against it.
func (v *Validator) Validate(ctx context.Context, sub *models.Submission) (*Scope, error) {
	scope, err := v.Load(ctx, sub.SurveyID)
	if err != nil {
		return nil, err
	}
	if err := scope.Check(sub); err != nil {
		return nil, err
	}
	return scope, nil
}
