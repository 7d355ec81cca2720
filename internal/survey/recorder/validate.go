package recorder

import (
	"tracker/internal/survey/answertype"
	"tracker/internal/survey/membership"
	"tracker/internal/survey/models"
)

type validatedCategory struct {
	categoryID models.CategoryID
	tookPart   bool
	answers    []models.Answer
}

// accumulator collects per-answer failures across the whole submission.
type accumulator struct {
	items []models.ValidationItem
}

func (a *accumulator) add(item models.ValidationItem) {
	a.items = append(a.items, item)
}

func (a *accumulator) err() error {
	if len(a.items) == 0 {
		return nil
	}
	return &models.AnswerValidationError{Items: a.items}
}

// validateAnswers checks every answer of every category, including categories
// the worker did not take part in. Failing answers are accumulated; a question
// that cannot be compiled aborts at once.
func validateAnswers(scope *membership.Scope, sub *models.Submission) ([]validatedCategory, error) {
	rules := make(map[models.QuestionID]*answertype.Rule)
	acc := &accumulator{}
	out := make([]validatedCategory, 0, len(sub.Categories))

	for _, cat := range sub.Categories {
		vc := validatedCategory{categoryID: cat.CategoryID, tookPart: cat.TookPart}
		for _, qs := range cat.Questions {
			rule, ok := rules[qs.QuestionID]
			if !ok {
				var err error
				rule, err = answertype.Compile(scope.Questions[qs.QuestionID])
				if err != nil {
					return nil, err
				}
				rules[qs.QuestionID] = rule
			}
			value, item := rule.Validate(qs.Answer)
			if item != nil {
				acc.add(*item)
				continue
			}
			vc.answers = append(vc.answers, models.Answer{QuestionID: qs.QuestionID, Value: value})
		}
		out = append(out, vc)
	}

	if err := acc.err(); err != nil {
		return nil, err
	}
	return out, nil
}
