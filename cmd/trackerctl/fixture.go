package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"tracker/internal/survey/models"
)

//go:embed fixtures/seed.yaml
var defaultFixture []byte

// fixture is the YAML seed document.
type fixture struct {
	Categories []struct {
		ID          int64  `yaml:"id"`
		Order       int    `yaml:"order"`
		Description string `yaml:"description"`
	} `yaml:"categories"`
	Questions []struct {
		ID          int64  `yaml:"id"`
		Category    int64  `yaml:"category"`
		Order       int    `yaml:"order"`
		Type        string `yaml:"type"`
		Prompt      string `yaml:"prompt"`
		Validations string `yaml:"validations"`
		Options     []any  `yaml:"options"`
	} `yaml:"questions"`
	Surveys []struct {
		ID         int64   `yaml:"id"`
		User       int64   `yaml:"user"`
		Date       string  `yaml:"date"`
		Status     string  `yaml:"status"`
		Categories []int64 `yaml:"categories"`
	} `yaml:"surveys"`
}

type seedStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	CreateQuestion(ctx context.Context, q *models.Question) error
	CreateSurvey(ctx context.Context, survey *models.Survey) error
	CreateSection(ctx context.Context, surveyID models.SurveyID, categoryID models.CategoryID) (models.SectionID, error)
}

type seedSummary struct {
	Categories, Questions, Surveys, Sections int
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// apply writes the fixture. Callers run it inside one transaction.
func (f *fixture) apply(ctx context.Context, st seedStore) (seedSummary, error) {
	var sum seedSummary
	for _, c := range f.Categories {
		if err := st.CreateCategory(ctx, &models.Category{
			ID:           models.CategoryID(c.ID),
			Description:  c.Description,
			DisplayOrder: c.Order,
		}); err != nil {
			return sum, fmt.Errorf("category %d: %w", c.ID, err)
		}
		sum.Categories++
	}

	for _, q := range f.Questions {
		var options json.RawMessage
		if q.Options != nil {
			raw, err := json.Marshal(q.Options)
			if err != nil {
				return sum, fmt.Errorf("question %d options: %w", q.ID, err)
			}
			options = raw
		}
		if err := st.CreateQuestion(ctx, &models.Question{
			ID:           models.QuestionID(q.ID),
			CategoryID:   models.CategoryID(q.Category),
			DisplayOrder: q.Order,
			AnswerType:   q.Type,
			Prompt:       q.Prompt,
			Options:      options,
			Validations:  q.Validations,
		}); err != nil {
			return sum, fmt.Errorf("question %d: %w", q.ID, err)
		}
		sum.Questions++
	}

	for _, s := range f.Surveys {
		status, err := models.ParseStatus(s.Status)
		if err != nil {
			return sum, fmt.Errorf("survey %d: %w", s.ID, err)
		}
		date, err := time.Parse(time.DateOnly, s.Date)
		if err != nil {
			return sum, fmt.Errorf("survey %d date: %w", s.ID, err)
		}
		survey := &models.Survey{
			ID:         models.SurveyID(s.ID),
			UserID:     models.UserID(s.User),
			SurveyDate: date,
			Status:     status,
		}
		if err := st.CreateSurvey(ctx, survey); err != nil {
			return sum, fmt.Errorf("survey %d: %w", s.ID, err)
		}
		sum.Surveys++
		for _, c := range s.Categories {
			if _, err := st.CreateSection(ctx, survey.ID, models.CategoryID(c)); err != nil {
				return sum, fmt.Errorf("survey %d section for category %d: %w", s.ID, c, err)
			}
			sum.Sections++
		}
	}
	return sum, nil
}
