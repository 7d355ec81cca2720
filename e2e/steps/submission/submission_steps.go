package submission

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	IssueToken(surveyID, userID int64) error
	ClearToken()
	PUTRaw(path, body string) error
	GET(path string) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers survey submission step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &submissionSteps{tc: tc}

	ctx.Step(`^I hold a token for survey (\d+) as user (\d+)$`, steps.holdToken)
	ctx.Step(`^I hold no token$`, steps.holdNoToken)
	ctx.Step(`^I submit survey (\d+) with body:$`, steps.submitWithBody)
	ctx.Step(`^I fetch survey (\d+)$`, steps.fetchSurvey)
	ctx.Step(`^the response should report (\d+) answer errors?$`, steps.responseShouldReportErrors)
	ctx.Step(`^the fetched answer to question (\d+) should be (.+)$`, steps.fetchedAnswerShouldBe)
	ctx.Step(`^answer error (\d+) should name question (\d+) and validation "([^"]*)"$`, steps.answerErrorShouldName)
}

type submissionSteps struct {
	tc TestContext
}

func surveyPath(id int64) string {
	return fmt.Sprintf("/api/surveysubmissions/%d", id)
}

func (s *submissionSteps) holdToken(ctx context.Context, surveyID, userID int64) error {
	return s.tc.IssueToken(surveyID, userID)
}

func (s *submissionSteps) holdNoToken(ctx context.Context) error {
	s.tc.ClearToken()
	return nil
}

func (s *submissionSteps) submitWithBody(ctx context.Context, surveyID int64, body *godog.DocString) error {
	return s.tc.PUTRaw(surveyPath(surveyID), body.Content)
}

func (s *submissionSteps) fetchSurvey(ctx context.Context, surveyID int64) error {
	return s.tc.GET(surveyPath(surveyID))
}

func (s *submissionSteps) answerErrors() ([]map[string]any, error) {
	raw, err := s.tc.GetResponseField("errors")
	if err != nil {
		return nil, err
	}
	// round-trip through JSON to get typed items
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var items []map[string]any
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *submissionSteps) responseShouldReportErrors(ctx context.Context, count int) error {
	items, err := s.answerErrors()
	if err != nil {
		return err
	}
	if len(items) != count {
		return fmt.Errorf("expected %d answer errors, got %d: %v", count, len(items), items)
	}
	return nil
}

func (s *submissionSteps) answerErrorShouldName(ctx context.Context, index int, questionID int64, validation string) error {
	items, err := s.answerErrors()
	if err != nil {
		return err
	}
	if index < 1 || index > len(items) {
		return fmt.Errorf("answer error %d out of range (have %d)", index, len(items))
	}
	item := items[index-1]
	if got := fmt.Sprint(item["questionId"]); got != fmt.Sprint(questionID) {
		return fmt.Errorf("answer error %d: expected question %d, got %s", index, questionID, got)
	}
	if got := fmt.Sprint(item["validationName"]); got != validation {
		return fmt.Errorf("answer error %d: expected validation %q, got %q", index, validation, got)
	}
	return nil
}

func (s *submissionSteps) fetchedAnswerShouldBe(ctx context.Context, questionID int64, want string) error {
	raw, err := s.tc.GetResponseField("catSubmissions")
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	var cats []struct {
		Questions []struct {
			QuestionID int64           `json:"questionId"`
			Answer     json.RawMessage `json:"answer"`
		} `json:"qstnSubmissions"`
	}
	if err := json.Unmarshal(encoded, &cats); err != nil {
		return err
	}
	for _, c := range cats {
		for _, q := range c.Questions {
			if q.QuestionID != questionID {
				continue
			}
			if string(q.Answer) != want {
				return fmt.Errorf("question %d: expected answer %s, got %s", questionID, want, q.Answer)
			}
			return nil
		}
	}
	return fmt.Errorf("question %d not in fetched submission", questionID)
}
