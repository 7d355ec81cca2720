package models

import (
	"encoding/json"
	"time"
)

// Survey is one periodic activity survey owned by a field worker.
type Survey struct {
	ID         SurveyID
	UserID     UserID
	SurveyDate time.Time
	Status     Status
	SubmitDate *time.Time
}

// Category is an activity type that a survey can cover.
type Category struct {
	ID           CategoryID
	Description  string
	DisplayOrder int
}

// Question is the stored question definition. AnswerType, Options and
// Validations are untrusted until compiled.
type Question struct {
	ID           QuestionID
	CategoryID   CategoryID
	DisplayOrder int
	AnswerType   string
	Prompt       string
	Options      json.RawMessage
	Validations  string
}

// Section links a survey to one category.
type Section struct {
	ID         SectionID
	SurveyID   SurveyID
	CategoryID CategoryID
	TookPart   bool
}

// Answer is one stored, normalized answer.
type Answer struct {
	SurveyID   SurveyID
	QuestionID QuestionID
	SectionID  SectionID
	Value      json.RawMessage
}
