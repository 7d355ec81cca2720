package models

import (
	"encoding/json"
	"time"
)

// Submission is the client-submitted survey answer document.
type Submission struct {
	SurveyID   SurveyID             `json:"surveyId"`
	Categories []CategorySubmission `json:"catSubmissions"`
}

type CategorySubmission struct {
	CategoryID CategoryID           `json:"categoryId"`
	TookPart   bool                 `json:"tookPart"`
	Questions  []QuestionSubmission `json:"qstnSubmissions"`
}

type QuestionSubmission struct {
	QuestionID QuestionID      `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

// Receipt summarizes an accepted submission.
type Receipt struct {
	SurveyID        SurveyID  `json:"surveyId"`
	Status          string    `json:"status"`
	SubmittedAt     time.Time `json:"submittedAt"`
	AnswersWritten  int       `json:"answersWritten"`
	SectionsCleared int       `json:"sectionsCleared"`
}
