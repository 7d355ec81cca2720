package models

import "errors"

var (
	// ErrMalformedSubmission marks structural failures: unknown categories,
	// questions under the wrong category, or a survey that no longer exists.
	ErrMalformedSubmission = errors.New("malformed submission")

	// ErrQuestionMisconfigured marks a stored question definition that cannot be compiled.
	ErrQuestionMisconfigured = errors.New("question misconfigured")

	// ErrSurveyClosed marks a survey whose status does not accept submissions.
	ErrSurveyClosed = errors.New("survey is not open for submission")
)

// ValidationItem describes one rejected answer. It never echoes the value.
type ValidationItem struct {
	CategoryID     CategoryID `json:"categoryId"`
	QuestionID     QuestionID `json:"questionId"`
	ValidationName string     `json:"validationName"`
	Message        string     `json:"message"`
}

// AnswerValidationError aggregates every rejected answer of one submission.
type AnswerValidationError struct {
	Items []ValidationItem
}

func (e *AnswerValidationError) Error() string {
	return "One or more answers failed validation"
}

// Details exposes the item list to the HTTP error envelope.
func (e *AnswerValidationError) Details() any {
	return e.Items
}
