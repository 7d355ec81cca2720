package models

import (
	"strconv"

	dErrors "tracker/pkg/domain-errors"
)

type (
	SurveyID   int64
	CategoryID int64
	QuestionID int64
	SectionID  int64
	UserID     int64
)

// ParseSurveyID parses a positive decimal survey identifier.
func ParseSurveyID(s string) (SurveyID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid survey id")
	}
	return SurveyID(n), nil
}
