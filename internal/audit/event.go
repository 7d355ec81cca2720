package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names an audited action.
type EventType string

const EventSurveySubmitted EventType = "survey_submitted"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SurveyID  int64     `json:"surveyId"`
	UserID    int64     `json:"userId,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Status    string    `json:"status,omitempty"`

	AnswersWritten  int `json:"answersWritten,omitempty"`
	SectionsCleared int `json:"sectionsCleared,omitempty"`
}

// Entry is one outbox row awaiting delivery to the event stream.
type Entry struct {
	ID          uuid.UUID
	EventType   EventType
	AggregateID string
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time
}
