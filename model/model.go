package model

import (
	"encoding/json"
	"time"
)

// FieldType is the closed set of answerable question types. Anything else
// coming from a template is treated as FieldText downstream.
type FieldType string

const (
	FieldText           FieldType = "text"
	FieldNumber         FieldType = "number"
	FieldDate           FieldType = "date"
	FieldSelectOne      FieldType = "select_one"
	FieldSelectMultiple FieldType = "select_multiple"
	FieldCheckbox       FieldType = "checkbox"
)

type FieldOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type TemplateField struct {
	Code     string        `json:"code"`
	Label    string        `json:"label"`
	Type     FieldType     `json:"type"`
	Required bool          `json:"required,omitempty"`
	Options  []FieldOption `json:"options,omitempty"`
}

type TemplateSection struct {
	Code       string          `json:"code"`
	Title      string          `json:"title"`
	Repeatable bool            `json:"repeatable,omitempty"`
	Min        int             `json:"min,omitempty"`
	Max        int             `json:"max,omitempty"`
	Fields     []TemplateField `json:"fields"`
}

// FormDefinition is the canonical form derived from one template snapshot.
// It is never mutated after normalization; a new template version yields a
// whole new definition.
type FormDefinition struct {
	Title    string            `json:"title,omitempty"`
	Sections []TemplateSection `json:"sections"`
}

// AnswerRecord is one flat persisted answer. Exactly one value slot is
// populated, chosen by the field type.
type AnswerRecord struct {
	QuestionCode string          `json:"question_code"`
	SectionCode  string          `json:"section_code,omitempty"`
	RepeatPath   string          `json:"repeat_path,omitempty"`
	ValueText    *string         `json:"value_text,omitempty"`
	ValueNumber  *float64        `json:"value_number,omitempty"`
	ValueBool    *bool           `json:"value_bool,omitempty"`
	ValueDate    *string         `json:"value_date,omitempty"`
	ValueJSON    json.RawMessage `json:"value_json,omitempty"`
}

// DraftPayload is locally cached, unsent form state.
type DraftPayload struct {
	UpdatedAt int64          `json:"updatedAt"`
	Values    map[string]any `json:"values"`
}

const (
	TemplateDraft     = "draft"
	TemplatePublished = "published"
	TemplateArchived  = "archived"
)

type Template struct {
	ID                  int             `json:"id,omitempty"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Version             int             `json:"version,omitempty"`
	Status              string          `json:"status,omitempty"`
	DraftSchemaJSON     json.RawMessage `json:"draft_schema_json,omitempty"`
	PublishedSchemaJSON json.RawMessage `json:"published_schema_json,omitempty"`
	UpdatedAt           time.Time       `json:"updated_at,omitempty"`
	PublishedAt         *time.Time      `json:"published_at,omitempty"`
}

type Survey struct {
	ID         int             `json:"id,omitempty"`
	TemplateID int             `json:"template_id"`
	Title      string          `json:"title"`
	SchemaJSON json.RawMessage `json:"schema_json,omitempty"`
	Channel    string          `json:"channel,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
}

const (
	EnrollmentInvited    = "invited"
	EnrollmentInProgress = "in_progress"
	EnrollmentSubmitted  = "submitted"
)

type Enrollment struct {
	ID               string     `json:"id"`
	SurveyID         int        `json:"survey_id"`
	Token            string     `json:"token"`
	ParticipantName  string     `json:"participant_name"`
	ParticipantEmail string     `json:"participant_email,omitempty"`
	Status           string     `json:"status"`
	InvitedAt        time.Time  `json:"invited_at"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
}

// Submission channels accepted from clients.
const (
	ChannelWeb      = "web"
	ChannelTelegram = "tg_webapp"
	ChannelAPI      = "api"
)

func ValidChannel(c string) bool {
	switch c {
	case ChannelWeb, ChannelTelegram, ChannelAPI:
		return true
	}
	return false
}
