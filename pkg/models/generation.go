package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Generation represents one AI inference request and its outcome
type Generation struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Type        string     `json:"type" db:"type"`
	Model       string     `json:"model" db:"model"`
	Prompt      string     `json:"prompt" db:"prompt"`
	Metadata    Metadata   `json:"metadata,omitempty" db:"metadata"`
	Status      string     `json:"status" db:"status"`
	Result      Document   `json:"result,omitempty" db:"result"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Metadata holds free-form request options for a generation
type Metadata map[string]interface{}

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(Metadata{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Document is a raw JSON column, stored verbatim
type Document json.RawMessage

// Value implements driver.Valuer for database storage
func (d Document) Value() (driver.Value, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return []byte(d), nil
}

// Scan implements sql.Scanner for database retrieval
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	*d = append((*d)[0:0], bytes...)
	return nil
}

// MarshalJSON renders the document as-is
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores the document as-is
func (d *Document) UnmarshalJSON(data []byte) error {
	*d = append((*d)[0:0], data...)
	return nil
}

// GenerationStatus constants
const (
	GenerationStatusPending   = "pending"
	GenerationStatusCompleted = "completed"
	GenerationStatusFailed    = "failed"
)

// GenerationType constants
const (
	GenerationTypeImage         = "image"
	GenerationTypeVideo         = "video"
	GenerationTypeChat          = "chat"
	GenerationTypeAudio         = "audio"
	GenerationTypeTranscription = "transcription"
	GenerationTypeImageEdit     = "image_edit"
	GenerationTypeEmbeddings    = "embeddings"
)

// IsTerminal reports whether the status is a terminal generation state
func IsTerminal(status string) bool {
	return status == GenerationStatusCompleted || status == GenerationStatusFailed
}
