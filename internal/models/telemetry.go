package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MetricSession represents the METRIC_SESSION table. ParticipantRef is the
// externally-supplied link to a consent record's participant id; sessions
// created without it are not attributable to any participant and therefore
// fall outside the erasure cascade by construction.
type MetricSession struct {
	SessionID       string  `db:"SESSION_ID" json:"sessionId"`
	ClientSessionID string  `db:"CLIENT_SESSION_ID" json:"clientSessionId"`
	ParticipantRef  *string `db:"PARTICIPANT_REF" json:"participantRef,omitempty"`
	BuildNumber     *string `db:"BUILD_NUMBER" json:"buildNumber,omitempty"`
	CreatedAt       int64   `db:"CREATED_AT" json:"createdAt"`
	ClosedAt        *int64  `db:"CLOSED_AT" json:"closedAt,omitempty"`
}

// PlaySession represents the PLAY_SESSION table
type PlaySession struct {
	PlaySessionID string `db:"PLAY_SESSION_ID" json:"playSessionId"`
	SessionID     string `db:"SESSION_ID" json:"sessionId"`
	StartedAt     int64  `db:"STARTED_AT" json:"startedAt"`
	EndedAt       *int64 `db:"ENDED_AT" json:"endedAt,omitempty"`
}

// Event represents the EVENT table
type Event struct {
	EventID       int64    `db:"EVENT_ID" json:"eventId"`
	PlaySessionID string   `db:"PLAY_SESSION_ID" json:"playSessionId"`
	EventType     int      `db:"EVENT_TYPE" json:"eventType"`
	EventSubtype  int      `db:"EVENT_SUBTYPE" json:"eventSubtype"`
	X             *int     `db:"X" json:"x,omitempty"`
	Y             *int     `db:"Y" json:"y,omitempty"`
	Z             *int     `db:"Z" json:"z,omitempty"`
	Magnitude     *float64 `db:"MAGNITUDE" json:"magnitude,omitempty"`
	Data          JSON     `db:"DATA" json:"data,omitempty"`
	EventTime     int64    `db:"EVENT_TIME" json:"eventTime"`
}

// JSON type for handling JSON fields in MySQL
type JSON json.RawMessage

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON: %T", value)
	}

	var temp interface{}
	if err := json.Unmarshal(bytes, &temp); err != nil {
		return fmt.Errorf("invalid JSON data: %w", err)
	}

	cleanBytes, err := json.Marshal(temp)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	*j = JSON(cleanBytes)
	return nil
}

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// MarshalJSON implements json.Marshaler
func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = JSON(data)
	return nil
}

// SessionCreateRequest is the API payload for opening a metric session
type SessionCreateRequest struct {
	ClientSessionID string `json:"uniqueId" binding:"required"`
	ParticipantRef  string `json:"participantRef,omitempty"`
	BuildNumber     string `json:"buildNumber,omitempty"`
}

// PlaySessionCreateRequest is the API payload for opening a play session
type PlaySessionCreateRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// EventCreateRequest is the API payload for a single telemetry event
type EventCreateRequest struct {
	EventType    int             `json:"eventType"`
	EventSubtype int             `json:"eventSubtype"`
	X            *int            `json:"x,omitempty"`
	Y            *int            `json:"y,omitempty"`
	Z            *int            `json:"z,omitempty"`
	Magnitude    *float64        `json:"magnitude,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	EventTime    *int64          `json:"eventTime,omitempty"`
}

// EventBatchRequest is the API payload for batched event ingestion
type EventBatchRequest struct {
	Events []EventCreateRequest `json:"events" binding:"required"`
}

// SessionExport is a metric session with its nested play sessions and events,
// as returned by the participant data export.
type SessionExport struct {
	MetricSession
	PlaySessions []PlaySessionExport `json:"playSessions"`
}

// PlaySessionExport is a play session with its nested events
type PlaySessionExport struct {
	PlaySession
	Events []Event `json:"events"`
}
