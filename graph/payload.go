package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "mcal",
		Category:    "entity",
		Version:     "v1",
		Description: "Pipeline entity with its triples for graph ingestion",
		Factory:     func() any { return &EntityPayload{} },
	})
	if err != nil {
		panic("failed to register EntityPayload: " + err.Error())
	}
}

// EntityType is the message type for pipeline entity payloads.
var EntityType = message.Type{Domain: "mcal", Category: "entity", Version: "v1"}

// EntityPayload is the ingest message for one subject. It is the wire format
// published on the ingest subject.
type EntityPayload struct {
	ID         string           `json:"id"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (e *EntityPayload) EntityID() string          { return e.ID }
func (e *EntityPayload) Triples() []message.Triple { return e.TripleData }
func (e *EntityPayload) Schema() message.Type      { return EntityType }

func (e *EntityPayload) Validate() error {
	if e.ID == "" {
		return errors.New("entity ID is required")
	}
	if len(e.TripleData) == 0 {
		return errors.New("entity has no triples")
	}
	for _, t := range e.TripleData {
		if t.Subject != e.ID {
			return errors.New("triple subject does not match entity ID: " + t.Subject)
		}
	}
	return nil
}

func (e *EntityPayload) MarshalJSON() ([]byte, error) {
	type Alias EntityPayload
	return json.Marshal((*Alias)(e))
}

func (e *EntityPayload) UnmarshalJSON(data []byte) error {
	type Alias EntityPayload
	return json.Unmarshal(data, (*Alias)(e))
}
