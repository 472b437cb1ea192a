// Package types contains wire types shared by the HTTP API and its clients.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
)

// Sentinel kinds for wire conversion errors.
var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingRecord    = errors.New("event record missing")
)

// EventRequest is one change event on the wire. Record carries the new state
// for added/updated events; Previous carries the old state for updated and
// deleted events. Both decode as a tasting or an experience depending on Type.
type EventRequest struct {
	ID       string          `json:"id,omitempty"`
	Type     model.EventType `json:"type"`
	Record   json.RawMessage `json:"record,omitempty"`
	Previous json.RawMessage `json:"previous,omitempty"`
}

// InitializeRequest carries the canonical dataset for a full rebuild.
type InitializeRequest struct {
	Tastings    []TastingPayload    `json:"tastings"`
	Experiences []ExperiencePayload `json:"experiences"`
}

// NewInitializeRequest wraps a dataset for the wire.
func NewInitializeRequest(tastings []model.TastingRecord, experiences []model.ExperienceRecord) InitializeRequest {
	req := InitializeRequest{
		Tastings:    make([]TastingPayload, len(tastings)),
		Experiences: make([]ExperiencePayload, len(experiences)),
	}
	for i := range tastings {
		req.Tastings[i] = NewTastingPayload(tastings[i])
	}
	for i := range experiences {
		req.Experiences[i] = NewExperiencePayload(experiences[i])
	}
	return req
}

// TastingRecords returns the request's tastings as model records.
func (r InitializeRequest) TastingRecords() []model.TastingRecord {
	return TastingRecords(r.Tastings)
}

// ExperienceRecords returns the request's experiences as model records.
func (r InitializeRequest) ExperienceRecords() []model.ExperienceRecord {
	return ExperienceRecords(r.Experiences)
}

// EnqueueResponse acknowledges an event.
type EnqueueResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Diagnostic describes one change event that was dropped.
type Diagnostic struct {
	EventID  string          `json:"eventId"`
	Type     model.EventType `json:"type"`
	RecordID string          `json:"recordId,omitempty"`
	Reason   string          `json:"reason"`
	Error    string          `json:"error"`
	At       time.Time       `json:"at"`
}

// ChangeEvent converts the request into a domain event. A nil Previous is
// passed through so the processor can report the contract violation. Missing
// numeric fields decode as NaN and fail validation downstream.
func (r EventRequest) ChangeEvent() (model.ChangeEvent, error) {
	switch r.Type {
	case model.TypeTastingAdded:
		rec, err := decodeTasting(r.Record, "record")
		if err != nil {
			return nil, err
		}
		return model.TastingAdded{Record: *rec}, nil
	case model.TypeTastingUpdated:
		rec, err := decodeTasting(r.Record, "record")
		if err != nil {
			return nil, err
		}
		prev, err := decodeOptionalTasting(r.Previous, "previous")
		if err != nil {
			return nil, err
		}
		return model.TastingUpdated{Previous: prev, Record: *rec}, nil
	case model.TypeTastingDeleted:
		prev, err := decodeOptionalTasting(r.Previous, "previous")
		if err != nil {
			return nil, err
		}
		return model.TastingDeleted{Previous: prev}, nil
	case model.TypeExperienceAdded:
		rec, err := decodeExperience(r.Record, "record")
		if err != nil {
			return nil, err
		}
		return model.ExperienceAdded{Record: *rec}, nil
	case model.TypeExperienceUpdated:
		rec, err := decodeExperience(r.Record, "record")
		if err != nil {
			return nil, err
		}
		prev, err := decodeOptionalExperience(r.Previous, "previous")
		if err != nil {
			return nil, err
		}
		return model.ExperienceUpdated{Previous: prev, Record: *rec}, nil
	case model.TypeExperienceDeleted:
		prev, err := decodeOptionalExperience(r.Previous, "previous")
		if err != nil {
			return nil, err
		}
		return model.ExperienceDeleted{Previous: prev}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, r.Type)
	}
}

// NewEventRequest is the inverse of ChangeEvent.
func NewEventRequest(id string, ev model.ChangeEvent) (EventRequest, error) {
	req := EventRequest{ID: id}
	var record, previous any
	switch e := ev.(type) {
	case model.TastingAdded:
		record = NewTastingPayload(e.Record)
	case model.TastingUpdated:
		record, previous = NewTastingPayload(e.Record), tastingPayloadOrNil(e.Previous)
	case model.TastingDeleted:
		previous = tastingPayloadOrNil(e.Previous)
	case model.ExperienceAdded:
		record = NewExperiencePayload(e.Record)
	case model.ExperienceUpdated:
		record, previous = NewExperiencePayload(e.Record), experiencePayloadOrNil(e.Previous)
	case model.ExperienceDeleted:
		previous = experiencePayloadOrNil(e.Previous)
	default:
		return EventRequest{}, fmt.Errorf("%w: %T", ErrUnknownEventType, ev)
	}
	req.Type = ev.Type()

	var err error
	if record != nil {
		if req.Record, err = json.Marshal(record); err != nil {
			return EventRequest{}, fmt.Errorf("encode record: %w", err)
		}
	}
	if previous != nil {
		if req.Previous, err = json.Marshal(previous); err != nil {
			return EventRequest{}, fmt.Errorf("encode previous: %w", err)
		}
	}
	return req, nil
}

func tastingPayloadOrNil(rec *model.TastingRecord) any {
	if rec == nil {
		return nil
	}
	return NewTastingPayload(*rec)
}

func experiencePayloadOrNil(rec *model.ExperienceRecord) any {
	if rec == nil {
		return nil
	}
	return NewExperiencePayload(*rec)
}

func decodeTasting(raw json.RawMessage, field string) (*model.TastingRecord, error) {
	p, err := decodeRequired[TastingPayload](raw, field)
	if err != nil {
		return nil, err
	}
	rec := p.Record()
	return &rec, nil
}

func decodeOptionalTasting(raw json.RawMessage, field string) (*model.TastingRecord, error) {
	p, err := decodeOptional[TastingPayload](raw, field)
	if err != nil || p == nil {
		return nil, err
	}
	rec := p.Record()
	return &rec, nil
}

func decodeExperience(raw json.RawMessage, field string) (*model.ExperienceRecord, error) {
	p, err := decodeRequired[ExperiencePayload](raw, field)
	if err != nil {
		return nil, err
	}
	rec := p.Record()
	return &rec, nil
}

func decodeOptionalExperience(raw json.RawMessage, field string) (*model.ExperienceRecord, error) {
	p, err := decodeOptional[ExperiencePayload](raw, field)
	if err != nil || p == nil {
		return nil, err
	}
	rec := p.Record()
	return &rec, nil
}
func decodeRequired[T any](raw json.RawMessage, field string) (*T, error) {
	v, err := decodeOptional[T](raw, field)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingRecord, field)
	}
	return v, nil
}

func decodeOptional[T any](raw json.RawMessage, field string) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", field, err)
	}
	return &v, nil
}
