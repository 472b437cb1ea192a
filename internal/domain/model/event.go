package model

import "time"

// EventType names a ChangeEvent variant on the wire and in metrics.
type EventType string

// Change event variants.
const (
	TypeTastingAdded      EventType = "tasting_added"
	TypeTastingUpdated    EventType = "tasting_updated"
	TypeTastingDeleted    EventType = "tasting_deleted"
	TypeExperienceAdded   EventType = "experience_added"
	TypeExperienceUpdated EventType = "experience_updated"
	TypeExperienceDeleted EventType = "experience_deleted"
)

// EventTypes lists every variant in declaration order.
var EventTypes = []EventType{
	TypeTastingAdded, TypeTastingUpdated, TypeTastingDeleted,
	TypeExperienceAdded, TypeExperienceUpdated, TypeExperienceDeleted,
}

// ChangeEvent is a notification that the canonical store committed a mutation.
// The set of implementations is closed to this package.
type ChangeEvent interface {
	Type() EventType
	// RecordID identifies the record the event is about.
	RecordID() string
	changeEvent()
}

// TastingAdded reports a newly created tasting.
type TastingAdded struct {
	Record TastingRecord
}

// TastingUpdated reports an edited tasting. Previous must be the snapshot
// before the edit.
type TastingUpdated struct {
	Previous *TastingRecord
	Record   TastingRecord
}

// TastingDeleted reports a removed tasting. Previous must be the deleted record.
type TastingDeleted struct {
	Previous *TastingRecord
}

// ExperienceAdded reports a newly created experience.
type ExperienceAdded struct {
	Record ExperienceRecord
}

// ExperienceUpdated reports an edited experience.
type ExperienceUpdated struct {
	Previous *ExperienceRecord
	Record   ExperienceRecord
}

// ExperienceDeleted reports a removed experience.
type ExperienceDeleted struct {
	Previous *ExperienceRecord
}

func (TastingAdded) Type() EventType      { return TypeTastingAdded }
func (TastingUpdated) Type() EventType    { return TypeTastingUpdated }
func (TastingDeleted) Type() EventType    { return TypeTastingDeleted }
func (ExperienceAdded) Type() EventType   { return TypeExperienceAdded }
func (ExperienceUpdated) Type() EventType { return TypeExperienceUpdated }
func (ExperienceDeleted) Type() EventType { return TypeExperienceDeleted }

func (e TastingAdded) RecordID() string      { return e.Record.ID }
func (e TastingUpdated) RecordID() string    { return e.Record.ID }
func (e ExperienceAdded) RecordID() string   { return e.Record.ID }
func (e ExperienceUpdated) RecordID() string { return e.Record.ID }

func (e TastingDeleted) RecordID() string {
	if e.Previous == nil {
		return ""
	}
	return e.Previous.ID
}

func (e ExperienceDeleted) RecordID() string {
	if e.Previous == nil {
		return ""
	}
	return e.Previous.ID
}

func (TastingAdded) changeEvent()      {}
func (TastingUpdated) changeEvent()    {}
func (TastingDeleted) changeEvent()    {}
func (ExperienceAdded) changeEvent()   {}
func (ExperienceUpdated) changeEvent() {}
func (ExperienceDeleted) changeEvent() {}

// Envelope is the unit carried by the update queue.
type Envelope struct {
	ID         string      // unique id for idempotency
	Event      ChangeEvent // the mutation being reported
	EnqueuedAt time.Time
}
