package events

import (
	"time"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// Event is one entry in the journal of an import
type Event struct {
	Type     string            `json:"type"`
	ImportID entities.ImportID `json:"import_id"`
	// Seq is the position in the import's journal, assigned on publish
	Seq  int         `json:"seq"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

// Handler reacts to a published event
type Handler func(Event) error

// Bus records import events and delivers them to subscribers
type Bus interface {
	// Publish appends the event and returns it with its sequence number
	Publish(event Event) (Event, error)
	// History returns the retained events of an import with Seq >= fromSeq
	History(importID entities.ImportID, fromSeq int) []Event
	// Subscribe registers handler for the given types (every type when none
	// are given) and returns a function that removes it
	Subscribe(handler Handler, types ...string) func()
}

func newEvent(eventType string, importID entities.ImportID, data interface{}) Event {
	return Event{
		Type:     eventType,
		ImportID: importID,
		At:       time.Now().UTC(),
		Data:     data,
	}
}
