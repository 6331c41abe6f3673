package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

type subscription struct {
	id      int
	types   map[string]bool
	handler Handler
}

func (s subscription) wants(eventType string) bool {
	return len(s.types) == 0 || s.types[eventType]
}

type importLog struct {
	next   int
	events []Event
}

// Journal is an in-memory Bus. It keeps at most limit events per import
// (0 keeps everything). Subscribers run synchronously on the publishing
// goroutine, outside the journal lock.
type Journal struct {
	mu     sync.RWMutex
	limit  int
	logs   map[entities.ImportID]*importLog
	subs   []subscription
	nextID int
	logger *zap.Logger
}

var _ Bus = (*Journal)(nil)

// NewJournal creates an empty journal
func NewJournal(limit int, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{
		limit:  limit,
		logs:   make(map[entities.ImportID]*importLog),
		logger: logger,
	}
}

func (j *Journal) Publish(event Event) (Event, error) {
	j.mu.Lock()
	log, ok := j.logs[event.ImportID]
	if !ok {
		log = &importLog{next: 1}
		j.logs[event.ImportID] = log
	}
	event.Seq = log.next
	log.next++
	log.events = append(log.events, event)
	if j.limit > 0 && len(log.events) > j.limit {
		log.events = append([]Event(nil), log.events[len(log.events)-j.limit:]...)
	}

	var targets []subscription
	for _, s := range j.subs {
		if s.wants(event.Type) {
			targets = append(targets, s)
		}
	}
	j.mu.Unlock()

	for _, s := range targets {
		if err := s.handler(event); err != nil {
			j.logger.Error("Event handler failed",
				zap.String("event_type", event.Type),
				zap.Int64("import_id", int64(event.ImportID)),
				zap.Int("seq", event.Seq),
				zap.Error(err),
			)
		}
	}
	return event, nil
}

func (j *Journal) History(importID entities.ImportID, fromSeq int) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	log, ok := j.logs[importID]
	if !ok {
		return []Event{}
	}
	out := []Event{}
	for _, e := range log.events {
		if e.Seq >= fromSeq {
			out = append(out, e)
		}
	}
	return out
}

func (j *Journal) Subscribe(handler Handler, types ...string) func() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.nextID++
	s := subscription{id: j.nextID, handler: handler}
	if len(types) > 0 {
		s.types = make(map[string]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	j.subs = append(j.subs, s)

	return func() { j.unsubscribe(s.id) }
}

func (j *Journal) unsubscribe(id int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	kept := j.subs[:0]
	for _, s := range j.subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	j.subs = kept
}
