package library

import "slices"

// EventType identifies a library notification
type EventType int

const (
	// DataChanged fires after the document was saved or the cache cleared
	DataChanged EventType = iota
	// SearchStarted fires before a search runs
	SearchStarted
	// SearchFinished fires when a search ends, whether or not it succeeded
	SearchFinished
)

func (t EventType) String() string {
	switch t {
	case DataChanged:
		return "data_changed"
	case SearchStarted:
		return "search_started"
	case SearchFinished:
		return "search_finished"
	}
	return "unknown"
}

// Event is delivered to subscribers
type Event struct {
	Type    EventType
	Library string
}

// Observer receives library events
type Observer func(Event)

// Subscribe registers fn for every event and returns a function that
// removes it
func (l *Library) Subscribe(fn Observer) func() {
	l.nextObserver++
	id := l.nextObserver
	l.observers = append(l.observers, observerEntry{id: id, fn: fn})

	return func() {
		for i, o := range l.observers {
			if o.id == id {
				l.observers = append(l.observers[:i], l.observers[i+1:]...)
				return
			}
		}
	}
}

type observerEntry struct {
	id int
	fn Observer
}

func (l *Library) emit(t EventType) {
	ev := Event{Type: t, Library: l.name}
	for _, o := range slices.Clone(l.observers) {
		o.fn(ev)
	}
}
