package orbit

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
)

type EventType uint8

func (t EventType) String() string {
	switch t {
	case COLLISION_ENTER:
		return "enter"
	case COLLISION_STAY:
		return "stay"
	case COLLISION_EXIT:
		return "exit"
	}
	return "unknown"
}

type pairKey struct {
	a, b string
}

// makePairKey normalizes the order so (A, B) and (B, A) share a key.
func makePairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

type CollisionEnterEvent struct {
	BodyA string
	BodyB string
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA string
	BodyB string
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA string
	BodyB string
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// EventListener - callback for events
type EventListener func(event Event)

// ContactEvents turns successive full overlap reports into transitions.
// The Monitor keeps no history; this is where a consumer that wants edges keeps it.
type ContactEvents struct {
	listeners map[EventType][]EventListener

	buffer []Event

	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewContactEvents() *ContactEvents {
	return &ContactEvents{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 16),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *ContactEvents) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// Observe records one report, dispatches the resulting events and returns how many
// pairs are currently overlapping.
func (e *ContactEvents) Observe(results []PairResult) int {
	for _, r := range results {
		if r.Overlapping {
			e.currentActivePairs[makePairKey(r.A, r.B)] = true
		}
	}
	active := len(e.currentActivePairs)

	e.processCollisionEvents()
	e.flush()

	return active
}

func (e *ContactEvents) processCollisionEvents() {
	for pair := range e.currentActivePairs {
		if e.previousActivePairs[pair] {
			if len(e.listeners[COLLISION_STAY]) > 0 {
				e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.a, BodyB: pair.b})
			}
		} else {
			e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.a, BodyB: pair.b})
		}
	}

	for pair := range e.previousActivePairs {
		if !e.currentActivePairs[pair] {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.a, BodyB: pair.b})
		}
	}

	// Swap for next report and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// flush sends all buffered events and clears the buffer
func (e *ContactEvents) flush() {
	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
