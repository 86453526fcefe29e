package domain

// EventKind is the normalized kind of change reported for a path.
type EventKind uint8

const (
	// EventNone is the zero value and never leaves the engine.
	EventNone EventKind = iota
	// EventCreated indicates a regular file came into existence.
	EventCreated
	// EventModified indicates a regular file changed in place or was replaced.
	EventModified
	// EventDeleted indicates a regular file disappeared.
	EventDeleted
)

// String returns the lower-case name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is one settled change for an absolute path.
type Event struct {
	Path string    `json:"path"`
	Kind EventKind `json:"kind"`
}

// ScopeID identifies one watch scope within an observer.
type ScopeID uint64

// Batch is a flushed set of events for one scope, in first-recorded order.
type Batch struct {
	Scope  ScopeID `json:"scope"`
	Root   string  `json:"root"`
	Events []Event `json:"events"`
}

// Notification is one raw record from the watch backend.
// Name is the child entry relative to the watched directory; it is empty when
// the notification concerns the watched directory itself. Overflow with
// NoHandle means the whole notification channel lost records.
type Notification struct {
	Handle   Handle
	Name     string
	Overflow bool
}
