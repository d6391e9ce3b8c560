package snapcore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Op names one cache operation in its canonical serialized form.
type Op string

const (
	OpAdd        Op = "add"
	OpIncrement  Op = "increment"
	OpDecrement  Op = "decrement"
	OpDelete     Op = "delete"
	OpDeleteMany Op = "delete_many"
	OpGet        Op = "get"
	OpGetMany    Op = "get_many"
	OpSet        Op = "set"
	OpSetMany    Op = "set_many"
)

var knownOps = map[Op]bool{
	OpAdd:        true,
	OpIncrement:  true,
	OpDecrement:  true,
	OpDelete:     true,
	OpDeleteMany: true,
	OpGet:        true,
	OpGetMany:    true,
	OpSet:        true,
	OpSetMany:    true,
}

// Valid reports whether op is one of the nine recorded operations.
func (op Op) Valid() bool { return knownOps[op] }

// ErrKeyShape is returned when an event is built from a key argument that is
// neither a string nor a supported key collection.
var ErrKeyShape = errors.New("key argument must be a string, string slice, or string-keyed map")

// Event is one observed cache call, reduced to backend alias, operation, and
// normalized key(s). It is immutable once built.
type Event struct {
	Alias     string
	Operation Op
	Keys      []string
	Bulk      bool
}

// NewEvent builds an Event from the first argument of an instrumented call.
// Keys pass through CleanKey; bulk keys are sorted so recordings do not
// depend on caller-supplied key order.
func NewEvent(alias string, op Op, keyOrKeys any) (Event, error) {
	ev := Event{Alias: alias, Operation: op}
	switch arg := keyOrKeys.(type) {
	case string:
		ev.Keys = []string{CleanKey(arg)}
	case []string:
		ev.Bulk = true
		ev.Keys = make([]string, 0, len(arg))
		for _, k := range arg {
			ev.Keys = append(ev.Keys, CleanKey(k))
		}
	case map[string][]byte:
		ev.Bulk = true
		ev.Keys = make([]string, 0, len(arg))
		for k := range arg {
			ev.Keys = append(ev.Keys, CleanKey(k))
		}
	case map[string]string:
		ev.Bulk = true
		ev.Keys = make([]string, 0, len(arg))
		for k := range arg {
			ev.Keys = append(ev.Keys, CleanKey(k))
		}
	default:
		return Event{}, fmt.Errorf("%w, got %T", ErrKeyShape, keyOrKeys)
	}
	if ev.Bulk {
		sort.Strings(ev.Keys)
	}
	return ev, nil
}

// Label renders the serialized event name: "cache|<op>" for the default
// alias, "cache|<alias>|<op>" otherwise.
func (e Event) Label() string {
	parts := []string{"cache"}
	if e.Alias != DefaultAlias {
		parts = append(parts, e.Alias)
	}
	parts = append(parts, string(e.Operation))
	return strings.Join(parts, "|")
}

// ParseLabel inverts Label.
func ParseLabel(label string) (alias string, op Op, err error) {
	parts := strings.Split(label, "|")
	if parts[0] != "cache" {
		return "", "", fmt.Errorf("event label %q does not start with %q", label, "cache")
	}
	switch len(parts) {
	case 2:
		alias, op = DefaultAlias, Op(parts[1])
	case 3:
		alias, op = parts[1], Op(parts[2])
	default:
		return "", "", fmt.Errorf("malformed event label %q", label)
	}
	if !op.Valid() {
		return "", "", fmt.Errorf("unknown cache operation %q in label %q", op, label)
	}
	return alias, op, nil
}

// Equal reports structural equality: alias, operation, and normalized keys
// must all match.
func (e Event) Equal(other Event) bool {
	if e.Alias != other.Alias || e.Operation != other.Operation || e.Bulk != other.Bulk {
		return false
	}
	if len(e.Keys) != len(other.Keys) {
		return false
	}
	for i := range e.Keys {
		if e.Keys[i] != other.Keys[i] {
			return false
		}
	}
	return true
}

// Recording is the ordered sequence of events captured during one session.
// Unlike per-event key sets, order is significant here.
type Recording []Event

// Equal compares two recordings element-wise, in order.
func (r Recording) Equal(other Recording) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if !r[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
