package task

import "fmt"

// Quadrant is a cell of the Eisenhower matrix.
type Quadrant int

const (
	// Q1: important and urgent.
	Q1 Quadrant = iota + 1
	// Q2: important, not urgent.
	Q2
	// Q3: urgent, not important.
	Q3
	// Q4: neither important nor urgent.
	Q4
)

var quadrantNames = map[Quadrant]string{
	Q1: "Q1",
	Q2: "Q2",
	Q3: "Q3",
	Q4: "Q4",
}

var quadrantValues = map[string]Quadrant{
	"Q1": Q1,
	"Q2": Q2,
	"Q3": Q3,
	"Q4": Q4,
}

var quadrantLabels = map[Quadrant]string{
	Q1: "Do first",
	Q2: "Schedule",
	Q3: "Delegate",
	Q4: "Eliminate",
}

// Classify maps the importance and urgency flags onto a quadrant.
func Classify(important, urgent bool) Quadrant {
	switch {
	case important && urgent:
		return Q1
	case important:
		return Q2
	case urgent:
		return Q3
	default:
		return Q4
	}
}

// AllQuadrants returns the quadrants in matrix order.
func AllQuadrants() []Quadrant {
	return []Quadrant{Q1, Q2, Q3, Q4}
}

// ParseQuadrant creates a Quadrant from its exact wire name.
func ParseQuadrant(s string) (Quadrant, error) {
	q, ok := quadrantValues[s]
	if !ok {
		return 0, &InvalidInputError{
			Field:   "quadrant",
			Value:   s,
			Message: "must be one of Q1, Q2, Q3, Q4",
		}
	}
	return q, nil
}

// String returns the wire name of the quadrant.
func (q Quadrant) String() string {
	if name, ok := quadrantNames[q]; ok {
		return name
	}
	return "unknown"
}

// Label returns the action the quadrant calls for.
func (q Quadrant) Label() string {
	return quadrantLabels[q]
}

// IsValid returns true if the quadrant is one of Q1..Q4.
func (q Quadrant) IsValid() bool {
	_, ok := quadrantNames[q]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (q Quadrant) MarshalText() ([]byte, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("invalid quadrant %d", int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quadrant) UnmarshalText(text []byte) error {
	parsed, err := ParseQuadrant(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
