package chain

import (
	"strings"
	"time"
)

// Attr is one named event field.
type Attr struct {
	Key   string
	Value string
}

// A builds an Attr.
func A(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Event is a log record emitted by a contract during a committed transaction.
type Event struct {
	ID      string
	TxID    string
	Name    string
	Emitter Address
	Attrs   []Attr
	Time    time.Time
}

// Get returns the value of the named attribute.
func (e Event) Get(key string) string {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// String formats the event as `Name(k=v, ...)`.
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte('(')
	for i, a := range e.Attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value)
	}
	b.WriteByte(')')
	return b.String()
}
