package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
)

// DefaultEventType is the header event type of graph events.
const DefaultEventType = "graph-event"

// Header correlates an envelope with its request. RequestID carries the
// transaction id of the request event.
type Header struct {
	RequestID               string `json:"request-id"`
	Timestamp               string `json:"timestamp"`
	SourceName              string `json:"source-name"`
	EventType               string `json:"event-type"`
	ValidationEntityType    string `json:"validation-entity-type,omitempty"`
	ValidationTopEntityType string `json:"validation-top-entity-type,omitempty"`
	EntityLink              string `json:"entity-link,omitempty"`
}

// PolicyViolation is reported by a downstream validator that refused the
// event.
type PolicyViolation struct {
	Summary    string         `json:"summary"`
	PolicyName string         `json:"policyName"`
	Details    map[string]any `json:"details,omitempty"`
}

// Envelope wraps a GraphEvent for the bus.
type Envelope struct {
	Header           Header            `json:"header"`
	Body             GraphEvent        `json:"body"`
	PolicyViolations []PolicyViolation `json:"policyViolations"`
}

// FormatTimestamp renders t as yyyyMMdd-HH:mm:ss:SSS in UTC.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s:%03d", t.Format("20060102-15:04:05"), t.Nanosecond()/int(time.Millisecond))
}

// NewEnvelope wraps ev, using its transaction id as the request id.
func NewEnvelope(ev GraphEvent, sourceName string) Envelope {
	return Envelope{
		Header: Header{
			RequestID:               ev.TransactionID,
			Timestamp:               FormatTimestamp(time.Now()),
			SourceName:              sourceName,
			EventType:               DefaultEventType,
			ValidationEntityType:    ev.ObjectType(),
			ValidationTopEntityType: ev.ObjectType(),
		},
		Body:             ev,
		PolicyViolations: []PolicyViolation{},
	}
}

// Violations never returns nil.
func (e *Envelope) Violations() []PolicyViolation {
	if e.PolicyViolations == nil {
		return []PolicyViolation{}
	}
	return e.PolicyViolations
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain Envelope
	p := plain(e)
	p.PolicyViolations = e.Violations()
	return json.Marshal(p)
}

// DecodeEnvelope parses a wire envelope keeping integer properties exact.
func DecodeEnvelope(data []byte) (Envelope, error) {
	type plain Envelope
	var p plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	env := Envelope(p)
	env.PolicyViolations = env.Violations()
	env.Body.Vertex.normalize()
	env.Body.Edge.normalize()
	for i := range env.PolicyViolations {
		graph.NormalizeNumbers(env.PolicyViolations[i].Details)
	}
	return env, nil
}
