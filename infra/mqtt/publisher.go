package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	coremqtt "github.com/kilianp07/roster/core/mqtt"
	"github.com/kilianp07/roster/pkg/export"
)

// Message is one MQTT publication derived from a plan.
type Message struct {
	Topic    string
	Kind     string
	Retained bool
	Payload  []byte
}

// Message kinds, also the keys of Config.QoS.
const (
	KindPlan   = "plan"
	KindDriver = "driver"
	KindStatus = "status"
)

// Messages renders doc as the plan summary (by id and as the retained latest
// plan) followed by one assignment message per driver in doc order.
func Messages(doc export.Document, topics coremqtt.Topics, now time.Time) ([]Message, error) {
	sum := coremqtt.PlanMessage{
		MessageID:  uuid.NewString(),
		PlanID:     doc.ID,
		CreatedAt:  doc.CreatedAt,
		Assigned:   len(doc.Assignments),
		Unassigned: len(doc.Unassigned),
		Conflicts:  len(doc.Conflicts),
		Timestamp:  now.UnixMilli(),
	}
	if n := len(doc.Horizon); n > 0 {
		sum.From, sum.To = doc.Horizon[0].String(), doc.Horizon[n-1].String()
	}
	body, err := json.Marshal(sum)
	if err != nil {
		return nil, err
	}
	out := []Message{
		{Topic: topics.Plan(doc.ID), Kind: KindPlan, Payload: body},
		{Topic: topics.Latest(), Kind: KindPlan, Retained: true, Payload: body},
	}

	for _, d := range doc.Drivers {
		msg := coremqtt.DriverMessage{
			MessageID:   uuid.NewString(),
			PlanID:      doc.ID,
			DriverID:    d.DriverID,
			Name:        d.Name,
			Remaining:   d.Remaining,
			Assignments: []coremqtt.Assignment{},
			Timestamp:   now.UnixMilli(),
		}
		for _, a := range doc.AssignmentsFor(d.DriverID) {
			msg.Assignments = append(msg.Assignments, coremqtt.Assignment{
				RouteID: a.RouteID,
				Route:   a.Route,
				Date:    a.Date.String(),
				Hours:   a.Hours,
				Origin:  a.Origin,
			})
		}
		body, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{Topic: topics.Driver(d.DriverID), Kind: KindDriver, Retained: true, Payload: body})
	}
	return out, nil
}

// MockPublisher records the messages of every notified plan without a broker.
type MockPublisher struct {
	Topics   coremqtt.Topics
	Fail     error
	mu       sync.Mutex
	messages []Message
}

func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// Notify implements notify.Notifier.
func (m *MockPublisher) Notify(_ context.Context, doc export.Document) error {
	if m.Fail != nil {
		return m.Fail
	}
	msgs, err := Messages(doc, m.Topics, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.messages = append(m.messages, msgs...)
	m.mu.Unlock()
	return nil
}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}
