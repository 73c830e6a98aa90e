package mqtt

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTopicPrefix roots every roster topic.
const DefaultTopicPrefix = "roster"

// Topics published for a committed plan:
//
//	<prefix>/plans/<plan id>                    full PlanMessage
//	<prefix>/plans/latest                       same PlanMessage, retained
//	<prefix>/drivers/<driver id>/assignments    DriverMessage per driver
//	<prefix>/status                             "online" / LWT payload
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.TrimSuffix(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

func (t Topics) Plan(id string) string { return fmt.Sprintf("%s/plans/%s", t.prefix(), id) }

func (t Topics) Latest() string { return t.prefix() + "/plans/latest" }

func (t Topics) Driver(id string) string {
	return fmt.Sprintf("%s/drivers/%s/assignments", t.prefix(), id)
}

func (t Topics) Status() string { return t.prefix() + "/status" }

// Assignment is one committed route in a driver message. Hours use "H:MM".
type Assignment struct {
	RouteID string `json:"route_id"`
	Route   string `json:"route"`
	Date    string `json:"date"`
	Hours   string `json:"hours"`
	Origin  string `json:"origin"`
}

// DriverMessage tells one driver what they drive in a plan.
type DriverMessage struct {
	MessageID   string       `json:"message_id"`
	PlanID      string       `json:"plan_id"`
	DriverID    string       `json:"driver_id"`
	Name        string       `json:"name"`
	Remaining   string       `json:"remaining"`
	Assignments []Assignment `json:"assignments"`
	Timestamp   int64        `json:"timestamp"`
}

// PlanMessage summarises a plan.
type PlanMessage struct {
	MessageID  string    `json:"message_id"`
	PlanID     string    `json:"plan_id"`
	CreatedAt  time.Time `json:"created_at"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Assigned   int       `json:"assigned"`
	Unassigned int       `json:"unassigned"`
	Conflicts  int       `json:"conflicts"`
	Timestamp  int64     `json:"timestamp"`
}
