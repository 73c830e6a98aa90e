// Package notify publishes committed plans to downstream consumers such as
// the shared planning sheet or MQTT subscribers.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/roster/core/factory"
	"github.com/kilianp07/roster/pkg/export"
)

// Notifier delivers a committed plan.
type Notifier interface {
	Notify(ctx context.Context, doc export.Document) error
}

// Closer is implemented by notifiers holding connections.
type Closer interface {
	Close() error
}

var registry = factory.NewRegistry[Notifier]()

// Register adds a notifier factory identified by name.
func Register(name string, f factory.Factory[Notifier]) error {
	return registry.Register(name, f)
}

// Types lists the registered notifier names.
func Types() []string { return registry.Types() }

// New builds one notifier per configuration entry and fans them out.
func New(cfgs []factory.ModuleConfig) (*Multi, error) {
	m := &Multi{}
	for _, c := range cfgs {
		n, err := registry.Create(c)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("notifier %s: %w", c.Type, err)
		}
		m.notifiers = append(m.notifiers, n)
	}
	return m, nil
}

// Multi fans a plan out to several notifiers. Every notifier is attempted;
// the failures are joined.
type Multi struct {
	notifiers []Notifier
}

// NewMulti wraps ns.
func NewMulti(ns ...Notifier) *Multi { return &Multi{notifiers: ns} }

func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Notify(ctx context.Context, doc export.Document) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every notifier implementing Closer.
func (m *Multi) Close() error {
	var errs []error
	for _, n := range m.notifiers {
		if c, ok := n.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, doc export.Document) error

func (f Func) Notify(ctx context.Context, doc export.Document) error { return f(ctx, doc) }
