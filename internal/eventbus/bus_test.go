package eventbus

import "testing"

func TestPublishSubscribe(t *testing.T) {
	bus := New[string](0)
	ch := bus.Subscribe()
	bus.Publish("hello")
	if v := <-ch; v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
	if bus.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", bus.Subscribers())
	}
}

func TestDropWhenFull(t *testing.T) {
	bus := New[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	if v := <-ch; v != 1 {
		t.Fatalf("expected first event, got %d", v)
	}
	if bus.Dropped() != 1 {
		t.Fatalf("expected one dropped event, got %d", bus.Dropped())
	}
}

func TestClose(t *testing.T) {
	bus := New[int](0)
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("expected subscription on a closed bus to be closed")
	}
	bus.Publish(1)
}

func TestUnsubscribeAfterClose(t *testing.T) {
	bus := New[float64](0)
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
