package factory

import (
	"testing"
	"time"
)

type sinkConf struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
	Retries int           `json:"retries"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sinkConf]()
	if err := reg.Register("webhook", func(conf map[string]any) (*sinkConf, error) {
		var c sinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &c, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "webhook", Conf: map[string]any{
		"url":     "http://sheets",
		"timeout": "3s",
		"retries": "2",
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.URL != "http://sheets" || inst.Timeout != 3*time.Second || inst.Retries != 2 {
		t.Fatalf("unexpected decode %+v", inst)
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "missing"}); err == nil {
		t.Fatal("expected unknown type error")
	}
	if got := reg.Types(); len(got) != 1 || got[0] != "x" {
		t.Fatalf("unexpected types %v", got)
	}
}
