package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/roster/core/model"
)

func TestLedger_Commit(t *testing.T) {
	l := NewLedger([]model.Driver{{ID: "a", MonthlyBudget: 20 * time.Hour}})
	if err := l.Commit("a", 8*time.Hour); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := l.Remaining("a"); got != 12*time.Hour {
		t.Fatalf("expected 12h remaining got %s", got)
	}
	if err := l.Commit("a", 13*time.Hour); !errors.Is(err, ErrInsufficientHours) {
		t.Fatalf("expected insufficient hours, got %v", err)
	}
	if got := l.Remaining("a"); got != 12*time.Hour {
		t.Fatalf("rejected commit changed the ledger: %s", got)
	}
	if err := l.Commit("a", 12*time.Hour); err != nil {
		t.Fatalf("commit to zero: %v", err)
	}
	if l.Remaining("a") != 0 || l.Budget("a") != 20*time.Hour {
		t.Fatalf("unexpected state remaining=%s budget=%s", l.Remaining("a"), l.Budget("a"))
	}
}

func TestLedger_Rejects(t *testing.T) {
	l := NewLedger([]model.Driver{{ID: "a", MonthlyBudget: time.Hour}})
	if err := l.Commit("ghost", time.Minute); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected unknown driver, got %v", err)
	}
	if err := l.Commit("a", 0); err == nil {
		t.Fatalf("expected error for zero hours")
	}
	if err := l.Commit("a", -time.Minute); err == nil {
		t.Fatalf("expected error for negative hours")
	}
}

func TestLedger_CloneIsIndependent(t *testing.T) {
	l := NewLedger([]model.Driver{{ID: "a", MonthlyBudget: 10 * time.Hour}})
	cp := l.Clone()
	if err := cp.Commit("a", 4*time.Hour); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if l.Remaining("a") != 10*time.Hour {
		t.Fatalf("clone shares state with the original")
	}
	snap := cp.Snapshot()
	snap["a"] = 0
	if cp.Remaining("a") != 6*time.Hour {
		t.Fatalf("snapshot shares state with the ledger")
	}
}
