package transact

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/commonsdao/fundbot/src/types"
)

func writeFile(path string) error {
	return os.WriteFile(path, nil, 0o644)
}

func TestSendTransactionSuccess(t *testing.T) {
	store := newFakeStore()
	store.balances["<@7>"] = &types.FreeBalance{Author: "<@7>", Balance: 100}
	s := &fakeSession{}
	notifier := &fakeNotifier{}
	h := testHandler(store, notifier, "no-such-file")

	if err := h.process(s, testMessage("!tips <@42> 20 thanks", "42")); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := store.balances["<@7>"].Balance; got != 80 {
		t.Errorf("balance = %v, want 80", got)
	}
	if len(store.history) != 1 {
		t.Fatalf("history has %d records, want 1", len(store.history))
	}
	tx := store.history[0]
	if tx.Amount != 20 || tx.Author != "<@7>" || tx.Mentions != "<@42>" || tx.Description != "thanks" {
		t.Errorf("history record = %+v", tx)
	}
	if tx.SubmittedAt.IsZero() {
		t.Error("history record has no submission time")
	}
	if !s.reacted(reactionSucceeded) {
		t.Error("expected the success reaction")
	}
	if len(notifier.requests) != 1 {
		t.Fatalf("notifier got %d requests, want 1", len(notifier.requests))
	}
	req := notifier.requests[0]
	if req.Amount != "20" || req.Balance != "80" || len(req.Mentions) != 1 {
		t.Errorf("grant request = %+v", req)
	}
	if !strings.Contains(req.JumpURL, "333/222/111") {
		t.Errorf("jump URL = %q", req.JumpURL)
	}
}

func TestSendTransactionMultipleRecipients(t *testing.T) {
	store := newFakeStore()
	store.balances["<@7>"] = &types.FreeBalance{Author: "<@7>", Balance: 100}
	s := &fakeSession{}
	h := testHandler(store, &fakeNotifier{}, "no-such-file")

	if err := h.process(s, testMessage("!tips <@42> <@43> 20 thanks", "42", "43")); err != nil {
		t.Fatalf("process: %v", err)
	}

	// 20 per recipient, two recipients.
	if got := store.balances["<@7>"].Balance; got != 60 {
		t.Errorf("balance = %v, want 60", got)
	}
	if len(store.history) != 1 || store.history[0].Amount != 40 {
		t.Errorf("history = %+v, want one record with total 40", store.history)
	}
}

func TestSendTransactionLazyBalanceCreation(t *testing.T) {
	store := newFakeStore()
	s := &fakeSession{}
	h := testHandler(store, &fakeNotifier{}, "no-such-file")

	if err := h.process(s, testMessage("!tips <@42> 20 thanks", "42")); err != nil {
		t.Fatalf("process: %v", err)
	}

	balance := store.balances["<@7>"]
	if balance == nil {
		t.Fatal("no balance record created for a first-time author")
	}
	// Season limit 100, minus the 20 sent.
	if balance.Balance != 80 {
		t.Errorf("balance = %v, want 80", balance.Balance)
	}
}

func TestSendTransactionInsufficientBalance(t *testing.T) {
	store := newFakeStore()
	store.balances["<@7>"] = &types.FreeBalance{Author: "<@7>", Balance: 10}
	s := &fakeSession{}
	notifier := &fakeNotifier{}
	h := testHandler(store, notifier, "no-such-file")

	if err := h.process(s, testMessage("!tips <@42> 20 thanks", "42")); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := store.balances["<@7>"].Balance; got != 10 {
		t.Errorf("balance = %v, want unchanged 10", got)
	}
	if len(store.history) != 0 {
		t.Errorf("history = %v, want empty", store.history)
	}
	if !s.reacted(reactionFailed) {
		t.Error("expected the failure reaction")
	}
	if len(notifier.requests) != 0 {
		t.Errorf("grant notifier called despite failed validation: %v", notifier.requests)
	}
}

func TestSendTransactionNotifyFailureKeepsDebit(t *testing.T) {
	store := newFakeStore()
	store.balances["<@7>"] = &types.FreeBalance{Author: "<@7>", Balance: 100}
	s := &fakeSession{}
	notifier := &fakeNotifier{err: errors.New("channel unavailable")}
	h := testHandler(store, notifier, "no-such-file")

	err := h.process(s, testMessage("!tips <@42> 20 thanks", "42"))
	if err == nil {
		t.Fatal("process: err = nil, want the notify failure to propagate")
	}

	// The debit stays: the database side is the recoverable one.
	if got := store.balances["<@7>"].Balance; got != 80 {
		t.Errorf("balance = %v, want debited 80", got)
	}
	if len(store.history) != 0 {
		t.Errorf("history = %v, want empty after a failed grant", store.history)
	}
	if !contains(s.sends, "Could not apply grant") {
		t.Errorf("expected the failed-grant notice, got %v", s.sends)
	}
	if s.reacted(reactionSucceeded) {
		t.Error("success reaction applied despite the failed grant")
	}
}

func contains(haystack []string, fragment string) bool {
	for _, s := range haystack {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	v := NewValidator()
	balance := &types.FreeBalance{Author: "<@7>", Balance: 50}

	tests := []struct {
		name        string
		mentions    []string
		amount      float64
		description string
		wantOK      bool
	}{
		{name: "valid", mentions: []string{"<@42>"}, amount: 20, description: "thanks", wantOK: true},
		{name: "exact balance", mentions: []string{"<@42>", "<@43>"}, amount: 25, description: "thanks", wantOK: true},
		{name: "no mentions", mentions: nil, amount: 20, description: "thanks", wantOK: false},
		{name: "zero amount", mentions: []string{"<@42>"}, amount: 0, description: "thanks", wantOK: false},
		{name: "negative amount", mentions: []string{"<@42>"}, amount: -5, description: "thanks", wantOK: false},
		{name: "blank description", mentions: []string{"<@42>"}, amount: 20, description: "   ", wantOK: false},
		{name: "insufficient balance", mentions: []string{"<@42>", "<@43>", "<@44>"}, amount: 20, description: "thanks", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := v.Validate(balance, tt.mentions, tt.amount, tt.description)
			if ok != tt.wantOK {
				t.Errorf("Validate = %v (%q), want %v", ok, reason, tt.wantOK)
			}
			if !ok && reason == "" {
				t.Error("rejection without a user-facing reason")
			}
		})
	}
}
