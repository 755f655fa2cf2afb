package registry

import (
	"context"
	"testing"

	"incall-control/internal/call"
)

func TestMemoryStore_LookupMissIsNotAnError(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Lookup(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestMemoryStore_SaveThenRemove(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	snap := call.Snapshot{ID: 7, State: call.StateRinging, Address: "+15551234567", Connection: call.Connection{ID: "conn-7"}}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := s.Lookup(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if got.State != call.StateRinging || got.Connection.ID != "conn-7" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	if err := s.Remove(ctx, 7); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Lookup(ctx, 7); ok {
		t.Fatalf("expected miss after remove")
	}
}

func TestMemoryStore_SaveOverwritesState(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Save(ctx, call.Snapshot{ID: 1, State: call.StateRinging})
	_ = s.Save(ctx, call.Snapshot{ID: 1, State: call.StateActive})

	got, ok, _ := s.Lookup(ctx, 1)
	if !ok || got.State != call.StateActive {
		t.Fatalf("expected latest state, got %+v ok=%v", got, ok)
	}
}
