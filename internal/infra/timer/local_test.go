package timer

import (
	"context"
	"testing"
	"time"
)

func TestLocalServiceFiresPayload(t *testing.T) {
	svc := NewLocalService()
	fired := make(chan Payload, 1)
	svc.OnFire(func(_ context.Context, p Payload) {
		fired <- p
	})

	want := Payload{ItemID: 7, Kind: FireScheduled}
	if err := svc.InstallOrReplace(context.Background(), Name(7), 10*time.Millisecond, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-fired:
		if got.ItemID != want.ItemID || got.Kind != want.Kind {
			t.Errorf("payload: got %+v, want %+v", got, want)
		}
		if got.Token == "" {
			t.Error("expected a generation token")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	if svc.Pending(Name(7)) {
		t.Error("fired timer should no longer be pending")
	}
}

func TestLocalServiceReplaceSupersedes(t *testing.T) {
	svc := NewLocalService()
	fired := make(chan Payload, 4)
	svc.OnFire(func(_ context.Context, p Payload) {
		fired <- p
	})

	ctx := context.Background()
	name := Name(1)

	if err := svc.InstallOrReplace(ctx, name, 20*time.Millisecond, Payload{ItemID: 1, Kind: FireScheduled}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.InstallOrReplace(ctx, name, 40*time.Millisecond, Payload{ItemID: 1, Kind: FireSnooze}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := svc.Len(); got != 1 {
		t.Fatalf("pending timers: got %d, want 1", got)
	}

	select {
	case got := <-fired:
		if got.Kind != FireSnooze {
			t.Errorf("kind: got %q, want %q", got.Kind, FireSnooze)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	select {
	case got := <-fired:
		t.Fatalf("superseded timer fired: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalServiceCancel(t *testing.T) {
	svc := NewLocalService()
	fired := make(chan Payload, 1)
	svc.OnFire(func(_ context.Context, p Payload) {
		fired <- p
	})

	ctx := context.Background()
	if err := svc.InstallOrReplace(ctx, Name(3), 20*time.Millisecond, Payload{ItemID: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Cancel(ctx, Name(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Cancel(ctx, Name(3)); err != nil {
		t.Fatalf("second cancel should be a no-op: %v", err)
	}

	select {
	case got := <-fired:
		t.Fatalf("cancelled timer fired: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalServiceStop(t *testing.T) {
	svc := NewLocalService()
	ctx := context.Background()

	if err := svc.InstallOrReplace(ctx, Name(1), time.Hour, Payload{ItemID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Stop()

	if got := svc.Len(); got != 0 {
		t.Errorf("pending timers after stop: got %d, want 0", got)
	}
	if err := svc.InstallOrReplace(ctx, Name(2), time.Hour, Payload{ItemID: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Pending(Name(2)) {
		t.Error("install after stop should be ignored")
	}
}

func TestNameRoundTrip(t *testing.T) {
	if got := Name(42); got != "reminder_notification_42" {
		t.Errorf("Name: got %q", got)
	}

	id, err := ParseName(Name(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("ParseName: got %d, want 42", id)
	}

	for _, bad := range []string{"42", "reminder_notification_x", "other_42"} {
		if _, err := ParseName(bad); err == nil {
			t.Errorf("ParseName(%q): expected error", bad)
		}
	}
}
