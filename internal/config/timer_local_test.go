//go:build !gcloud

package config

import (
	"errors"
	"testing"
	"time"
)

func TestTimerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TimerConfig
		wantErr bool
	}{
		{name: "local", cfg: TimerConfig{Backend: TimerBackendLocal, CallTimeout: time.Second}},
		{
			name: "tasks",
			cfg: TimerConfig{
				Backend:         TimerBackendTasks,
				CallTimeout:     time.Second,
				PrimindTasksURL: "http://tasks",
				CallbackURL:     "http://svc/api/v1/reminders/fire",
			},
		},
		{name: "tasks without urls", cfg: TimerConfig{Backend: TimerBackendTasks, CallTimeout: time.Second}, wantErr: true},
		{name: "unknown backend", cfg: TimerConfig{Backend: "cron", CallTimeout: time.Second}, wantErr: true},
		{name: "zero timeout", cfg: TimerConfig{Backend: TimerBackendLocal}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := (&TimerConfig{Backend: "cron", CallTimeout: time.Second}).Validate(); !errors.Is(err, ErrUnknownTimer) {
		t.Errorf("Validate() error: got %v, want %v", err, ErrUnknownTimer)
	}
}

func TestTimerConfig_UsesRegistry(t *testing.T) {
	if (&TimerConfig{Backend: TimerBackendLocal}).UsesRegistry() {
		t.Errorf("local UsesRegistry(): got true, want false")
	}
	if !(&TimerConfig{Backend: TimerBackendTasks}).UsesRegistry() {
		t.Errorf("tasks UsesRegistry(): got false, want true")
	}
}
