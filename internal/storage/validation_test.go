package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "GASTOS", wantErr: false},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "  \t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "table")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error = %v, want ErrEmptyString", err)
			}
		})
	}
}

func TestValidateSession(t *testing.T) {
	valid := model.StoredSession{
		ID:        "7f1c",
		UserID:    42,
		Flow:      model.FlowExpense,
		Payload:   []byte(`{}`),
		UpdatedAt: time.Now(),
	}

	tests := []struct {
		mutate  func(*model.StoredSession)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*model.StoredSession) {}},
		{name: "zero user", mutate: func(s *model.StoredSession) { s.UserID = 0 }, wantErr: ErrInvalidUserID},
		{name: "missing id", mutate: func(s *model.StoredSession) { s.ID = " " }, wantErr: ErrInvalidSession},
		{name: "unknown flow", mutate: func(s *model.StoredSession) { s.Flow = "poker" }, wantErr: ErrInvalidSession},
		{name: "empty payload", mutate: func(s *model.StoredSession) { s.Payload = nil }, wantErr: ErrInvalidSession},
		{name: "zero time", mutate: func(s *model.StoredSession) { s.UpdatedAt = time.Time{} }, wantErr: ErrInvalidSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := valid
			tt.mutate(&session)
			err := validateSession(session)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateSession() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateSession() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
