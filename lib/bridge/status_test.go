package bridge

import (
	"errors"
	"testing"

	"nbkv/lib/engine"
)

func TestStatusFromErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     StatusCode
		cbErrNil bool
	}{
		{"nil", nil, StatusOK, true},
		{"not found", engine.ErrNotFound, StatusNotFound, true},
		{"wrapped not found", errors.Join(engine.ErrNotFound), StatusNotFound, true},
		{"closed", engine.ErrClosed, StatusInvalidState, false},
		{"io failure", errors.New("disk on fire"), StatusIOError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := statusFromErr(tt.err)
			if s.code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, s.code)
			}
			if (s.Err() == nil) != tt.cbErrNil {
				t.Errorf("expected callback error nil=%v, got %v", tt.cbErrNil, s.Err())
			}
		})
	}
}

func TestStatusErrMessage(t *testing.T) {
	s := statusFromErr(errors.New("corruption: bad block"))
	var bErr *Error
	if !errors.As(s.Err(), &bErr) {
		t.Fatalf("expected *Error, got %T", s.Err())
	}
	if bErr.Code != StatusIOError {
		t.Errorf("expected IOError, got %s", bErr.Code)
	}
	if bErr.Error() != "nbkv: IOError: corruption: bad block" {
		t.Errorf("unexpected message: %s", bErr.Error())
	}
}

func TestNotFoundIsNotAFailure(t *testing.T) {
	s := statusFromErr(engine.ErrNotFound)
	if !s.NotFound() {
		t.Error("expected NotFound")
	}
	if s.failed() {
		t.Error("a read miss must not count as a failure")
	}
	if s.Err() != nil {
		t.Errorf("a read miss must not produce a callback error, got %v", s.Err())
	}
}
