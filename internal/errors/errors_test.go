package errors

import (
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "match not found",
	}

	expected := "NOT_FOUND: match not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("user_id is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "user_id is required" {
		t.Errorf("Message = %q, want %q", err.Message, "user_id is required")
	}
}

func TestNewInvalidFrameSet(t *testing.T) {
	err := NewInvalidFrameSet("expected 10 frames, got 9")

	if err.Code != ErrInvalidFrameSet {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidFrameSet)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
}

func TestNewInvalidFrame(t *testing.T) {
	err := NewInvalidFrame(4, "second ball knocks down 5 pins but only 3 were standing")

	if err.Code != ErrInvalidFrame {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidFrame)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Details["frame_number"] != 4 {
		t.Errorf("Details[frame_number] = %v, want 4", err.Details["frame_number"])
	}
	if err.Message != "frame 4: second ball knocks down 5 pins but only 3 were standing" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("01HZX")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "01HZX" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01HZX")
	}
}

func TestNewMatchNotEmpty(t *testing.T) {
	err := NewMatchNotEmpty("01HZX", 3)

	if err.Code != ErrMatchNotEmpty {
		t.Errorf("Code = %q, want %q", err.Code, ErrMatchNotEmpty)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Details["frames"] != 3 {
		t.Errorf("Details[frames] = %v, want 3", err.Details["frames"])
	}
}

func TestNewFileTooLarge(t *testing.T) {
	err := NewFileTooLarge(10*1024*1024, 15*1024*1024)

	if err.Code != ErrFileTooLarge {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileTooLarge)
	}
	if err.Status != 413 {
		t.Errorf("Status = %d, want 413", err.Status)
	}
	if err.Details["max_bytes"] != int64(10*1024*1024) {
		t.Errorf("Details[max_bytes] = %v, want %v", err.Details["max_bytes"], int64(10*1024*1024))
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("export")

	if err.Code != ErrCancelled {
		t.Errorf("Code = %q, want %q", err.Code, ErrCancelled)
	}
	if err.Message != "export cancelled" {
		t.Errorf("Message = %q, want %q", err.Message, "export cancelled")
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("disk full"))
	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Message != "disk full" {
		t.Errorf("Message = %q, want %q", err.Message, "disk full")
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("x")

	if !Is(err, ErrNotFound) {
		t.Error("Is(err, ErrNotFound) = false, want true")
	}
	if Is(err, ErrConflict) {
		t.Error("Is(err, ErrConflict) = true, want false")
	}
	if Is(fmt.Errorf("plain"), ErrNotFound) {
		t.Error("Is(plain error) = true, want false")
	}
	if Is(nil, ErrNotFound) {
		t.Error("Is(nil) = true, want false")
	}
}

func TestIs_Wrapped(t *testing.T) {
	err := fmt.Errorf("record frame: %w", NewInvalidFrame(2, "bad"))

	if !Is(err, ErrInvalidFrame) {
		t.Error("Is(wrapped, ErrInvalidFrame) = false, want true")
	}
	appErr, ok := As(err)
	if !ok {
		t.Fatal("As(wrapped) = false, want true")
	}
	if appErr.Status != 422 {
		t.Errorf("Status = %d, want 422", appErr.Status)
	}
}
