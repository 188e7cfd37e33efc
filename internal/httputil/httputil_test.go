package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/payeasy/payeasy-api/internal/errors"
)

func TestReadAllWithLimit(t *testing.T) {
	data, truncated, err := ReadAllWithLimit(strings.NewReader("hello world"), 5)
	if err != nil {
		t.Fatalf("ReadAllWithLimit() error: %v", err)
	}
	if !truncated || string(data) != "hello" {
		t.Fatalf("got %q truncated=%v, want \"hello\" truncated=true", data, truncated)
	}

	data, truncated, err = ReadAllWithLimit(strings.NewReader("hi"), 5)
	if err != nil || truncated || string(data) != "hi" {
		t.Fatalf("got %q truncated=%v err=%v", data, truncated, err)
	}

	if _, _, err := ReadAllWithLimit(strings.NewReader("x"), 0); err == nil {
		t.Fatal("expected error for zero limit")
	}
}

func TestReadAllStrict(t *testing.T) {
	if _, err := ReadAllStrict(strings.NewReader("123456"), 5); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("ReadAllStrict() error = %v, want ErrBodyTooLarge", err)
	}
	data, err := ReadAllStrict(strings.NewReader("12345"), 5)
	if err != nil || string(data) != "12345" {
		t.Fatalf("ReadAllStrict() = %q, %v", data, err)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantCode   string
	}{
		{
			name:       "validation",
			err:        apperrors.Validation(apperrors.CodeMissingField, "username is required"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "username is required",
			wantCode:   "MISSING_FIELD",
		},
		{
			name:       "conflict",
			err:        apperrors.Conflict(apperrors.CodeUsernameTaken, "Username is already taken"),
			wantStatus: http.StatusConflict,
			wantMsg:    "Username is already taken",
			wantCode:   "USERNAME_TAKEN",
		},
		{
			name:       "wrapped service error",
			err:        fmt.Errorf("register: %w", apperrors.Forbidden("Forbidden")),
			wantStatus: http.StatusForbidden,
			wantMsg:    "Forbidden",
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "plain error hides detail",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteServiceError(rr, nil, tt.err)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var body APIResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Error("success = true, want false")
			}
			if body.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMsg)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestWriteCreated(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteCreated(rr, map[string]string{"id": "u1"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"success":true`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}
