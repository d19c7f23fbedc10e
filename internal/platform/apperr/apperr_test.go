package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFound("sick leave %s not found", "x"), http.StatusNotFound},
		{Conflict("duplicate code"), http.StatusConflict},
		{Validation("end date before start date"), http.StatusBadRequest},
		{Unavailable("auth service unavailable", nil), http.StatusServiceUnavailable},
		{Forbidden("insufficient role"), http.StatusForbidden},
		{Internal("query failed", errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("Status() for kind %d = %d, want %d", tt.err.Kind, got, tt.want)
		}
	}
}

func TestAs_Wrapped(t *testing.T) {
	inner := NotFound("assignment not found")
	wrapped := fmt.Errorf("loading assignment: %w", inner)

	e, ok := As(wrapped)
	if !ok {
		t.Fatal("expected As to find wrapped *Error")
	}
	if e.Kind != KindNotFound {
		t.Errorf("expected KindNotFound, got %d", e.Kind)
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsConflict(wrapped) {
		t.Error("IsConflict should be false for a not-found error")
	}
}

func TestEchoHandler_ClassifiedError(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = EchoHandler(zerolog.Nop())
	e.GET("/x", func(c echo.Context) error {
		return Conflict("assignment overlaps an active assignment")
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Code != http.StatusConflict {
		t.Errorf("expected code 409 in body, got %d", body.Code)
	}
	if body.Message != "assignment overlaps an active assignment" {
		t.Errorf("unexpected message: %q", body.Message)
	}
}

func TestEchoHandler_UnclassifiedError(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = EchoHandler(zerolog.Nop())
	e.GET("/x", func(c echo.Context) error {
		return errors.New("pg: connection reset")
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Message != "internal server error" {
		t.Errorf("internal detail must not leak, got %q", body.Message)
	}
}

func TestEchoHandler_EchoHTTPError(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = EchoHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", rec.Code)
	}
}
