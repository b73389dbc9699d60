package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	apperrors "bookd/pkg/errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	return resp
}

func TestWriteError_DiscountReasonStaysServerSide(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteError(rec, apperrors.DiscountInvalid("expired")); err != nil {
		t.Fatal(err)
	}

	resp := decodeError(t, rec)
	if resp.Error != "discount code is not valid" {
		t.Errorf("expected the generic message, got %q", resp.Error)
	}
	if resp.Details != nil {
		t.Errorf("rejection reason must not reach the client, got %v", resp.Details)
	}
}

func TestWriteError_InternalCauseHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	cause := errors.New("dial tcp: connection refused")
	if err := WriteError(rec, apperrors.Internal("Failed to create booking", cause)); err != nil {
		t.Fatal(err)
	}

	resp := decodeError(t, rec)
	if resp.Error != "Internal server error" {
		t.Errorf("expected the generic message, got %q", resp.Error)
	}
	if resp.Details != nil {
		t.Errorf("internal details must not reach the client, got %v", resp.Details)
	}
}

func TestWriteError_ValidationDetailsPreserved(t *testing.T) {
	rec := httptest.NewRecorder()
	appErr := apperrors.Validation("booking validation failed", map[string]any{"errors": "customer_name too short"})
	if err := WriteError(rec, appErr); err != nil {
		t.Fatal(err)
	}

	resp := decodeError(t, rec)
	if resp.Details["errors"] != "customer_name too short" {
		t.Errorf("validation details should reach the client, got %v", resp.Details)
	}
}
