package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hostelhub-backend-go/internal/services"
)

func newValidatingServer() *Server {
	return &Server{Validator: services.NewFormValidator()}
}

func TestValidateStepBlocksInvalidFields(t *testing.T) {
	s := newValidatingServer()
	body := `{"step":0,"role":"student","name":"A","email":"nope","contact":"12345","password":"short"}`
	rec := httptest.NewRecorder()
	s.ValidateStep(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register/validate-step", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ValidateStepResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Valid {
		t.Fatalf("expected invalid step")
	}
	if resp.NextStep != "BasicInfo" {
		t.Fatalf("expected to stay on BasicInfo, got %s", resp.NextStep)
	}
	for _, field := range []string{"name", "email", "contact", "password"} {
		if _, ok := resp.Errors[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, resp.Errors)
		}
	}
}

func TestValidateStepAdvances(t *testing.T) {
	s := newValidatingServer()
	body := `{"step":0,"role":"owner","name":"Ravi Kumar","email":"ravi@example.in","contact":"9876543210","password":"longenough"}`
	rec := httptest.NewRecorder()
	s.ValidateStep(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register/validate-step", strings.NewReader(body)))
	var resp ValidateStepResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Valid || resp.NextStep != "AdditionalInfo" {
		t.Fatalf("expected advance to AdditionalInfo, got %+v", resp)
	}
}

func TestValidateStepRejectsNonFormStep(t *testing.T) {
	s := newValidatingServer()
	rec := httptest.NewRecorder()
	s.ValidateStep(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register/validate-step", strings.NewReader(`{"step":3}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDecodeJSONRunsValidation(t *testing.T) {
	s := newValidatingServer()
	var req HostelRequest
	rec := httptest.NewRecorder()
	ok := s.decodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), &req)
	if ok || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got ok=%v code=%d", ok, rec.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if _, found := resp.Errors["hostelId"]; !found {
		t.Fatalf("expected hostelId error, got %v", resp.Errors)
	}
}

func TestWriteFailureMapsServiceErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cases := []struct {
		err  error
		want int
		msg  string
	}{
		{services.ErrConflict("Wishlist is full"), http.StatusConflict, "Wishlist is full"},
		{services.ErrNotFound("Hostel not found"), http.StatusNotFound, "Hostel not found"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeFailure(rec, req, tc.err)
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
		var resp ErrorResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Message != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, resp.Message)
		}
	}
}

func TestEventsSocketRequiresToken(t *testing.T) {
	s := &Server{Tokens: testTokens(), Events: services.NewEventHub()}
	rec := httptest.NewRecorder()
	s.EventsSocket(rec, httptest.NewRequest(http.MethodGet, "/ws/events", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	s.EventsSocket(rec, httptest.NewRequest(http.MethodGet, "/ws/events?token=garbage", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestResendRegistrationOTPRequiresUserID(t *testing.T) {
	s := newValidatingServer()
	rec := httptest.NewRecorder()
	s.ResendRegistrationOTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/resend-registration-otp", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPrivateMediaRouteRequiresToken(t *testing.T) {
	s := &Server{Tokens: testTokens()}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/media/private/abc/content", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
