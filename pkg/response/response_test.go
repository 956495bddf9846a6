package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, "", gin.H{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := parseBody(t, w)
	if body["success"] != true {
		t.Errorf("expected success true, got %v", body["success"])
	}
	if body["name"] != "test" {
		t.Errorf("expected payload merged at top level, got %v", body)
	}
	if _, ok := body["message"]; ok {
		t.Errorf("expected message to be omitted, got %v", body["message"])
	}
}

func TestSuccess_PayloadCannotOverrideEnvelope(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, "done", gin.H{"success": false, "message": "other"})
	})

	body := parseBody(t, w)
	if body["success"] != true || body["message"] != "done" {
		t.Errorf("envelope fields overridden: %v", body)
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, "Proposal submitted", gin.H{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	body := parseBody(t, w)
	if body["message"] != "Proposal submitted" {
		t.Errorf("expected message 'Proposal submitted', got %v", body["message"])
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(c *gin.Context, msg string)
		status int
	}{
		{"bad request", BadRequest, http.StatusBadRequest},
		{"unauthorized", Unauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden, http.StatusForbidden},
		{"not found", NotFound, http.StatusNotFound},
		{"too many requests", TooManyRequests, http.StatusTooManyRequests},
		{"server error", ServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				tt.fn(c, "boom")
			})
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			body := parseBody(t, w)
			if body["success"] != false {
				t.Errorf("expected success false, got %v", body["success"])
			}
			if body["message"] != "boom" {
				t.Errorf("expected message 'boom', got %v", body["message"])
			}
		})
	}
}

func TestMethodNotAllowed_WithPayload(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		MethodNotAllowed(c, "use POST", gin.H{"allowedMethods": []string{"POST"}})
	})
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
	body := parseBody(t, w)
	if body["message"] != "use POST" {
		t.Errorf("unexpected message %v", body["message"])
	}
	if methods, ok := body["allowedMethods"].([]interface{}); !ok || len(methods) != 1 {
		t.Errorf("expected allowedMethods in payload, got %v", body["allowedMethods"])
	}
}

func TestError_WithAppError(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewValidation("Title is required"), http.StatusBadRequest},
		{NewAuthentication("Invalid email or password"), http.StatusUnauthorized},
		{NewAuthorization("Not authorized"), http.StatusForbidden},
		{NewNotFound("Proposal not found"), http.StatusNotFound},
		{NewConflict("User already exists"), http.StatusBadRequest},
		{NewState("Cannot update proposal in current status"), http.StatusBadRequest},
		{NewDelivery("Failed to send collaboration invitation", errors.New("dial tcp: refused")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Error(c, fmt.Errorf("wrapped: %w", tt.err))
			})
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			body := parseBody(t, w)
			if body["message"] != tt.err.Message {
				t.Errorf("expected message %q, got %v", tt.err.Message, body["message"])
			}
		})
	}
}

func TestError_HidesPersistenceCause(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, NewPersistence("failed to save proposal", errors.New("disk I/O error")))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	body := parseBody(t, w)
	if body["message"] != GenericServerMessage {
		t.Errorf("expected generic message, got %v", body["message"])
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("something went wrong"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	body := parseBody(t, w)
	if body["message"] != GenericServerMessage {
		t.Errorf("expected generic message, got %v", body["message"])
	}
}

func TestAppError_Kinds(t *testing.T) {
	cause := errors.New("unique constraint")
	err := NewPersistence("failed to save", cause)

	if !errors.Is(err, cause) {
		t.Error("expected persistence error to unwrap to its cause")
	}
	if !IsKind(fmt.Errorf("outer: %w", err), KindPersistence) {
		t.Error("expected IsKind to see through wrapping")
	}
	if IsKind(errors.New("plain"), KindValidation) {
		t.Error("plain errors have no kind")
	}
	if IsKind(nil, KindValidation) {
		t.Error("nil has no kind")
	}
	if NewNotFound("user not found").Error() != "user not found" {
		t.Errorf("unexpected Error() text")
	}
}
