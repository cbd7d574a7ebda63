package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/attest/pkg/handlers"
	"github.com/JaimeStill/attest/pkg/validation"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
	}{
		{
			name:       "200 with map",
			status:     http.StatusOK,
			data:       map[string]string{"key": "value"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "201 with struct",
			status:     http.StatusCreated,
			data:       struct{ ID int }{ID: 42},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondJSON(rec, tt.status, tt.data)

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if ct := res.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %s", ct)
			}

			body, _ := io.ReadAll(res.Body)
			var parsed map[string]any
			if err := json.Unmarshal(body, &parsed); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("plain error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handlers.RespondError(rec, logger, http.StatusConflict, errors.New("already decided"))

		if rec.Code != http.StatusConflict {
			t.Errorf("status: got %d, want 409", rec.Code)
		}

		var parsed map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if parsed["error"] != "already decided" {
			t.Errorf("error: got %s, want already decided", parsed["error"])
		}
	})

	t.Run("validation error lists fields", func(t *testing.T) {
		var v validation.Errors
		v.Required("type_name", "")
		v.Required("spec_link", "")

		rec := httptest.NewRecorder()
		handlers.RespondError(rec, logger, http.StatusBadRequest, v.Err())

		var parsed struct {
			Error  string   `json:"error"`
			Fields []string `json:"fields"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(parsed.Fields) != 2 {
			t.Fatalf("fields: got %d, want 2", len(parsed.Fields))
		}
		if parsed.Fields[0] != "type_name: must not be blank" {
			t.Errorf("fields[0]: got %s", parsed.Fields[0])
		}
	})
}
