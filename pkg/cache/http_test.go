package cache

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewArtifact(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "no content", status: http.StatusNoContent},
		{name: "upper bound", status: 299},
		{name: "redirect", status: http.StatusMovedPermanently, wantErr: true},
		{name: "not found", status: http.StatusNotFound, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
		{name: "informational", status: http.StatusContinue, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{"Content-Type": []string{"application/json"}}
			body := []byte(`{"test": "data"}`)

			artifact, err := NewArtifact(http.MethodGet, tt.status, header, body, 60)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewArtifact() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArtifact) {
					t.Errorf("error %v does not wrap ErrInvalidArtifact", err)
				}
				return
			}

			if artifact.Status != tt.status {
				t.Errorf("Status = %d, want %d", artifact.Status, tt.status)
			}
			if artifact.TTL != 60 {
				t.Errorf("TTL = %d, want 60", artifact.TTL)
			}
			if artifact.CachedAt.IsZero() {
				t.Error("CachedAt was not set")
			}

			// The artifact must not alias the captured buffers
			header.Set("Content-Type", "text/plain")
			body[0] = 'X'
			if got := artifact.Header.Get("Content-Type"); got != "application/json" {
				t.Errorf("Header aliased caller map: %q", got)
			}
			if artifact.Body[0] != '{' {
				t.Error("Body aliased caller slice")
			}
		})
	}
}

func TestArtifact_WriteTo(t *testing.T) {
	artifact := &Artifact{
		Status: http.StatusCreated,
		Method: http.MethodGet,
		Header: http.Header{
			"Content-Type": []string{"application/json"},
			"X-Multi":      []string{"a", "b"},
		},
		Body: []byte(`{"cached": true}`),
	}

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		if err := artifact.WriteTo(w, http.MethodGet); err != nil {
			t.Fatalf("WriteTo() error = %v", err)
		}
		if w.Code != http.StatusCreated {
			t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
		}
		if got := w.Body.String(); got != `{"cached": true}` {
			t.Errorf("body = %q", got)
		}
		if got := w.Header().Values("X-Multi"); len(got) != 2 {
			t.Errorf("X-Multi = %v, want 2 values", got)
		}
	})

	t.Run("head omits body", func(t *testing.T) {
		w := httptest.NewRecorder()
		if err := artifact.WriteTo(w, http.MethodHead); err != nil {
			t.Fatalf("WriteTo() error = %v", err)
		}
		if w.Body.Len() != 0 {
			t.Errorf("HEAD body length = %d, want 0", w.Body.Len())
		}
		if got := w.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
	})

	t.Run("nil artifact", func(t *testing.T) {
		var nilArtifact *Artifact
		if err := nilArtifact.WriteTo(httptest.NewRecorder(), http.MethodGet); err == nil {
			t.Error("WriteTo() on nil artifact should fail")
		}
	})
}
