package docqa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(ServiceInfo{Service: "docqa"})
	}, WithAPIKey("secret"))

	if _, err := c.Info(context.Background()); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization header = %q, want Bearer secret", gotAuth)
	}
}

func TestClient_NoTokenWithoutAPIKey(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(ServiceInfo{})
	})

	if _, err := c.Info(context.Background()); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("unexpected authorization header %q", gotAuth)
	}
}

func TestClient_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Question != "how to reset" || req.TopK != 3 {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(Answer{
			Question:    req.Question,
			Answer:      "hold the button for 10 seconds",
			Sources:     []Source{{DocName: "manual", PageNum: 4, Score: 0.93}},
			TotalTokens: 120,
			Timing:      Timing{RetrievalSec: 0.02, SynthesisSec: 1.1, TotalSec: 1.12},
		})
	})

	a, err := c.Query(context.Background(), QueryRequest{Question: "how to reset", TopK: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if a.Answer != "hold the button for 10 seconds" {
		t.Errorf("answer = %q", a.Answer)
	}
	if len(a.Sources) != 1 || a.Sources[0].DocName != "manual" {
		t.Errorf("sources = %+v", a.Sources)
	}
}

func TestClient_Ingest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req IngestRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Path != "/data/manuals" || req.Collection != "kb" {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(IngestResult{
			Collection: "kb",
			Files:      []FileResult{{Path: "/data/manuals/a.pdf", Pages: 2, Chunks: 5}},
			Stats:      Stats{TotalPages: 2, TotalChunks: 5, DocumentsIngested: 1},
		})
	})

	res, err := c.Ingest(context.Background(), "/data/manuals", "kb")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Stats.DocumentsIngested != 1 || len(res.Files) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"collection not found", http.StatusNotFound, "collection_not_found", ErrCollectionNotFound},
		{"not found", http.StatusNotFound, "not_found", ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, "unauthorized", ErrUnauthorized},
		{"validation", http.StatusBadRequest, "validation_failed", ErrInvalidRequest},
		{"embedder missing", http.StatusNotImplemented, "embedder_not_configured", ErrEmbedderNotConfigured},
		{"store down", http.StatusServiceUnavailable, "store_unavailable", ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code": tt.code, "message": tt.name,
				})
			})

			_, err := c.Query(context.Background(), QueryRequest{Question: "q"})
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not match sentinel %v", err, tt.sentinel)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not an APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Code != tt.code {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestClient_UnknownErrorCodeKeepsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code": "internal_error", "message": "internal error",
		})
	})

	_, err := c.Info(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRequest) {
		t.Error("unknown code must not match any sentinel")
	}
}

func TestClient_ImageDecodesBase64(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/docs/images/manual_page_2_image" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"data_b64": base64.StdEncoding.EncodeToString(png),
		})
	})

	got, err := c.Image(context.Background(), "docs", "manual_page_2_image")
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if string(got) != string(png) {
		t.Errorf("image bytes = %v, want %v", got, png)
	}
}

func TestClient_Health_DegradedStillDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(Health{
			Status: "degraded",
			Checks: map[string]string{"store": "failed"},
		})
	})

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "degraded" || h.Checks["store"] != "failed" {
		t.Errorf("health = %+v", h)
	}
}

func TestClient_DeleteCollection_NoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteCollection(context.Background(), "docs"); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
}
