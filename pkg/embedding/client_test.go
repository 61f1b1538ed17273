package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"ai-lawyer-go/internal/config"
)

func newTestClient(t *testing.T, maxInputChars int, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.EmbeddingConfig{
		APIKey:        "test-key",
		BaseURL:       srv.URL,
		Model:         "test-embedding",
		MaxInputChars: maxInputChars,
	})
}

func TestCreateEmbedding_TruncatesInput(t *testing.T) {
	var received embeddingRequest
	client := newTestClient(t, 8, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{0.1, 0.2}}},
		})
	})

	// “证据” 占 6 字节，上限 8 落在后续 ASCII 里
	vector, err := client.CreateEmbedding(context.Background(), "证据"+strings.Repeat("x", 20))
	if err != nil {
		t.Fatalf("create embedding: %v", err)
	}
	if len(vector) != 2 {
		t.Fatalf("expected 2-dim vector, got %v", vector)
	}

	if len(received.Input) != 1 {
		t.Fatalf("expected single input, got %v", received.Input)
	}
	got := received.Input[0]
	if len(got) > 8 {
		t.Fatalf("input not truncated: %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated input is invalid UTF-8: %q", got)
	}
	if got != "证据xx" {
		t.Fatalf("input = %q, want %q", got, "证据xx")
	}
}

func TestCreateEmbedding_BacksOffToRuneBoundary(t *testing.T) {
	var received embeddingRequest
	client := newTestClient(t, 7, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{0.1}}},
		})
	})

	// 上限 7 落在第三个字中间，必须回退到 6
	if _, err := client.CreateEmbedding(context.Background(), "原告被告"); err != nil {
		t.Fatalf("create embedding: %v", err)
	}
	if got := received.Input[0]; got != "原告" {
		t.Fatalf("input = %q, want %q", got, "原告")
	}
}

func TestCreateEmbedding_RejectsEmptyVector(t *testing.T) {
	client := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]interface{}{}})
	})

	if _, err := client.CreateEmbedding(context.Background(), "some text"); err == nil {
		t.Fatalf("expected error for empty embedding data")
	}
}

func TestCreateEmbedding_NonOKStatus(t *testing.T) {
	client := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := client.CreateEmbedding(context.Background(), "some text"); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}
