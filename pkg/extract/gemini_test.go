package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubGemini serves a canned generateContent reply.
func stubGemini(t *testing.T, status int, replyText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Errorf("expected prompt+image parts, got %+v", req.Contents)
		}
		w.WriteHeader(status)
		if replyText == "" {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
			return
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": replyText}},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testExtractor(srv *httptest.Server) *GeminiExtractor {
	g := NewGeminiExtractor("test-key", "gemini-1.5-pro")
	g.Endpoint = srv.URL
	g.Client = srv.Client()
	return g
}

func TestGeminiExtractFencedReply(t *testing.T) {
	srv := stubGemini(t, http.StatusOK, "```json\n{\"fullName\":\"Jane Doe\",\"dob\":\"01-01-1990\"}\n```")
	defer srv.Close()
	f, err := testExtractor(srv).Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.FullName != "Jane Doe" || f.DOB != "01-01-1990" {
		t.Fatalf("unexpected fields: %+v", f)
	}
}

func TestGeminiExtractNoCandidates(t *testing.T) {
	srv := stubGemini(t, http.StatusOK, "")
	defer srv.Close()
	if _, err := testExtractor(srv).Extract(context.Background(), []byte("img")); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText got %v", err)
	}
}

func TestGeminiExtractServiceError(t *testing.T) {
	srv := stubGemini(t, http.StatusTooManyRequests, "quota")
	defer srv.Close()
	if _, err := testExtractor(srv).Extract(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestGeminiExtractUnparseableReply(t *testing.T) {
	srv := stubGemini(t, http.StatusOK, "the name is Jane and she was born long ago")
	defer srv.Close()
	if _, err := testExtractor(srv).Extract(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected error for unparseable reply")
	}
}

func TestGeminiExtractTransportFailure(t *testing.T) {
	srv := stubGemini(t, http.StatusOK, "")
	srv.Close() // refuse connections
	if _, err := testExtractor(srv).Extract(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected transport error")
	}
}
