package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"DocketWatch/internal/config"
)

func TestChatGPTSummarizeDocument(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer token")
		}
		var body struct {
			Model    string              `json:"model"`
			Messages []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "gpt-test" || len(body.Messages) != 2 {
			t.Errorf("unexpected request: %+v", body)
		}
		if body.Messages[0]["content"] != "You are a helpful assistant that summarizes FCC filings." {
			t.Errorf("expected default system prompt, got %q", body.Messages[0]["content"])
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Summary text."}}]}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "gpt-test", APIKey: "k"}, server.Client())
	got, err := client.SummarizeDocument(context.Background(), "https://ecfs/doc.pdf", "Petition")
	if err != nil {
		t.Fatalf("SummarizeDocument error: %v", err)
	}
	if got != "Summary text." {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestChatGPTSummarizeDocumentErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "m", APIKey: "k"}, server.Client())
	_, err := client.SummarizeDocument(context.Background(), "u", "t")
	if err == nil || !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Fatalf("expected decoded api error, got %v", err)
	}
}

func TestChatGPTMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewChatGPTClient(config.ChatGPTConfig{}, nil)
	if _, err := client.SummarizeDocument(context.Background(), "u", "t"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestChatGPTNoChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "m", APIKey: "k"}, server.Client())
	if _, err := client.SummarizeDocument(context.Background(), "u", "t"); !errors.Is(err, ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}
