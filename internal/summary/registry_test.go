package summary

import (
	"context"
	"strings"
	"testing"
)

type namedBackend string

func (n namedBackend) SummarizeDocument(context.Context, string, string) (string, error) {
	return string(n), nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("Gemini", namedBackend("gemini"))
	reg.Register("openai", namedBackend("openai"))

	backend, err := reg.Resolve(" GEMINI ")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got, _ := backend.SummarizeDocument(context.Background(), "", ""); got != "gemini" {
		t.Fatalf("resolved wrong backend %q", got)
	}

	backend, err = reg.Resolve(ProviderNone)
	if err != nil || backend != nil {
		t.Fatalf("none must resolve to nil backend, got %v, %v", backend, err)
	}

	_, err = reg.Resolve("claude")
	if err == nil || !strings.Contains(err.Error(), "gemini, openai") {
		t.Fatalf("expected unknown provider error listing names, got %v", err)
	}
}
