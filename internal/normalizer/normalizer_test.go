package normalizer

import (
	"errors"
	"testing"
	"time"

	"DocketWatch/internal/domain"
)

func newTestNormalizer() *Normalizer {
	return New("https://ecfs.example/api/", "https://www.example/ecfs/filing")
}

func TestNormalizeFullRecord(t *testing.T) {
	t.Parallel()

	raw := domain.RawFiling{
		IDSubmission:     "1030123456789",
		BriefCommentText: "  Comments of <b>Acme</b>\n Broadband  ",
		ContactEmail:     "counsel@acme.example",
		LawfirmName:      "Smith & Jones LLP",
		DateDisseminated: "2024-03-01T05:00:00.000Z",
		Filers:           []domain.RawFiler{{Name: ""}, {Name: "Acme Broadband"}},
		Attachments: []domain.RawAttachment{
			{CleanFileName: "comments.pdf"},
			{CleanFileName: ""},
			{FileName: "exhibit a.pdf"},
		},
	}

	draft, err := newTestNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if draft.ExternalID != "1030123456789" {
		t.Fatalf("unexpected id: %s", draft.ExternalID)
	}
	if draft.Title != "Comments of Acme Broadband" {
		t.Fatalf("unexpected title: %q", draft.Title)
	}
	if draft.Author != "Acme Broadband" {
		t.Fatalf("unexpected author: %s", draft.Author)
	}
	if draft.AuthorOrganization == nil || *draft.AuthorOrganization != "Smith & Jones LLP" {
		t.Fatalf("unexpected organization: %v", draft.AuthorOrganization)
	}
	if draft.FilingURL != "https://www.example/ecfs/filing/1030123456789" {
		t.Fatalf("unexpected filing url: %s", draft.FilingURL)
	}

	wantURLs := []string{
		"https://ecfs.example/api/filing/1030123456789/download/comments.pdf",
		"https://ecfs.example/api/filing/1030123456789/download/exhibit%20a.pdf",
	}
	if len(draft.DocumentURLs) != len(wantURLs) {
		t.Fatalf("expected %d document urls, got %v", len(wantURLs), draft.DocumentURLs)
	}
	for i := range wantURLs {
		if draft.DocumentURLs[i] != wantURLs[i] {
			t.Fatalf("document url %d: want %s, got %s", i, wantURLs[i], draft.DocumentURLs[i])
		}
	}

	want := time.Date(2024, time.March, 1, 5, 0, 0, 0, time.UTC)
	if draft.FiledAt == nil || !draft.FiledAt.Equal(want) {
		t.Fatalf("unexpected filed at: %v", draft.FiledAt)
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	t.Parallel()

	draft, err := newTestNormalizer().Normalize(domain.RawFiling{
		IDSubmission:     "F2",
		DateDisseminated: "last tuesday",
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if draft.Title != FallbackTitle {
		t.Fatalf("expected fallback title, got %q", draft.Title)
	}
	if draft.Author != FallbackAuthor {
		t.Fatalf("expected fallback author, got %q", draft.Author)
	}
	if draft.AuthorOrganization != nil {
		t.Fatalf("expected nil organization, got %v", *draft.AuthorOrganization)
	}
	if draft.FiledAt != nil {
		t.Fatalf("expected nil filed at for unparseable date, got %v", draft.FiledAt)
	}
	if draft.DocumentURLs == nil || len(draft.DocumentURLs) != 0 {
		t.Fatalf("expected empty non-nil document list, got %v", draft.DocumentURLs)
	}
}

func TestNormalizeMissingID(t *testing.T) {
	t.Parallel()

	_, err := newTestNormalizer().Normalize(domain.RawFiling{IDSubmission: "   ", BriefCommentText: "x"})
	if !errors.Is(err, domain.ErrMissingFilingID) {
		t.Fatalf("expected ErrMissingFilingID, got %v", err)
	}
}

func TestParseFiledAt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "2024-03-01", want: "2024-03-01T00:00:00Z"},
		{in: "2024-03-01T12:30:00Z", want: "2024-03-01T12:30:00Z"},
		{in: "2024-03-01T12:30:00-05:00", want: "2024-03-01T17:30:00Z"},
		{in: "", want: ""},
		{in: "03/01/2024", want: ""},
	}

	for _, tc := range cases {
		got := ParseFiledAt(tc.in)
		if tc.want == "" {
			if got != nil {
				t.Errorf("ParseFiledAt(%q): expected nil, got %v", tc.in, got)
			}
			continue
		}
		if got == nil || got.Format(time.RFC3339) != tc.want {
			t.Errorf("ParseFiledAt(%q): want %s, got %v", tc.in, tc.want, got)
		}
	}
}
