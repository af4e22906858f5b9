package normalizer

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

const (
	// FallbackTitle anchors summarization when the source has no comment text.
	FallbackTitle = "Filing"
	// FallbackAuthor is used when no filer name or contact is present.
	FallbackAuthor = "Unknown"

	maxTitleLength = 500
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalizer builds canonical filing drafts from raw ECFS records.
type Normalizer struct {
	downloadBase string
	filingBase   string
}

var _ ports.Normalizer = (*Normalizer)(nil)

// New wires the base URLs used to build document and filing links.
func New(downloadBase, filingBase string) *Normalizer {
	return &Normalizer{
		downloadBase: strings.TrimSuffix(downloadBase, "/"),
		filingBase:   strings.TrimSuffix(filingBase, "/"),
	}
}

// Normalize converts one raw record. The only error is a missing submission id.
func (n *Normalizer) Normalize(raw domain.RawFiling) (domain.FilingDraft, error) {
	id := strings.TrimSpace(raw.IDSubmission)
	if id == "" {
		return domain.FilingDraft{}, domain.ErrMissingFilingID
	}

	title := plainText(raw.BriefCommentText)
	if title == "" {
		title = FallbackTitle
	}
	if len([]rune(title)) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength])
	}

	return domain.FilingDraft{
		ExternalID:         id,
		Title:              title,
		Author:             author(raw),
		AuthorOrganization: organization(raw),
		FilingURL:          fmt.Sprintf("%s/%s", n.filingBase, url.PathEscape(id)),
		DocumentURLs:       n.documentURLs(id, raw.Attachments),
		FiledAt:            ParseFiledAt(raw.DateDisseminated),
	}, nil
}

func (n *Normalizer) documentURLs(id string, attachments []domain.RawAttachment) []string {
	urls := make([]string, 0, len(attachments))
	for _, att := range attachments {
		name := strings.TrimSpace(att.CleanFileName)
		if name == "" {
			name = strings.TrimSpace(att.FileName)
		}
		if name == "" {
			continue
		}
		urls = append(urls, fmt.Sprintf("%s/filing/%s/download/%s",
			n.downloadBase, url.PathEscape(id), url.PathEscape(name)))
	}
	return urls
}

// ParseFiledAt accepts the date shapes ECFS emits; nil means unparseable.
func ParseFiledAt(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

func author(raw domain.RawFiling) string {
	for _, filer := range raw.Filers {
		if name := strings.TrimSpace(filer.Name); name != "" {
			return name
		}
	}
	if email := strings.TrimSpace(raw.ContactEmail); email != "" {
		return email
	}
	return FallbackAuthor
}

func organization(raw domain.RawFiling) *string {
	for _, candidate := range []string{raw.LawfirmName, raw.OrganizationName} {
		if v := strings.TrimSpace(candidate); v != "" {
			return &v
		}
	}
	return nil
}

// plainText drops any markup the comment field carries and collapses whitespace.
func plainText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if strings.ContainsAny(value, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(value)); err == nil {
			value = doc.Text()
		}
	}
	return strings.Join(strings.Fields(value), " ")
}
