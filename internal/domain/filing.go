package domain

import (
	"errors"
	"time"
)

// ErrMissingFilingID signals a raw record without a submission id, which means
// the upstream schema changed under us.
var ErrMissingFilingID = errors.New("raw filing has no submission id")

// ProcessingStatus enumerates persisted filing milestones.
type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusProcessed ProcessingStatus = "processed"
	StatusFailed    ProcessingStatus = "failed"
)

// RawAttachment is one document entry attached to a raw filing.
type RawAttachment struct {
	CleanFileName string `json:"clean_file_name"`
	FileName      string `json:"filename"`
}

// RawFiler names a party on whose behalf a filing was submitted.
type RawFiler struct {
	Name string `json:"name"`
}

// RawFiling mirrors a filing object returned by the ECFS filings API.
type RawFiling struct {
	IDSubmission     string          `json:"id_submission"`
	BriefCommentText string          `json:"brief_comment_text"`
	ContactEmail     string          `json:"contact_email"`
	LawfirmName      string          `json:"lawfirm_name"`
	OrganizationName string          `json:"organization_name"`
	DateDisseminated string          `json:"date_disseminated"`
	Filers           []RawFiler      `json:"filers"`
	Attachments      []RawAttachment `json:"attachments"`
}

// FilingDraft is the canonical shape produced by the normalizer.
type FilingDraft struct {
	ExternalID         string
	Title              string
	Author             string
	AuthorOrganization *string
	FilingURL          string
	DocumentURLs       []string
	FiledAt            *time.Time
}

// Filing is a stored docket submission.
type Filing struct {
	ID                 int64
	ExternalID         string
	DocketID           int64
	Title              string
	Author             string
	AuthorOrganization *string
	FilingURL          string
	DocumentURLs       []string
	FiledAt            *time.Time
	FetchedAt          time.Time
	Summary            *string
	SummaryGeneratedAt *time.Time
	Status             ProcessingStatus
}

// NewFiling turns a draft into a row ready to be inserted for the given docket.
func NewFiling(docketID int64, draft FilingDraft, fetchedAt time.Time) Filing {
	urls := draft.DocumentURLs
	if urls == nil {
		urls = []string{}
	}
	return Filing{
		ExternalID:         draft.ExternalID,
		DocketID:           docketID,
		Title:              draft.Title,
		Author:             draft.Author,
		AuthorOrganization: draft.AuthorOrganization,
		FilingURL:          draft.FilingURL,
		DocumentURLs:       urls,
		FiledAt:            draft.FiledAt,
		FetchedAt:          fetchedAt,
		Status:             StatusPending,
	}
}

// AttachSummary records a generated summary and moves the filing to status.
func (f *Filing) AttachSummary(summary string, status ProcessingStatus, at time.Time) {
	f.Summary = &summary
	f.SummaryGeneratedAt = &at
	f.Status = status
}
