package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// DocketStatus reflects the lifecycle of a proceeding as reported by the FCC.
type DocketStatus string

const (
	DocketActive  DocketStatus = "active"
	DocketClosed  DocketStatus = "closed"
	DocketUnknown DocketStatus = "unknown"
)

// Placeholder values used when a docket is watched before its metadata is known.
const (
	PendingDocketTitle       = "Pending - will be updated from FCC API"
	PendingDocketBureau      = "Unknown"
	PendingDocketDescription = "Docket information will be fetched from FCC API"
)

var (
	// ErrNotFound is returned by stores when a keyed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDocketNumber rejects numbers outside the NN-N... format.
	ErrInvalidDocketNumber = errors.New("invalid docket number")
	// ErrWatchLimit is returned when a subscriber has no watch slots left.
	ErrWatchLimit = errors.New("watch limit reached")
)

var docketNumberExpr = regexp.MustCompile(`^\d{2}-\d+$`)

// Docket is a watched regulatory proceeding.
type Docket struct {
	ID          int64
	Number      string
	Title       string
	Bureau      string
	Description string
	Status      DocketStatus
	CreatedAt   time.Time
}

// DocketInfo is authoritative proceeding metadata fetched from the source.
type DocketInfo struct {
	Number      string
	Title       string
	Bureau      string
	Description string
	Status      DocketStatus
}

// NormalizeDocketNumber trims the number and validates its format.
func NormalizeDocketNumber(number string) (string, error) {
	number = strings.TrimSpace(number)
	if !docketNumberExpr.MatchString(number) {
		return "", ErrInvalidDocketNumber
	}
	return number, nil
}

// ParseDocketStatus maps free-form source values onto the known statuses.
func ParseDocketStatus(value string) DocketStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active", "open":
		return DocketActive
	case "closed", "terminated":
		return DocketClosed
	default:
		return DocketUnknown
	}
}

// PlaceholderDocket builds the row created on the first watch of an unseen number.
func PlaceholderDocket(number string) Docket {
	return Docket{
		Number:      number,
		Title:       PendingDocketTitle,
		Bureau:      PendingDocketBureau,
		Description: PendingDocketDescription,
		Status:      DocketUnknown,
	}
}
