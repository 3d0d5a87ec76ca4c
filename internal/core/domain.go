package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	GenderMale   = "M"
	GenderFemale = "F"

	// Member categories. Communiant is a fully confirmed member,
	// Cathekomen a member still in formation.
	TypeCommuniant = "Communiant"
	TypeCathekomen = "Cathekomen"

	// TimestampLayout is the storage format for created_at / closed_at (UTC).
	TimestampLayout = "2006-01-02T15:04:05"

	// DateLayout is the expected payment date format.
	DateLayout = "2006-01-02"
)

// Error kinds. Callers discriminate with errors.Is; the concrete message
// carries the display-ready detail.
var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

type (
	Member struct {
		ID         int64  `json:"id"`
		CardNumber string `json:"card_number"`
		FullName   string `json:"full_name"`
		Address    string `json:"address,omitempty"`
		Phone      string `json:"phone,omitempty"`
		Job        string `json:"job,omitempty"`
		Gender     string `json:"gender"`
		MemberType string `json:"member_type"`
		CreatedAt  string `json:"created_at"`
	}

	// MemberInput carries the caller-supplied fields for create/update.
	// ID and CreatedAt are always system-assigned.
	MemberInput struct {
		CardNumber string `json:"card_number"`
		FullName   string `json:"full_name"`
		Address    string `json:"address"`
		Phone      string `json:"phone"`
		Job        string `json:"job"`
		Gender     string `json:"gender"`
		MemberType string `json:"member_type"`
	}

	// MemberWithTotal is a read-only projection: a member plus the sum of
	// all their contributions, rendered with the fraction truncated.
	MemberWithTotal struct {
		Member
		TotalContributions string `json:"total_contributions"`
	}

	Contribution struct {
		ID           int64           `json:"id"`
		MemberID     int64           `json:"member_id"`
		PaymentDate  string          `json:"payment_date"`
		Period       string          `json:"period"`
		Amount       decimal.Decimal `json:"amount"`
		RecordedYear int             `json:"recorded_year"`
	}

	// ContributionInput carries caller-supplied fields. Amount arrives as a
	// string and is parsed as an exact decimal; RecordedYear is never
	// supplied, it is derived from PaymentDate.
	ContributionInput struct {
		MemberID    int64  `json:"member_id"`
		PaymentDate string `json:"payment_date"`
		Period      string `json:"period"`
		Amount      string `json:"amount"`
	}

	// ContributionWithMember joins in the owning member's identity for the
	// archive views.
	ContributionWithMember struct {
		Contribution
		MemberName string `json:"member_name"`
		MemberCard string `json:"member_card"`
	}

	YearSummary struct {
		Year     int             `json:"year"`
		Total    decimal.Decimal `json:"total"`
		ClosedAt *string         `json:"closed_at"`
		Note     *string         `json:"note"`
	}
)

// Closed reports whether the year has been closed.
func (s YearSummary) Closed() bool {
	return s.ClosedAt != nil
}

func (in MemberInput) Validate() error {
	if strings.TrimSpace(in.CardNumber) == "" {
		return fmt.Errorf("%w: card number is required", ErrValidation)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return fmt.Errorf("%w: full name is required", ErrValidation)
	}
	return nil
}

// ValidMemberType reports whether t is one of the two recognized categories.
func ValidMemberType(t string) bool {
	return t == TypeCommuniant || t == TypeCathekomen
}

// ParsePaymentDate validates a payment date and derives the recorded year.
// It returns the normalized date string alongside the year.
func ParsePaymentDate(s string) (string, int, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid payment date %q, expected format YYYY-MM-DD", ErrValidation, s)
	}
	return d.Format(DateLayout), d.Year(), nil
}

// Timestamp renders t in the storage timestamp format, in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
