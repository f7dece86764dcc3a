package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength = 200
	MaxNotesLength = 1000
)

type (
	// Expense is a single recorded spending event.
	Expense struct {
		ID     string    `json:"id"`
		Title  string    `json:"title"`
		Amount Amount    `json:"amount"`
		Date   time.Time `json:"date"`
		Notes  string    `json:"notes,omitempty"`
	}

	// Draft is an expense that has not been assigned an id yet.
	Draft struct {
		Title  string
		Amount Amount
		Date   time.Time
		Notes  string
	}

	// Patch holds the fields of an update. Nil fields are left unchanged.
	Patch struct {
		Title  *string
		Amount *Amount
		Date   *time.Time
		Notes  *string
	}
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = fmt.Errorf("title too long (max %d characters)", MaxTitleLength)
	ErrNotesTooLong  = fmt.Errorf("notes too long (max %d characters)", MaxNotesLength)
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingDate   = errors.New("missing date")
	ErrInvalidDate   = errors.New("invalid date")
)

// ValidationError ties a field-level problem to ErrValidation so callers can
// match either one with errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return invalid("title", ErrTitleTooLong)
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return invalid("notes", ErrNotesTooLong)
	}
	return nil
}

func validateDate(d time.Time) error {
	if d.IsZero() {
		return invalid("date", ErrMissingDate)
	}
	return nil
}

func (d Draft) Validate() error {
	if err := validateTitle(d.Title); err != nil {
		return err
	}
	if err := d.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if err := validateDate(d.Date); err != nil {
		return err
	}
	return validateNotes(d.Notes)
}

// Validate checks only the fields that are set.
func (p Patch) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return invalid("amount", err)
		}
	}
	if p.Date != nil {
		if err := validateDate(*p.Date); err != nil {
			return err
		}
	}
	if p.Notes != nil {
		return validateNotes(*p.Notes)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Date == nil && p.Notes == nil
}

// WithID turns the draft into an expense carrying the given id.
func (d Draft) WithID(id string) Expense {
	return Expense{
		ID:     id,
		Title:  d.Title,
		Amount: d.Amount,
		Date:   d.Date,
		Notes:  d.Notes,
	}
}

// Apply returns a copy of e with the patch fields merged over it. The id is
// never changed.
func (p Patch) Apply(e Expense) Expense {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	return e
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return invalid("id", errors.New("empty id"))
	}
	return Draft{Title: e.Title, Amount: e.Amount, Date: e.Date, Notes: e.Notes}.Validate()
}

// Draft strips the id, which is how an expense re-enters the add path.
func (e Expense) Draft() Draft {
	return Draft{Title: e.Title, Amount: e.Amount, Date: e.Date, Notes: e.Notes}
}
