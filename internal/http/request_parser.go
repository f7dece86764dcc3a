package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"spendbook/internal/core"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// amountField accepts an amount as a JSON number or a string such as "12,50".
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountField(n)
	return nil
}

type createExpenseRequest struct {
	Title  string      `json:"title" validate:"required,max=200"`
	Amount amountField `json:"amount" validate:"required"`
	Date   string      `json:"date"`
	Notes  string      `json:"notes" validate:"max=1000"`
}

type updateExpenseRequest struct {
	Title  *string      `json:"title" validate:"omitempty,max=200"`
	Amount *amountField `json:"amount"`
	Date   *string      `json:"date"`
	Notes  *string      `json:"notes" validate:"omitempty,max=1000"`
}

type swipeRequest struct {
	Direction string `json:"direction" validate:"required,oneof=left right"`
}

// decodeJSON reads one JSON object into dst and validates it. Decoding
// problems wrap errMalformedBody; rule violations are validator errors.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return validate.Struct(dst)
}

// parseDate accepts YYYY-MM-DD (midnight in loc) or RFC 3339. An empty
// string means now.
func parseDate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, &core.ValidationError{Field: "date", Err: fmt.Errorf("%w: %q", core.ErrInvalidDate, s)}
}

func parseAmount(a amountField) (core.Amount, error) {
	amount, err := core.ParseAmount(string(a))
	if err != nil {
		return core.Zero, &core.ValidationError{Field: "amount", Err: err}
	}
	return amount, nil
}

func (req createExpenseRequest) toDraft(loc *time.Location, now time.Time) (core.Draft, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Draft{}, err
	}
	date, err := parseDate(req.Date, loc, now)
	if err != nil {
		return core.Draft{}, err
	}
	return core.Draft{
		Title:  sanitizeInput(req.Title),
		Amount: amount,
		Date:   date,
		Notes:  sanitizeInput(req.Notes),
	}, nil
}

func (req updateExpenseRequest) toPatch(loc *time.Location, now time.Time) (core.Patch, error) {
	var p core.Patch
	if req.Title != nil {
		title := sanitizeInput(*req.Title)
		p.Title = &title
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			return core.Patch{}, err
		}
		p.Amount = &amount
	}
	if req.Date != nil {
		if strings.TrimSpace(*req.Date) == "" {
			return core.Patch{}, &core.ValidationError{Field: "date", Err: core.ErrMissingDate}
		}
		date, err := parseDate(*req.Date, loc, now)
		if err != nil {
			return core.Patch{}, err
		}
		p.Date = &date
	}
	if req.Notes != nil {
		notes := sanitizeInput(*req.Notes)
		p.Notes = &notes
	}
	return p, nil
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
