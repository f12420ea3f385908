// Package validate normalizes and checks untrusted form fields.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/znz-systems/leadform/internal/models"
)

// Sentinel errors returned by the validators.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInputTooLong = errors.New("input too long")
)

// MaxMessage bounds a stored lead message, in characters.
const MaxMessage = 5000

// emailPattern accepts local@domain.tld with no '@' in any part.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

var v = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsEmail reports whether s matches the loose address pattern.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// classify maps validator failures onto the two sentinel errors. Any
// malformed or missing field wins over an over-length one.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	var long []string
	for _, fe := range verrs {
		if fe.Tag() != "max" {
			return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, fe.Field(), fe.Tag())
		}
		long = append(long, fe.Field())
	}
	return fmt.Errorf("%w: %s", ErrInputTooLong, strings.Join(long, ", "))
}

// Contact trims the generic contact fields and checks them.
func Contact(name, email, message string) (models.Contact, error) {
	c := models.Contact{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
	}
	return c, classify(v.Struct(c))
}

// InquiryInput holds the raw inquiry fields as decoded from the request.
type InquiryInput struct {
	Name           string
	Email          string
	Company        string
	Phone          string
	SanctionedLoad string
	MonthlyKWh     string
	Callback       bool
	EBBill         *models.Attachment
}

// Inquiry trims and checks an open-access inquiry. Company, sanctioned load
// and monthly consumption are required; phone is optional.
func Inquiry(in InquiryInput) (models.Inquiry, error) {
	q := models.Inquiry{
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		Company:        strings.TrimSpace(in.Company),
		Phone:          strings.TrimSpace(in.Phone),
		SanctionedLoad: strings.TrimSpace(in.SanctionedLoad),
		MonthlyKWh:     strings.TrimSpace(in.MonthlyKWh),
		Callback:       in.Callback,
		EBBill:         in.EBBill,
	}
	if err := classify(v.Struct(q)); err != nil {
		return q, err
	}
	if q.EBBill != nil && strings.TrimSpace(q.EBBill.B64) == "" {
		// An empty descriptor is treated as no attachment.
		q.EBBill = nil
	}
	return q, nil
}

// Message checks a synthesized lead message against the stored bound.
func Message(message string) error {
	return classify(v.Var(strings.TrimSpace(message), fmt.Sprintf("required,max=%d", MaxMessage)))
}
