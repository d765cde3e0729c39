// Package validation mirrors the backend's field rules so obviously invalid
// dialogs are refused before any network call. The backend stays authoritative.
package validation

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ctks/admin-console/internal/model"
)

const (
	TokenMinDigits = 16
	TokenMaxDigits = 45

	MinPasswordLen = 6
)

// Error is a client-side pre-submit failure; Field is empty for form-level errors.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func fieldErr(field, msg string) error { return &Error{Field: field, Message: msg} }

// TokenValue checks a token typed by an admin. Hyphens are visual separators
// only; any other non-digit makes the input invalid. It returns the digits.
func TokenValue(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fieldErr("tokenValue", "Token value is required")
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-':
		default:
			return "", fieldErr("tokenValue", "Token may contain only digits and hyphens")
		}
	}

	digits := b.String()
	if n := len(digits); n < TokenMinDigits || n > TokenMaxDigits {
		return "", fieldErr("tokenValue", fmt.Sprintf("Token must be %d-%d digits", TokenMinDigits, TokenMaxDigits))
	}
	return digits, nil
}

// Reason requires a non-blank free-text reason.
func Reason(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fieldErr("rejectionReason", "Rejection reason is required")
	}
	return s, nil
}

// CryptoParams requires all eight meter parameters.
func CryptoParams(p model.CryptoParams) error {
	var missing []string
	for _, kv := range p.Fields() {
		if strings.TrimSpace(kv[1]) == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		return &Error{Message: "Missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

type PricePolicy string

const (
	PriceNonNegative PricePolicy = "non_negative"
	PriceAny         PricePolicy = "any"
)

// ParsePricePolicy normalizes the config value; empty => non_negative.
func ParsePricePolicy(s string) (PricePolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PriceNonNegative):
		return PriceNonNegative, true
	case string(PriceAny):
		return PriceAny, true
	default:
		return PriceNonNegative, false
	}
}

// Price parses a per-unit price. Non-numeric input is always refused; the
// sign rule depends on policy.
func Price(raw string, policy PricePolicy) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fieldErr("pricePerUnit", "Price is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fieldErr("pricePerUnit", "Price must be a number")
	}
	if policy != PriceAny && d.IsNegative() {
		return decimal.Zero, fieldErr("pricePerUnit", "Please enter a valid positive price")
	}
	return d, nil
}

// DiscoName requires a non-blank name.
func DiscoName(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fieldErr("discoName", "DISCO name is required")
	}
	return s, nil
}

// Vendor validates the add (passwordRequired) or edit form.
func Vendor(in model.VendorInput, passwordRequired bool) (model.VendorInput, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if in.Email == "" {
		return in, fieldErr("email", "Required")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return in, fieldErr("email", "Invalid email")
	}
	if in.Username == "" {
		return in, fieldErr("username", "Required")
	}
	if in.Password == "" {
		if passwordRequired {
			return in, fieldErr("password", "Required")
		}
		return in, nil
	}
	if len(in.Password) < MinPasswordLen {
		return in, fieldErr("password", fmt.Sprintf("Minimum %d characters", MinPasswordLen))
	}
	return in, nil
}

// BankAccount requires all three fields.
func BankAccount(in model.BankAccountInput) (model.BankAccountInput, error) {
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.BankName = strings.TrimSpace(in.BankName)
	in.AccountName = strings.TrimSpace(in.AccountName)
	switch {
	case in.AccountNumber == "":
		return in, fieldErr("accountNumber", "Account number is required")
	case in.BankName == "":
		return in, fieldErr("bankName", "Bank name is required")
	case in.AccountName == "":
		return in, fieldErr("accountName", "Account name is required")
	}
	return in, nil
}

// CustomerEdit is the edit dialog: meter and disco always required, the crypto
// params only when the verified flag is being set.
type CustomerEdit struct {
	MeterNumber string
	Disco       string
	LastToken   string
	IsVerified  bool
	Params      model.CryptoParams
}

func Customer(in CustomerEdit) (CustomerEdit, error) {
	in.MeterNumber = strings.TrimSpace(in.MeterNumber)
	in.Disco = strings.TrimSpace(in.Disco)
	if in.MeterNumber == "" {
		return in, fieldErr("meterNumber", "Meter number is required")
	}
	if in.Disco == "" {
		return in, fieldErr("disco", "Disco is required")
	}
	if in.IsVerified {
		for _, kv := range in.Params.Fields() {
			if strings.TrimSpace(kv[1]) == "" {
				return in, fieldErr(kv[0], kv[0]+" is required for verified customers")
			}
		}
	}
	return in, nil
}

// Credentials validates the login form.
func Credentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fieldErr("username", "Username is required")
	}
	if password == "" {
		return fieldErr("password", "Password is required")
	}
	return nil
}
