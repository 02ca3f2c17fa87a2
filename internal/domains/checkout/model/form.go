package model

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/shared/apperror"
)

// DefaultCountry is used when the shipping form leaves the country blank
const DefaultCountry = "GB"

// dialCodeOnly matches a phone field that still holds only the prefilled
// country code, e.g. "+44"
var dialCodeOnly = regexp.MustCompile(`^\+\d{1,4}$`)

// ========================================
// SHIPPING FORM
// ========================================

type ShippingForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2"`
	City      string `json:"city"`
	County    string `json:"county"`
	Postal    string `json:"postal"`
	Country   string `json:"country"`
}

func (f ShippingForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.FirstName,
			validation.By(notBlank("first name is required")),
			validation.Length(0, 100),
		),
		validation.Field(&f.LastName,
			validation.By(notBlank("last name is required")),
			validation.Length(0, 100),
		),
		validation.Field(&f.Line1,
			validation.By(notBlank("address line 1 is required")),
			validation.Length(0, 255),
		),
		validation.Field(&f.Line2, validation.Length(0, 255)),
		validation.Field(&f.City,
			validation.By(notBlank("city is required")),
			validation.Length(0, 100),
		),
		validation.Field(&f.Postal,
			validation.By(notBlank("postal code is required")),
			validation.Length(0, 16),
		),
		validation.Field(&f.Country,
			validation.When(f.Country != "", is.CountryCode2.Error("country must be a 2-letter ISO code")),
		),
	)
}

func (f ShippingForm) ToAddress() ordermodel.Address {
	country := strings.ToUpper(strings.TrimSpace(f.Country))
	if country == "" {
		country = DefaultCountry
	}
	return ordermodel.Address{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Line1:     strings.TrimSpace(f.Line1),
		Line2:     strings.TrimSpace(f.Line2),
		City:      strings.TrimSpace(f.City),
		County:    strings.TrimSpace(f.County),
		Postal:    strings.ToUpper(strings.TrimSpace(f.Postal)),
		Country:   country,
	}
}

// ========================================
// CONTACT FORM
// ========================================

type ContactForm struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (f ContactForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email,
			validation.By(notBlank("email is required")),
			is.EmailFormat.Error("invalid email format"),
			validation.Length(0, 255),
		),
		validation.Field(&f.Phone,
			validation.By(notBlank("phone is required")),
			validation.By(func(value interface{}) error {
				phone, _ := value.(string)
				if dialCodeOnly.MatchString(strings.ReplaceAll(strings.TrimSpace(phone), " ", "")) {
					return errors.New("phone number is incomplete")
				}
				return nil
			}),
		),
	)
}

func (f ContactForm) ToContact() ordermodel.Contact {
	return ordermodel.Contact{
		Email: strings.TrimSpace(f.Email),
		Phone: strings.TrimSpace(f.Phone),
	}
}

// ========================================
// VALIDATION
// ========================================

// ValidateForms checks both forms and folds every field error into one
// validation error keyed "shipping.<field>" / "contact.<field>"
func ValidateForms(shipping ShippingForm, contact ContactForm) error {
	details := map[string]string{}
	if err := collect(details, "shipping", shipping.Validate()); err != nil {
		return err
	}
	if err := collect(details, "contact", contact.Validate()); err != nil {
		return err
	}
	if len(details) > 0 {
		return apperror.ValidationFields("Please check your shipping and contact details", details)
	}
	return nil
}

// collect copies field errors into details; anything else is returned as is
func collect(details map[string]string, prefix string, err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return err
	}
	for field, fieldErr := range fields {
		details[prefix+"."+field] = fieldErr.Error()
	}
	return nil
}

// notBlank is validation.Required that also rejects whitespace-only input
func notBlank(message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(message)
		}
		return nil
	}
}
