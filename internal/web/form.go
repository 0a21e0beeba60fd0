package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/invjournal/invjournal/internal/model"
)

// EntryForm holds the raw add-entry form values.
type EntryForm struct {
	Category string `form:"category" validate:"required,category"`
	Title    string `form:"title" validate:"max=200"`
	Price    string `form:"price" validate:"omitempty,nonnegdecimal"`
	Amount   string `form:"amount" validate:"omitempty,nonnegdecimal"`
	Tags     string `form:"tags" validate:"max=500"`
	Note     string `form:"note" validate:"notblank"`
}

// FieldError is a single invalid form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists the invalid fields of a submitted form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether field is among the invalid fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ParseEntryForm reads an EntryForm from a POST body.
func ParseEntryForm(r *http.Request) EntryForm {
	return EntryForm{
		Category: strings.TrimSpace(r.PostFormValue("category")),
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Price:    strings.TrimSpace(r.PostFormValue("price")),
		Amount:   strings.TrimSpace(r.PostFormValue("amount")),
		Tags:     r.PostFormValue("tags"),
		Note:     r.PostFormValue("note"),
	}
}

// NewValidator returns a validator with the entry form rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name, _, _ := strings.Cut(fld.Tag.Get("form"), ","); name != "" {
			return name
		}
		return fld.Name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, err := model.ParseCategory(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("nonnegdecimal", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks f and returns a *ValidationError describing every invalid field.
func (f EntryForm) Validate(v *validator.Validate) error {
	err := v.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating entry form: %w", err)
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "category":
		return fmt.Sprintf("%q is not a known category", fe.Value())
	case "nonnegdecimal":
		return "must be a number of at least 0"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

// Entry converts a validated form into a new entry. ID and date are left
// for the store to assign.
func (f EntryForm) Entry() (model.Entry, error) {
	category, err := model.ParseCategory(f.Category)
	if err != nil {
		return model.Entry{}, err
	}
	e := model.Entry{
		Category: category,
		Title:    f.Title,
		Tags:     model.SplitTags(f.Tags),
		Note:     strings.TrimRight(f.Note, " \t\r\n"),
	}
	if f.Price != "" {
		if e.Price, err = decimal.NewFromString(f.Price); err != nil {
			return model.Entry{}, fmt.Errorf("parsing price: %w", err)
		}
	}
	if f.Amount != "" {
		if e.Amount, err = decimal.NewFromString(f.Amount); err != nil {
			return model.Entry{}, fmt.Errorf("parsing amount: %w", err)
		}
	}
	return e, nil
}
