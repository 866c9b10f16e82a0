package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// DateLayout is the layout of every calendar date accepted or produced by the app.
const DateLayout = "2006-01-02"

var (
	// custom validation tags & texts
	dateStrTag  = "datestr"
	dateStrText = "must be a date formatted as YYYY-MM-DD"

	dateRangeTag  = "daterange"
	dateRangeText = "must not be before the start date"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewValidator returns a validator and its english translator, ready for use.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	InitValidators(validate, translator)
	return validate, translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON (or query) tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("query")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(dateStrTag, dateStrValidation)
	RegisterCustomTranslation(validate, translator, dateStrTag, dateStrText)

	validate.RegisterStructValidation(dateRangeValidation, DateRange{})
	RegisterCustomTranslation(validate, translator, dateRangeTag, dateRangeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateErrors turns validator errors into a field -> message map.
func TranslateErrors(err validator.ValidationErrors, translator ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(err))
	for _, vErr := range err {
		fldErrs[vErr.Field()] = vErr.Translate(translator)
	}
	return fldErrs
}

// ParseDate parses a YYYY-MM-DD string in the local timezone. Blank strings give the zero time.
func ParseDate(s string) (time.Time, error) {
	s = CleanString(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// DateRange is an optional calendar range given as YYYY-MM-DD strings.
type DateRange struct {
	From string `json:"from" query:"from" validate:"omitempty,datestr"`
	To   string `json:"to" query:"to" validate:"omitempty,datestr"`
}

// Dates parses the range bounds. Invalid or blank bounds give the zero time.
func (r DateRange) Dates() (from, to time.Time) {
	from, _ = ParseDate(r.From)
	to, _ = ParseDate(r.To)
	return from, to
}

// Custom Global Validators

// dateStrValidation only allows YYYY-MM-DD dates.
func dateStrValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

// dateRangeValidation rejects ranges ending before they start.
func dateRangeValidation(sl validator.StructLevel) {
	r := sl.Current().Interface().(DateRange)
	from, to := r.Dates()
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		sl.ReportError(r.To, "to", "To", dateRangeTag, "")
	}
}
