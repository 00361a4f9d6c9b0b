package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxTags      = 10
	MaxTagLength = 30
)

var (
	usernameRx = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)
	phoneRx    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	telegramRx = regexp.MustCompile(`^@?[A-Za-z0-9_]{5,32}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRx.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRx.MatchString(strings.NewReplacer(" ", "", "-", "").Replace(fl.Field().String()))
	})
	_ = v.RegisterValidation("telegram", func(fl validator.FieldLevel) bool {
		return telegramRx.MatchString(fl.Field().String())
	})
	return v
}

// FormErrors maps a form field name to a message shown next to it.
type FormErrors map[string]string

func (e FormErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e FormErrors) Valid() bool {
	return len(e) == 0
}

// ValidationError carries field errors out of a service call.
type ValidationError struct {
	Fields FormErrors
	// Err is the sentinel behind a single-field failure, if any.
	Err error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, m := range e.Fields {
		parts = append(parts, f+": "+m)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: FormErrors{field: msg}}
}

// WrapFieldError reports err against one field and keeps it reachable through errors.Is.
func WrapFieldError(field string, err error) *ValidationError {
	return &ValidationError{Fields: FormErrors{field: err.Error()}, Err: err}
}

// FieldErrors extracts form errors from err, if it carries any.
func FieldErrors(err error) (FormErrors, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return nil, false
}

// Validate runs struct validation and turns failures into readable field errors.
func Validate(form any) FormErrors {
	errs := FormErrors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		errs.Add("form", err.Error())
		return errs
	}
	for _, fe := range ves {
		errs.Add(fieldName(fe), message(fe))
	}
	return errs
}

func fieldName(fe validator.FieldError) string {
	// dive errors come back as "tags[3]"
	if i := strings.IndexByte(fe.Field(), '['); i > 0 {
		return fe.Field()[:i]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "url":
		return "Enter a valid URL"
	case "http_url":
		return "Enter a link starting with http:// or https://"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("At most %s allowed", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "oneof":
		return "Choose one of: " + fe.Param()
	case "gt":
		return "Choose a value"
	case "username":
		return "3-30 characters: lowercase letters, digits and underscores"
	case "phone":
		return "Enter the number in international format, digits only"
	case "telegram":
		return "Enter a Telegram handle (5-32 letters, digits or underscores)"
	case "eqfield":
		return "Does not match"
	}
	return "Invalid value"
}

type SignUpForm struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,min=8,max=72"`
	Confirm  string `form:"confirm" validate:"required,eqfield=Password"`
	Username string `form:"username" validate:"required,username"`
	Role     string `form:"role" validate:"required,oneof=USER ADVERTISER"`
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type AdForm struct {
	Title       string   `form:"title" validate:"required,min=3,max=120"`
	Description string   `form:"description" validate:"required,min=10,max=5000"`
	CategoryID  int64    `form:"category_id" validate:"gt=0"`
	CountryID   int64    `form:"country_id" validate:"gt=0"`
	RegionID    int64    `form:"region_id" validate:"gte=0"`
	SubregionID int64    `form:"subregion_id" validate:"gte=0"`
	Tags        []string `form:"tags" validate:"max=10,dive,max=30"`
	Status      string   `form:"status" validate:"required,oneof=active inactive draft"`
}

// Normalize trims text fields and cleans the tag list in place.
func (f *AdForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status == "" {
		f.Status = string(StatusActive)
	}
	f.Tags = NormalizeTags(f.Tags)
}

type ProfileForm struct {
	Username     string `form:"username" validate:"required,username"`
	ContactEmail string `form:"contact_email" validate:"omitempty,email,max=254"`
	WhatsApp     string `form:"whatsapp" validate:"omitempty,phone"`
	Telegram     string `form:"telegram" validate:"omitempty,telegram"`
	SocialURL    string `form:"social_url" validate:"omitempty,http_url,max=300"`
	CountryID    int64  `form:"country_id" validate:"gte=0"`
}

func (f *ProfileForm) Normalize() {
	f.Username = strings.ToLower(strings.TrimSpace(f.Username))
	f.ContactEmail = strings.TrimSpace(f.ContactEmail)
	f.WhatsApp = strings.TrimSpace(f.WhatsApp)
	f.Telegram = strings.TrimSpace(f.Telegram)
	f.SocialURL = strings.TrimSpace(f.SocialURL)
}

type CommentForm struct {
	Body string `form:"body" validate:"required,min=2,max=1000"`
}

type RatingForm struct {
	Value int `form:"value" validate:"min=1,max=5"`
}

// NormalizeTags splits comma separated input, lowercases, trims, drops a leading '#'
// and removes duplicates while keeping first-seen order.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(raw))
	for _, chunk := range raw {
		for _, tag := range strings.Split(chunk, ",") {
			tag = strings.ToLower(strings.TrimSpace(tag))
			tag = strings.TrimLeft(tag, "#")
			tag = strings.Join(strings.Fields(tag), " ")
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
