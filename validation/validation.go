// Package validation checks and normalises the browser's forms before they
// are sent to the backend. Failures come back as Errors keyed by the JSON
// field name.
package validation

import (
	"fmt"
	"html"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"inkline/models"
)

// MinSearchLength is the shortest trimmed query sent to /users/search.
const MinSearchLength = 2

var (
	validate *validator.Validate
	strict   = bluemonday.StrictPolicy()
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("plainmax", validatePlainMax)
	_ = validate.RegisterValidation("plainrequired", validatePlainRequired)
}

func validatePlainMax(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(PlainText(fl.Field().String())) <= limit
}

func validatePlainRequired(fl validator.FieldLevel) bool {
	return PlainText(fl.Field().String()) != ""
}

// Errors maps a field to its messages.
type Errors map[string][]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e Errors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// PlainText strips markup from a rich-text body.
func PlainText(s string) string {
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Squish collapses runs of whitespace and trims the ends.
func Squish(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEmail trims, lowercases and removes any whitespace.
func NormalizeEmail(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// SearchQuery returns the trimmed query and whether it is long enough to
// be sent.
func SearchQuery(q string) (string, bool) {
	q = strings.TrimSpace(q)
	return q, utf8.RuneCountInString(q) >= MinSearchLength
}

func Credentials(in *models.Credentials) error {
	in.Email = NormalizeEmail(in.Email)
	return check(in)
}

func Signup(in *models.SignupInput) error {
	in.FirstName = Squish(in.FirstName)
	in.LastName = Squish(in.LastName)
	in.Email = NormalizeEmail(in.Email)
	return check(in)
}

// Profile normalises the profile form. Without ChangePassword the new
// password fields are dropped.
func Profile(in *models.ProfileInput) error {
	in.FirstName = Squish(in.FirstName)
	in.LastName = Squish(in.LastName)
	in.Email = NormalizeEmail(in.Email)
	if !in.ChangePassword {
		in.Password = ""
		in.PasswordConfirmation = ""
	}
	return check(in)
}

// Note trims the title and category names; blank categories are dropped.
func Note(in *models.NoteInput) error {
	in.Title = strings.TrimSpace(in.Title)
	cats := make([]string, 0, len(in.Categories))
	for _, c := range in.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	in.Categories = cats
	return check(in)
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate: %w", err)
	}
	out := Errors{}
	for _, fe := range verrs {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		out.add(field, message(field, fe))
	}
	return out
}

var overrides = map[string]string{
	"title.required":                    "Title is required",
	"title.max":                         "Keep the title under 50 characters",
	"body.plainrequired":                "Body is required",
	"body.plainmax":                     "Body is too long",
	"categories.max":                    "Too many categories",
	"categories.unique":                 "Duplicate category",
	"current_password.required":         "Current password is required",
	"password.required_if":              "New password is required",
	"password_confirmation.required_if": "Please confirm the new password",
	"password_confirmation.eqfield":     "Passwords must match",
	"email.email":                       "Invalid email",
}

func message(field string, fe validator.FieldError) string {
	tag := fe.Tag()
	if field == "categories" && fe.Field() != "categories" {
		switch tag {
		case "min":
			return "Category name too short"
		case "max":
			return "Category name too long"
		}
	}
	if msg, ok := overrides[field+"."+tag]; ok {
		return msg
	}
	switch tag {
	case "required", "required_if":
		return "Required"
	case "min":
		return "Min " + fe.Param()
	case "max":
		return "Max " + fe.Param()
	}
	return "Invalid"
}
