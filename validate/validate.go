package validate

import (
	"fmt"
	"html"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/bkclothing/bk-site/service/gallery"
)

// MinPhoneDigits is the fewest digits a contact phone number may have.
const MinPhoneDigits = 7

var phoneCharsRegex = regexp.MustCompile(`^\+?[\d\s\-().]+$`)

// SanitizationPolicy strips all markup from user input
var SanitizationPolicy = bluemonday.StrictPolicy()

func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterTagNameFunc(JSONFieldName)
	v.RegisterValidation("gallery_category", GalleryCategoryValidator)
	v.RegisterValidation("phone", PhoneValidator)
	v.RegisterValidation("absurl", AbsoluteURLValidator)
	v.RegisterValidation("max_string_length", MaxStringLengthValidator)
	v.RegisterAlias("gallery_title", "max_string_length=200")
	v.RegisterAlias("contact_name", "min=2,max_string_length=120")
	v.RegisterAlias("contact_message", "min=10,max_string_length=5000")
}

// JSONFieldName reports fields by their JSON name in validation errors.
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// GalleryCategoryValidator accepts one of the gallery categories. Empty values are left to "required".
var GalleryCategoryValidator validator.Func = func(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return gallery.Category(s).IsValid()
}

// PhoneValidator accepts numbers written with digits, spaces, dashes, dots and parentheses, with an
// optional leading plus, and at least MinPhoneDigits digits.
var PhoneValidator validator.Func = func(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	return IsPhoneNumber(s)
}

// AbsoluteURLValidator accepts absolute http(s) URLs.
var AbsoluteURLValidator validator.Func = func(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return IsAbsoluteURL(s)
}

// MaxStringLengthValidator validates strings with a given maximum length in characters
var MaxStringLengthValidator validator.Func = func(fl validator.FieldLevel) bool {
	s := fl.Field().String()

	maxLength, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Errorf("error parsing MaxStringLengthValidator parameter: %s", err))
	}

	return utf8.RuneCountInString(s) <= maxLength
}

func IsPhoneNumber(s string) bool {
	if !phoneCharsRegex.MatchString(s) {
		return false
	}

	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= MinPhoneDigits
}

func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SanitizeText removes any markup from s and trims it. Entities are decoded again, since the result
// is plain text that templates escape on output.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(SanitizationPolicy.Sanitize(s)))
}
