// Package bind decodes request parameters and validates structs with translated messages
package bind

import (
	stderrs "errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ValidatorSvc is the shared validator and its English translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *ValidatorSvc
)

// Get returns the validator singleton
func Get() *ValidatorSvc {
	vOnce.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(fieldName)
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		short(v, trans, "min", "{0} must be at least {1}")
		short(v, trans, "max", "{0} must be at most {1}")

		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

// fieldName prefers query, then env, then json tag names so messages match what callers typed
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"query", "env", "json"} {
		if tag := f.Tag.Get(key); tag != "" && tag != "-" {
			name, _, _ := strings.Cut(tag, ",")
			return name
		}
	}
	return f.Name
}

func short(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// Validate runs struct validation and maps the first failure to a validation error with its field
func Validate(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if stderrs.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.Internalf("validation setup error")
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// FieldAndMessage returns the first failing field and its translated message
func FieldAndMessage(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if stderrs.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(Get().Translator)
	}
	if err == nil {
		return "", ""
	}
	return "", err.Error()
}

// Query fills T from URL query parameters using `query:"name"` tags, then validates it.
// Supported field kinds are string, bool, ints, and time.Time (RFC 3339 or YYYY-MM-DD).
// Fields keep their zero value, or whatever defaults sets, when the parameter is absent
func Query[T any](r *http.Request, defaults T) (T, error) {
	out := defaults
	rv := reflect.ValueOf(&out).Elem()
	rt := rv.Type()
	q := r.URL.Query()

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
		if name == "" || name == "-" || !q.Has(name) {
			continue
		}
		raw := strings.TrimSpace(q.Get(name))
		if err := assign(rv.Field(i), raw); err != nil {
			return defaults, perr.WithField(perr.InvalidArgf("invalid %s: %q", name, raw), name)
		}
	}
	if err := Validate(out); err != nil {
		return defaults, err
	}
	return out, nil
}

var timeType = reflect.TypeOf(time.Time{})

func assign(fv reflect.Value, raw string) error {
	if fv.Type() == timeType {
		t, err := parseTime(raw)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(t))
		return nil
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	default:
		return perr.Internalf("unsupported query field kind %s", fv.Kind())
	}
	return nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(time.DateOnly, raw, time.UTC)
}
