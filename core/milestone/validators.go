package milestone

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core"
)

var errInvalidPayload = errors.New("invalid submission")

// Cleaner filters payloads against the registry and coerces each kept value to its field kind.
type Cleaner struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewCleaner(validate *validator.Validate, translator ut.Translator) *Cleaner {
	return &Cleaner{validate: validate, translator: translator}
}

// Clean returns the subset of p declared for milestone id, with coerced values, and the names of dropped keys.
// Unknown keys are dropped, never errored. When partial is false, required fields must be present.
func (c *Cleaner) Clean(id ID, p Payload, partial bool) (Record, []string, error) {
	flds, err := FieldsFor(id)
	if err != nil {
		return nil, nil, err
	}

	known := make(map[string]FieldSpec, len(flds))
	for _, f := range flds {
		known[f.Name] = f
	}
	var dropped []string
	for k := range p {
		if _, ok := known[k]; !ok {
			dropped = append(dropped, k)
		}
	}

	out := make(Record, len(p))
	var fldErrs []core.FieldError
	for _, f := range flds {
		v, ok := p[f.Name]
		if !ok || v == nil {
			if f.Required && !partial {
				fldErrs = append(fldErrs, core.FieldError{Field: f.Name, Error: f.Name + " is required"})
			}
			continue
		}
		cv, fErr := c.coerce(f, v)
		if fErr != nil {
			fldErrs = append(fldErrs, *fErr)
			continue
		}
		out[f.Name] = cv
	}

	if len(fldErrs) > 0 {
		return nil, dropped, core.NewValidationError(errInvalidPayload, fldErrs...)
	}
	return out, dropped, nil
}

func (c *Cleaner) coerce(f FieldSpec, v interface{}) (interface{}, *core.FieldError) {
	invalid := func(msg string) *core.FieldError {
		return &core.FieldError{Field: f.Name, Error: msg}
	}

	if f.Kind == KindBool {
		b, ok := coerceBool(v)
		if !ok {
			return nil, invalid(fmt.Sprintf("%s must be a boolean", f.Name))
		}
		return b, nil
	}

	s := stringValue(v)
	switch f.Kind {
	case KindDate:
		if s == "" {
			if f.Required {
				return nil, invalid(f.Name + " is required")
			}
			return "", nil
		}
		t, err := ParseDate(s)
		if err != nil {
			return nil, invalid(ErrInvalidDateFormat.Error())
		}
		return t.Format("2006-01-02"), nil
	case KindDateTime:
		if s == "" {
			return "", nil
		}
		if _, err := ParseDateTime(s); err != nil {
			return nil, invalid(ErrInvalidDateFormat.Error())
		}
		return s, nil
	case KindEmail:
		if s == "" {
			return "", nil
		}
		return s, c.check(f.Name, s, "email")
	case KindURL:
		if s == "" {
			return "", nil
		}
		return s, c.check(f.Name, s, "url")
	case KindSelect:
		if s == "" {
			return f.Options.Default, nil
		}
		for _, opt := range f.Options.Values {
			if strings.EqualFold(s, opt) {
				return opt, nil
			}
		}
		return nil, c.check(f.Name, s, "oneof="+strings.Join(f.Options.Values, " "))
	default: // text
		var tags []string
		if f.Options.Min != nil {
			tags = append(tags, "min="+strconv.Itoa(*f.Options.Min))
		}
		if f.Options.Max != nil {
			tags = append(tags, "max="+strconv.Itoa(*f.Options.Max))
		}
		if len(tags) > 0 {
			if fErr := c.check(f.Name, s, strings.Join(tags, ",")); fErr != nil {
				return nil, fErr
			}
		}
		if f.Options.Pattern != "" {
			re, err := regexp.Compile(f.Options.Pattern)
			if err == nil && !re.MatchString(s) {
				return nil, invalid(fmt.Sprintf("%s must match %s", f.Name, f.Options.Pattern))
			}
		}
		return s, nil
	}
}

// check runs a validator tag against a single value. It returns nil when the value is valid.
func (c *Cleaner) check(field, value, tag string) *core.FieldError {
	err := c.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		fe := core.TranslateFieldError(field, vErrs[0], c.translator)
		return &fe
	}
	return &core.FieldError{Field: field, Error: err.Error()}
}

func coerceBool(v interface{}) (bool, bool) {
	switch vv := v.(type) {
	case bool:
		return vv, true
	case float64:
		return vv != 0, true
	case int:
		return vv != 0, true
	case string:
		s := strings.ToLower(strings.TrimSpace(vv))
		switch s {
		case "", "no", "n", "off":
			return false, true
		case "yes", "y", "on", "x":
			return true, true
		}
		b, err := strconv.ParseBool(s)
		return b, err == nil
	}
	return false, false
}
