package form

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rach840/survey-frontend-sub000/model"
)

var reDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const (
	msgRequired   = "required"
	msgNotNumber  = "must be a number"
	msgNotDate    = "must be a date in YYYY-MM-DD format"
	msgNotText    = "must be a string"
	msgNotList    = "must be a list of values"
	msgAtLeastFmt = "at least %d entries required"
	msgAtMostFmt  = "at most %d entries allowed"
)

// Validate checks the whole nested form state against the definition in one
// pass and collects every per-field error, keyed "<section>.<field>" (or
// "<section>:<index>.<field>" for repeatable instances). An empty map means
// the state is submittable.
func Validate(def model.FormDefinition, state map[string]any) map[string]string {
	errs := map[string]string{}

	for _, sec := range def.Sections {
		sval := state[sec.Code]

		if instances, ok := sval.([]any); ok && sec.Repeatable {
			if sec.Min > 0 && len(instances) < sec.Min {
				errs[sec.Code] = fmt.Sprintf(msgAtLeastFmt, sec.Min)
			}
			if sec.Max > 0 && len(instances) > sec.Max {
				errs[sec.Code] = fmt.Sprintf(msgAtMostFmt, sec.Max)
			}
			for i, inst := range instances {
				values, _ := inst.(map[string]any)
				prefix := fmt.Sprintf("%s:%d", sec.Code, i)
				validateSection(errs, prefix, sec, values)
			}
			continue
		}

		values, _ := sval.(map[string]any)
		validateSection(errs, sec.Code, sec, values)
	}
	return errs
}

func validateSection(errs map[string]string, prefix string, sec model.TemplateSection, values map[string]any) {
	for _, f := range sec.Fields {
		var raw any
		if values != nil {
			raw = values[f.Code]
		}
		if msg := lookupType(f.Type).validate(f, raw); msg != "" {
			errs[prefix+"."+f.Code] = msg
		}
	}
}

func validateText(f model.TemplateField, raw any) string {
	if raw == nil {
		if f.Required {
			return msgRequired
		}
		return ""
	}
	s, ok := asString(raw)
	if !ok {
		return msgNotText
	}
	if f.Required && strings.TrimSpace(s) == "" {
		return msgRequired
	}
	return ""
}

func validateNumber(f model.TemplateField, raw any) string {
	// an empty optional numeric input is simply absent
	if isBlank(raw) {
		if f.Required {
			return msgRequired
		}
		return ""
	}
	if _, ok := asNumber(raw); !ok {
		return msgNotNumber
	}
	return ""
}

func validateDate(f model.TemplateField, raw any) string {
	if isBlank(raw) {
		if f.Required {
			return msgRequired
		}
		return ""
	}
	s, ok := raw.(string)
	if !ok || !reDate.MatchString(s) {
		return msgNotDate
	}
	return ""
}

func validateList(f model.TemplateField, raw any) string {
	if raw == nil {
		if f.Required {
			return msgRequired
		}
		return ""
	}
	list, ok := asList(raw)
	if !ok {
		return msgNotList
	}
	if f.Required && len(list) == 0 {
		return msgRequired
	}
	return ""
}

// A checkbox is never required-blocking: absence simply means false.
func validateCheckbox(model.TemplateField, any) string {
	return ""
}
