package form

import (
	"encoding/json"
	"strconv"

	"github.com/Rach840/survey-frontend-sub000/model"
)

// Normalize converts a raw template schema into a canonical FormDefinition.
// The input may be a JSON string/[]byte, an already-decoded section array,
// or a {draft_schema_json, published_schema_json} envelope; the published
// variant wins when it is a non-empty array. Total over JSON-shaped input:
// anything unusable yields an empty definition, never an error.
func Normalize(raw any) model.FormDefinition {
	return model.FormDefinition{Sections: normalizeSections(raw)}
}

func normalizeSections(raw any) []model.TemplateSection {
	sections := []model.TemplateSection{}

	switch v := raw.(type) {
	case nil:
		return sections
	case string:
		return normalizeSections(decodeJSON([]byte(v)))
	case []byte:
		return normalizeSections(decodeJSON(v))
	case json.RawMessage:
		return normalizeSections(decodeJSON(v))
	case map[string]any:
		if published, ok := v["published_schema_json"].([]any); ok && len(published) > 0 {
			return normalizeSections(published)
		}
		if draft, ok := v["draft_schema_json"].([]any); ok {
			return normalizeSections(draft)
		}
		return sections
	case []any:
		for i, s := range v {
			if sec, ok := normalizeSection(i, s); ok {
				sections = append(sections, sec)
			}
		}
		return sections
	}
	return sections
}

func decodeJSON(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}

func normalizeSection(i int, raw any) (sec model.TemplateSection, ok bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return sec, false
	}

	sec.Code = stringAt(obj, "code")
	sec.Title = stringAt(obj, "title")
	if sec.Code == "" {
		// keep the section anyway, under a positional identity
		sec.Code = "section_" + strconv.Itoa(i+1)
	}
	if sec.Title == "" {
		sec.Title = "Секция " + strconv.Itoa(i+1)
	}

	if rep, ok := asBool(obj["repeatable"]); ok {
		sec.Repeatable = rep
	}
	if sec.Repeatable {
		if n, ok := asNumber(obj["min"]); ok {
			sec.Min = int(n)
		}
		if n, ok := asNumber(obj["max"]); ok {
			sec.Max = int(n)
		}
	}

	sec.Fields = []model.TemplateField{}
	fields, _ := obj["fields"].([]any)
	for _, f := range fields {
		if field, ok := normalizeField(f); ok {
			sec.Fields = append(sec.Fields, field)
		}
	}
	return sec, true
}

func normalizeField(raw any) (field model.TemplateField, ok bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return field, false
	}

	field.Code = stringAt(obj, "code")
	if field.Code == "" {
		// a field without a code cannot be keyed in form state
		return field, false
	}

	field.Label = stringAt(obj, "label")
	if field.Label == "" {
		field.Label = field.Code
	}

	field.Type = model.FieldType(stringAt(obj, "type"))
	if !KnownType(field.Type) {
		field.Type = model.FieldText
	}

	if req, ok := asBool(obj["required"]); ok {
		field.Required = req
	}

	if opts, ok := obj["options"].([]any); ok {
		for _, o := range opts {
			if opt, ok := normalizeOption(o); ok {
				field.Options = append(field.Options, opt)
			}
		}
	}
	return field, true
}

func normalizeOption(raw any) (opt model.FieldOption, ok bool) {
	switch o := raw.(type) {
	case string:
		if o == "" {
			return opt, false
		}
		return model.FieldOption{Code: o, Label: o}, true
	case map[string]any:
		opt.Code = stringAt(o, "code")
		opt.Label = stringAt(o, "label")
		if opt.Code == "" && opt.Label == "" {
			return opt, false
		}
		if opt.Code == "" {
			opt.Code = opt.Label
		}
		if opt.Label == "" {
			opt.Label = opt.Code
		}
		return opt, true
	}
	return opt, false
}

func stringAt(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
