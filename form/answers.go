package form

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Rach840/survey-frontend-sub000/model"
)

// BuildAnswers flattens the current nested form state into the flat answer
// records the persistence layer stores. Unanswered fields (nil, empty or
// whitespace-only values) produce no record, required or not: omission is a
// validation-time concern, not a submission-time one. Output is a pure
// function of its input; calling it twice on identical state yields
// identical records.
func BuildAnswers(def model.FormDefinition, state map[string]any) []model.AnswerRecord {
	records := []model.AnswerRecord{}

	for _, sec := range def.Sections {
		sval := state[sec.Code]

		if instances, ok := asInstanceList(sval); ok {
			for i, values := range instances {
				for _, f := range sec.Fields {
					rec := mapFieldValue(f, values[f.Code])
					if rec == nil {
						continue
					}
					rec.SectionCode = sec.Code
					rec.RepeatPath = fmt.Sprintf("%s:%d", sec.Code, i)
					records = append(records, *rec)
				}
			}
			continue
		}

		values, _ := sval.(map[string]any)
		for _, f := range sec.Fields {
			var raw any
			if values != nil {
				raw = values[f.Code]
			}
			rec := mapFieldValue(f, raw)
			if rec == nil {
				continue
			}
			rec.SectionCode = sec.Code
			records = append(records, *rec)
		}
	}
	return records
}

func asInstanceList(v any) ([]map[string]any, bool) {
	switch v := v.(type) {
	case []any:
		out := make([]map[string]any, len(v))
		for i, inst := range v {
			out[i], _ = inst.(map[string]any)
		}
		return out, true
	case []map[string]any:
		return v, true
	}
	return nil, false
}

// mapFieldValue coerces one raw state value into a typed answer record.
// The declared field type is tried first; when the raw shape does not
// match it (schema drift between a saved draft and an edited template),
// generic type sniffing takes over.
func mapFieldValue(f model.TemplateField, raw any) *model.AnswerRecord {
	if isBlank(raw) {
		return nil
	}
	rec := model.AnswerRecord{QuestionCode: f.Code}

	switch f.Type {
	case model.FieldNumber:
		if n, ok := asNumber(raw); ok {
			rec.ValueNumber = &n
			return &rec
		}
	case model.FieldDate:
		if s, ok := raw.(string); ok {
			rec.ValueDate = &s
			return &rec
		}
	case model.FieldText, model.FieldSelectOne:
		if s, ok := asString(raw); ok {
			rec.ValueText = &s
			return &rec
		}
	case model.FieldSelectMultiple:
		if data, ok := listValueJSON(raw); ok {
			rec.ValueJSON = data
			return &rec
		}
	case model.FieldCheckbox:
		if b, ok := asBool(raw); ok {
			rec.ValueBool = &b
			return &rec
		}
	}

	return sniffValue(rec, raw)
}

// listValueJSON encodes selection lists and object-shaped values. Blank and
// nil entries are dropped; an empty result means the field is unanswered.
func listValueJSON(raw any) (json.RawMessage, bool) {
	switch v := raw.(type) {
	case string:
		return marshalValue([]any{v})
	case map[string]any:
		if len(v) == 0 {
			return nil, false
		}
		return marshalValue(v)
	}
	if list, ok := asList(raw); ok {
		kept := []any{}
		for _, item := range list {
			if !isBlank(item) {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			return nil, false
		}
		return marshalValue(kept)
	}
	return nil, false
}

// sniffValue is the last-resort mapping for values whose shape no longer
// matches their declared type.
func sniffValue(rec model.AnswerRecord, raw any) *model.AnswerRecord {
	switch v := raw.(type) {
	case bool:
		rec.ValueBool = &v
		return &rec
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		rec.ValueText = &v
		return &rec
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		if data, ok := marshalValue(v); ok {
			rec.ValueJSON = data
			return &rec
		}
		return nil
	case []any:
		if len(v) == 0 {
			return nil
		}
		if data, ok := marshalValue(v); ok {
			rec.ValueJSON = data
			return &rec
		}
		return nil
	}
	if n, ok := asNumber(raw); ok && !math.IsNaN(n) {
		rec.ValueNumber = &n
		return &rec
	}
	return nil
}

func marshalValue(v any) (json.RawMessage, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return data, true
}
