package form

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Rach840/survey-frontend-sub000/model"
)

// StateFromAnswers rebuilds nested form state from flat persisted answer
// records, the inverse of BuildAnswers. Records without a section code
// (ungrouped legacy data) cannot be keyed into nested state and are
// skipped.
func StateFromAnswers(records []model.AnswerRecord) map[string]any {
	state := map[string]any{}

	for _, rec := range records {
		if rec.SectionCode == "" {
			continue
		}
		value, ok := recordValue(rec)
		if !ok {
			continue
		}

		if rec.RepeatPath == "" {
			values, ok := state[rec.SectionCode].(map[string]any)
			if !ok {
				values = map[string]any{}
				state[rec.SectionCode] = values
			}
			values[rec.QuestionCode] = value
			continue
		}

		index, ok := repeatIndex(rec.RepeatPath)
		if !ok {
			continue
		}
		instances, _ := state[rec.SectionCode].([]any)
		for len(instances) <= index {
			instances = append(instances, map[string]any{})
		}
		values, ok := instances[index].(map[string]any)
		if !ok {
			values = map[string]any{}
			instances[index] = values
		}
		values[rec.QuestionCode] = value
		state[rec.SectionCode] = instances
	}
	return state
}

func recordValue(rec model.AnswerRecord) (any, bool) {
	switch {
	case rec.ValueText != nil:
		return *rec.ValueText, true
	case rec.ValueNumber != nil:
		return *rec.ValueNumber, true
	case rec.ValueBool != nil:
		return *rec.ValueBool, true
	case rec.ValueDate != nil:
		return *rec.ValueDate, true
	case len(rec.ValueJSON) > 0:
		var v any
		if err := json.Unmarshal(rec.ValueJSON, &v); err != nil {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

func repeatIndex(path string) (int, bool) {
	i := strings.LastIndexByte(path, ':')
	if i < 0 {
		return 0, false
	}
	index, err := strconv.Atoi(path[i+1:])
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
