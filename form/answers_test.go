package form

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rach840/survey-frontend-sub000/model"
)

func TestBuildAnswersNumericString(t *testing.T) {
	def := defWith(model.TemplateField{Code: "age", Type: model.FieldNumber})

	records := BuildAnswers(def, map[string]any{
		"main": map[string]any{"age": "42"},
	})
	assert.Equal(t, 1, len(records))
	assert.Equal(t, "age", records[0].QuestionCode)
	assert.Equal(t, "main", records[0].SectionCode)
	assert.NotNil(t, records[0].ValueNumber)
	assert.Equal(t, float64(42), *records[0].ValueNumber)
	assert.Nil(t, records[0].ValueText)
}

func TestBuildAnswersEmptyValuesEmitNothing(t *testing.T) {
	def := defWith(
		model.TemplateField{Code: "first_name", Type: model.FieldText, Required: true},
		model.TemplateField{Code: "colors", Type: model.FieldSelectMultiple},
		model.TemplateField{Code: "age", Type: model.FieldNumber},
	)

	// empty even for required fields: omission is validation's concern
	records := BuildAnswers(def, map[string]any{
		"main": map[string]any{
			"first_name": "",
			"colors":     []any{},
			"age":        nil,
		},
	})
	assert.Equal(t, 0, len(records))

	records = BuildAnswers(def, map[string]any{
		"main": map[string]any{"first_name": "   "},
	})
	assert.Equal(t, 0, len(records))
}

func TestBuildAnswersPerTypeSlots(t *testing.T) {
	def := defWith(
		model.TemplateField{Code: "name", Type: model.FieldText},
		model.TemplateField{Code: "choice", Type: model.FieldSelectOne},
		model.TemplateField{Code: "born", Type: model.FieldDate},
		model.TemplateField{Code: "colors", Type: model.FieldSelectMultiple},
		model.TemplateField{Code: "agree", Type: model.FieldCheckbox},
	)

	records := BuildAnswers(def, map[string]any{
		"main": map[string]any{
			"name":   "Ivan",
			"choice": "b",
			"born":   "1990-05-17",
			"colors": []any{"red", "", nil, "blue"},
			"agree":  true,
		},
	})
	assert.Equal(t, 5, len(records))

	byCode := map[string]model.AnswerRecord{}
	for _, rec := range records {
		byCode[rec.QuestionCode] = rec
	}

	assert.Equal(t, "Ivan", *byCode["name"].ValueText)
	assert.Equal(t, "b", *byCode["choice"].ValueText)
	assert.Equal(t, "1990-05-17", *byCode["born"].ValueDate)
	assert.Equal(t, true, *byCode["agree"].ValueBool)
	// blank entries are filtered out of the selection
	assert.JSONEq(t, `["red","blue"]`, string(byCode["colors"].ValueJSON))
}

func TestBuildAnswersCoercions(t *testing.T) {
	def := defWith(
		model.TemplateField{Code: "label", Type: model.FieldText},
		model.TemplateField{Code: "colors", Type: model.FieldSelectMultiple},
		model.TemplateField{Code: "agree", Type: model.FieldCheckbox},
	)

	records := BuildAnswers(def, map[string]any{
		"main": map[string]any{
			"label":  float64(7), // number under a text field → stringified
			"colors": "red",      // single string → one-element selection
			"agree":  float64(1), // 1 → true
		},
	})

	byCode := map[string]model.AnswerRecord{}
	for _, rec := range records {
		byCode[rec.QuestionCode] = rec
	}
	assert.Equal(t, "7", *byCode["label"].ValueText)
	assert.JSONEq(t, `["red"]`, string(byCode["colors"].ValueJSON))
	assert.Equal(t, true, *byCode["agree"].ValueBool)
}

func TestBuildAnswersSchemaDriftFallback(t *testing.T) {
	def := defWith(
		model.TemplateField{Code: "was_number", Type: model.FieldNumber},
		model.TemplateField{Code: "was_date", Type: model.FieldDate},
		model.TemplateField{Code: "was_text", Type: model.FieldText},
	)

	records := BuildAnswers(def, map[string]any{
		"main": map[string]any{
			"was_number": true,                          // bool under number → value_bool
			"was_date":   float64(2020),                 // number under date → value_number
			"was_text":   map[string]any{"nested": "x"}, // object under text → value_json
		},
	})

	byCode := map[string]model.AnswerRecord{}
	for _, rec := range records {
		byCode[rec.QuestionCode] = rec
	}
	assert.Equal(t, true, *byCode["was_number"].ValueBool)
	assert.Equal(t, float64(2020), *byCode["was_date"].ValueNumber)
	assert.JSONEq(t, `{"nested":"x"}`, string(byCode["was_text"].ValueJSON))
}

func TestBuildAnswersRepeatPathEnumeration(t *testing.T) {
	def := model.FormDefinition{
		Sections: []model.TemplateSection{
			{Code: "children", Title: "Children", Repeatable: true, Fields: []model.TemplateField{
				{Code: "child_name", Type: model.FieldText},
			}},
		},
	}

	const n = 5
	instances := make([]any, n)
	for i := range instances {
		instances[i] = map[string]any{"child_name": fmt.Sprintf("child %d", i)}
	}

	records := BuildAnswers(def, map[string]any{"children": instances})
	assert.Equal(t, n, len(records))
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("children:%d", i), rec.RepeatPath)
		assert.Equal(t, "children", rec.SectionCode)
	}
}

func TestBuildAnswersSkipsEmptyRepeatInstances(t *testing.T) {
	def := model.FormDefinition{
		Sections: []model.TemplateSection{
			{Code: "children", Title: "Children", Repeatable: true, Fields: []model.TemplateField{
				{Code: "child_name", Type: model.FieldText},
			}},
		},
	}

	records := BuildAnswers(def, map[string]any{"children": []any{
		map[string]any{"child_name": "Оля"},
		map[string]any{"child_name": ""},
		map[string]any{"child_name": "Ваня"},
	}})

	// indexes are preserved even when some instances answered nothing
	assert.Equal(t, 2, len(records))
	assert.Equal(t, "children:0", records[0].RepeatPath)
	assert.Equal(t, "children:2", records[1].RepeatPath)
}

func TestBuildAnswersIdempotent(t *testing.T) {
	def := Normalize(sectionsFixture())
	state := map[string]any{
		"name": map[string]any{"first_name": "Ivan", "last_name": "Petrov"},
		"children": []any{
			map[string]any{"child_name": "Оля", "birth_year": "2015"},
		},
	}

	first := BuildAnswers(def, state)
	second := BuildAnswers(def, state)
	assert.Equal(t, first, second)

	firstJSON, err := json.Marshal(first)
	assert.Nil(t, err)
	secondJSON, err := json.Marshal(second)
	assert.Nil(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestStateFromAnswersRoundTrip(t *testing.T) {
	def := Normalize(sectionsFixture())
	state := map[string]any{
		"name": map[string]any{"first_name": "Ivan"},
		"children": []any{
			map[string]any{"child_name": "Оля", "birth_year": float64(2015)},
			map[string]any{"child_name": "Ваня"},
		},
	}

	records := BuildAnswers(def, state)
	rebuilt := StateFromAnswers(records)

	assert.Equal(t, "Ivan", rebuilt["name"].(map[string]any)["first_name"])
	instances := rebuilt["children"].([]any)
	assert.Equal(t, 2, len(instances))
	assert.Equal(t, float64(2015), instances[0].(map[string]any)["birth_year"])
	assert.Equal(t, "Ваня", instances[1].(map[string]any)["child_name"])
}

func TestStateFromAnswersSkipsLegacyUngroupedRecords(t *testing.T) {
	text := "orphan"
	state := StateFromAnswers([]model.AnswerRecord{
		{QuestionCode: "q", ValueText: &text},
	})
	assert.Empty(t, state)
}
