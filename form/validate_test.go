package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rach840/survey-frontend-sub000/model"
)

func defWith(fields ...model.TemplateField) model.FormDefinition {
	return model.FormDefinition{
		Sections: []model.TemplateSection{
			{Code: "main", Title: "Main", Fields: fields},
		},
	}
}

func TestValidateRequiredTextEmpty(t *testing.T) {
	def := model.FormDefinition{
		Sections: []model.TemplateSection{
			{Code: "name", Title: "Name", Fields: []model.TemplateField{
				{Code: "first_name", Label: "First name", Type: model.FieldText, Required: true},
			}},
		},
	}

	errs := Validate(def, map[string]any{
		"name": map[string]any{"first_name": ""},
	})
	assert.Equal(t, map[string]string{"name.first_name": "required"}, errs)

	// whitespace-only is just as empty
	errs = Validate(def, map[string]any{
		"name": map[string]any{"first_name": "   "},
	})
	assert.Contains(t, errs, "name.first_name")

	// section missing entirely
	errs = Validate(def, map[string]any{})
	assert.Contains(t, errs, "name.first_name")

	errs = Validate(def, map[string]any{
		"name": map[string]any{"first_name": "Ivan"},
	})
	assert.Empty(t, errs)
}

func TestValidateCheckboxNeverRequired(t *testing.T) {
	def := defWith(model.TemplateField{Code: "agree", Type: model.FieldCheckbox, Required: true})

	for _, state := range []map[string]any{
		{},
		{"main": map[string]any{}},
		{"main": map[string]any{"agree": false}},
		{"main": map[string]any{"agree": nil}},
		{"main": map[string]any{"agree": "garbage"}},
	} {
		assert.Empty(t, Validate(def, state))
	}
}

func TestValidateNumber(t *testing.T) {
	def := defWith(model.TemplateField{Code: "age", Type: model.FieldNumber})

	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"age": float64(42)}}))
	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"age": "42"}}))
	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"age": " 42.5 "}}))
	// empty optional numeric is absent
	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"age": ""}}))

	errs := Validate(def, map[string]any{"main": map[string]any{"age": "forty-two"}})
	assert.Equal(t, "must be a number", errs["main.age"])

	errs = Validate(def, map[string]any{"main": map[string]any{"age": "NaN"}})
	assert.Contains(t, errs, "main.age")

	required := defWith(model.TemplateField{Code: "age", Type: model.FieldNumber, Required: true})
	errs = Validate(required, map[string]any{"main": map[string]any{"age": ""}})
	assert.Equal(t, "required", errs["main.age"])
}

func TestValidateDate(t *testing.T) {
	def := defWith(model.TemplateField{Code: "born", Type: model.FieldDate})

	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"born": "1990-05-17"}}))
	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"born": ""}}))

	for _, bad := range []any{"17.05.1990", "1990-5-7", "not a date", float64(1990)} {
		errs := Validate(def, map[string]any{"main": map[string]any{"born": bad}})
		assert.Equal(t, "must be a date in YYYY-MM-DD format", errs["main.born"])
	}
}

func TestValidateSelectMultiple(t *testing.T) {
	def := defWith(model.TemplateField{Code: "colors", Type: model.FieldSelectMultiple, Required: true})

	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"colors": []any{"red"}}}))
	// a single string is coerced to a one-element selection
	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"colors": "red"}}))

	errs := Validate(def, map[string]any{"main": map[string]any{"colors": []any{}}})
	assert.Equal(t, "required", errs["main.colors"])

	errs = Validate(def, map[string]any{"main": map[string]any{"colors": float64(3)}})
	assert.Equal(t, "must be a list of values", errs["main.colors"])

	optional := defWith(model.TemplateField{Code: "colors", Type: model.FieldSelectMultiple})
	assert.Empty(t, Validate(optional, map[string]any{"main": map[string]any{"colors": []any{}}}))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	def := defWith(
		model.TemplateField{Code: "a", Type: model.FieldText, Required: true},
		model.TemplateField{Code: "b", Type: model.FieldNumber, Required: true},
		model.TemplateField{Code: "c", Type: model.FieldDate},
	)

	errs := Validate(def, map[string]any{"main": map[string]any{
		"a": "",
		"b": "oops",
		"c": "31/12/2020",
	}})
	assert.Equal(t, 3, len(errs))
	assert.Contains(t, errs, "main.a")
	assert.Contains(t, errs, "main.b")
	assert.Contains(t, errs, "main.c")
}

func TestValidateRepeatableInstances(t *testing.T) {
	def := model.FormDefinition{
		Sections: []model.TemplateSection{
			{
				Code: "children", Title: "Children", Repeatable: true, Min: 1, Max: 2,
				Fields: []model.TemplateField{
					{Code: "child_name", Type: model.FieldText, Required: true},
				},
			},
		},
	}

	errs := Validate(def, map[string]any{"children": []any{
		map[string]any{"child_name": "Оля"},
		map[string]any{"child_name": ""},
	}})
	assert.Equal(t, map[string]string{"children:1.child_name": "required"}, errs)

	errs = Validate(def, map[string]any{"children": []any{}})
	assert.Equal(t, "at least 1 entries required", errs["children"])

	errs = Validate(def, map[string]any{"children": []any{
		map[string]any{"child_name": "a"},
		map[string]any{"child_name": "b"},
		map[string]any{"child_name": "c"},
	}})
	assert.Equal(t, "at most 2 entries allowed", errs["children"])
}

func TestValidateUnknownTypeBehavesAsText(t *testing.T) {
	def := defWith(model.TemplateField{Code: "x", Type: "hologram", Required: true})

	errs := Validate(def, map[string]any{"main": map[string]any{"x": ""}})
	assert.Equal(t, "required", errs["main.x"])
	assert.Empty(t, Validate(def, map[string]any{"main": map[string]any{"x": "anything"}}))
}
