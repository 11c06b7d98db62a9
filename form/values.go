package form

import "github.com/Rach840/survey-frontend-sub000/model"

// InitialValues computes the starting state for a form session by merging,
// in order of increasing priority: per-type registry defaults, answers
// already persisted on the server, and the locally saved draft. The draft
// always wins over server answers: it is the most recent user intent not
// yet confirmed submitted.
func InitialValues(def model.FormDefinition, server map[string]any, draft *model.DraftPayload) map[string]any {
	values := defaultValues(def)

	// server answers are used only when they arrive as a plain
	// section-keyed object; any other shape is ignored
	if server != nil {
		mergeValues(values, server)
	}
	if draft != nil && draft.Values != nil {
		mergeValues(values, draft.Values)
	}
	return values
}

func defaultValues(def model.FormDefinition) map[string]any {
	values := make(map[string]any, len(def.Sections))
	for _, sec := range def.Sections {
		if sec.Repeatable {
			n := sec.Min
			if n < 1 {
				n = 1
			}
			instances := make([]any, n)
			for i := range instances {
				instances[i] = defaultSectionValues(sec)
			}
			values[sec.Code] = instances
			continue
		}
		values[sec.Code] = defaultSectionValues(sec)
	}
	return values
}

func defaultSectionValues(sec model.TemplateSection) map[string]any {
	values := make(map[string]any, len(sec.Fields))
	for _, f := range sec.Fields {
		values[f.Code] = EmptyValue(f.Type)
	}
	return values
}

// mergeValues overlays src onto dst section by section. When both sides
// hold a field map the overlay is per field; repeated-instance arrays and
// scalar values replace wholesale.
func mergeValues(dst, src map[string]any) {
	for key, sval := range src {
		dmap, dok := dst[key].(map[string]any)
		smap, sok := sval.(map[string]any)
		if dok && sok {
			for field, v := range smap {
				dmap[field] = v
			}
			continue
		}
		dst[key] = sval
	}
}
