package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Rach840/survey-frontend-sub000/app"
	"github.com/Rach840/survey-frontend-sub000/config"
	"github.com/Rach840/survey-frontend-sub000/database"
	"github.com/Rach840/survey-frontend-sub000/form"
)

// newTestApp opens a throwaway migrated sqlite database.
func newTestApp(t *testing.T) app.App {
	t.Helper()

	cfg := config.Config{
		DBUrl:       filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret: "test-secret",
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatal("opening test database:", err)
	}
	t.Cleanup(func() { db.Close() })

	return app.App{
		DB:     db,
		Config: cfg,
		Drafts: form.NewDraftStore(db),
	}
}

// testRouter wires the API handlers without the auth middleware, which has
// its own layer and is not what these tests exercise.
func testRouter(app app.App) http.Handler {
	r := chi.NewRouter()

	r.Post("/admin/templates", CreateTemplate(app))
	r.Get("/admin/templates", ListTemplates(app))
	r.Get("/admin/templates/{id}", GetTemplateById(app))
	r.Put("/admin/templates/{id}", UpdateTemplate(app))
	r.Post("/admin/templates/{id}/publish", PublishTemplate(app))
	r.Delete("/admin/templates/{id}", DeleteTemplate(app))

	r.Post("/admin/surveys", CreateSurvey(app))
	r.Get("/admin/surveys", ListSurveys(app))
	r.Get("/admin/surveys/{id}", GetSurveyById(app))
	r.Post("/admin/surveys/{id}/enrollments", CreateEnrollments(app))
	r.Get("/admin/surveys/{id}/enrollments", ListEnrollments(app))
	r.Get("/admin/surveys/{id}/answers", GetSurveyAnswers(app))

	r.Get("/responses/{token}", PublicGetResponseForm(app))
	r.Put("/responses/{token}/draft", PublicSaveDraft(app))
	r.Post("/responses/{token}", PublicSubmitResponse(app))

	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal("marshalling request body:", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("content-type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal("decoding JSON response:", err)
	}
	return body
}

var testSchema = []any{
	map[string]any{
		"code":  "name",
		"title": "Имя",
		"fields": []any{
			map[string]any{"code": "first_name", "label": "Имя", "type": "text", "required": true},
			map[string]any{"code": "age", "label": "Возраст", "type": "number"},
		},
	},
	map[string]any{
		"code":       "children",
		"title":      "Дети",
		"repeatable": true,
		"fields": []any{
			map[string]any{"code": "child_name", "label": "Имя ребёнка", "type": "text"},
		},
	},
}

// publishedSurvey drives the whole admin flow and returns the survey id
// and one enrollment token.
func publishedSurvey(t *testing.T, router http.Handler) (surveyId float64, token string) {
	t.Helper()

	resp := doJSON(t, router, "POST", "/admin/templates", map[string]any{
		"title":             "Анкета",
		"draft_schema_json": testSchema,
	})
	if resp.Code != http.StatusCreated {
		t.Fatal("creating template: unexpected status", resp.Code)
	}
	templateId := decodeBody(t, resp)["id"].(float64)

	resp = doJSON(t, router, "POST", jsonPath("/admin/templates/%v/publish", templateId), nil)
	if resp.Code != http.StatusNoContent {
		t.Fatal("publishing template: unexpected status", resp.Code)
	}

	resp = doJSON(t, router, "POST", "/admin/surveys", map[string]any{
		"template_id": templateId,
	})
	if resp.Code != http.StatusCreated {
		t.Fatal("creating survey: unexpected status", resp.Code)
	}
	surveyId = decodeBody(t, resp)["id"].(float64)

	resp = doJSON(t, router, "POST", jsonPath("/admin/surveys/%v/enrollments", surveyId), map[string]any{
		"participants": []any{
			map[string]any{"name": "Иван Петров", "email": "ivan@example.com"},
		},
	})
	if resp.Code != http.StatusCreated {
		t.Fatal("creating enrollment: unexpected status", resp.Code)
	}
	enrollments := decodeBody(t, resp)["enrollments"].([]any)
	token = enrollments[0].(map[string]any)["token"].(string)

	return surveyId, token
}

func jsonPath(format string, id float64) string {
	return fmt.Sprintf(format, int(id))
}
