package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/Rach840/survey-frontend-sub000/app"
	"github.com/Rach840/survey-frontend-sub000/form"
	"github.com/Rach840/survey-frontend-sub000/httpx"
	"github.com/Rach840/survey-frontend-sub000/log"
	"github.com/Rach840/survey-frontend-sub000/model"
)

func CreateTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tpl := model.Template{}
		err := render.DecodeJSON(r.Body, &tpl)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if tpl.Title == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "missing template title")
			return
		}
		if len(tpl.DraftSchemaJSON) == 0 {
			tpl.DraftSchemaJSON = []byte("[]")
		}

		var templateId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO template (title, description, draft_schema_json, updated_at)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			tpl.Title,
			tpl.Description,
			string(tpl.DraftSchemaJSON),
			time.Now(),
		).Scan(&templateId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_template", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": templateId,
		})
	}
}

func ListTemplates(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT t.id, t.title, t.description, t.version, t.status, t.updated_at, t.published_at
			FROM template t
			ORDER BY t.id`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_templates", err)
			return
		}
		defer rows.Close()

		templates := []model.Template{}
		for rows.Next() {
			t := model.Template{}
			err = rows.Scan(&t.ID, &t.Title, &t.Description, &t.Version, &t.Status, &t.UpdatedAt, &t.PublishedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_templates.scan", err)
				return
			}

			templates = append(templates, t)
		}

		render.JSON(w, r, map[string]any{
			"templates": templates,
		})
	}
}

func GetTemplateById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		t := model.Template{}
		var draftSchema string
		var publishedSchema *string
		err = app.QueryRowContext(r.Context(), `
			SELECT t.id, t.title, t.description, t.version, t.status,
				t.draft_schema_json, t.published_schema_json,
				t.updated_at, t.published_at
			FROM template t
			WHERE t.id = ?`,
			templateId,
		).Scan(
			&t.ID, &t.Title, &t.Description, &t.Version, &t.Status,
			&draftSchema, &publishedSchema,
			&t.UpdatedAt, &t.PublishedAt,
		)
		if err != nil {
			httpx.LogNotFound(w, "get_template", templateId)
			return
		}

		t.DraftSchemaJSON = []byte(draftSchema)
		if publishedSchema != nil {
			t.PublishedSchemaJSON = []byte(*publishedSchema)
		}

		render.JSON(w, r, t)
	}
}

func UpdateTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		tpl := model.Template{}
		err = render.DecodeJSON(r.Body, &tpl)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(tpl.DraftSchemaJSON) == 0 {
			tpl.DraftSchemaJSON = []byte("[]")
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE template
			SET
				title = ?,
				description = ?,
				draft_schema_json = ?,
				version = version+1,
				updated_at = ?
			WHERE	id = ?
				AND version = ?`,
			tpl.Title,
			tpl.Description,
			string(tpl.DraftSchemaJSON),
			time.Now(),
			templateId,
			tpl.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_template", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_template.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_template.verify.conflict")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func PublishTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var draftSchema string
		err = tx.QueryRowContext(r.Context(), `
			SELECT t.draft_schema_json FROM template t
			WHERE t.id = ?`,
			templateId,
		).Scan(&draftSchema)
		if err != nil {
			httpx.LogNotFound(w, "publish_template", templateId)
			return
		}

		// a template only becomes publishable once its draft normalizes
		// to at least one section
		def := form.Normalize(draftSchema)
		if len(def.Sections) == 0 {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"publish_template.empty_schema", "template schema has no sections")
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			UPDATE template
			SET
				published_schema_json = draft_schema_json,
				status = ?,
				version = version+1,
				updated_at = ?,
				published_at = ?
			WHERE id = ?`,
			model.TemplatePublished,
			time.Now(),
			time.Now(),
			templateId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.publish_template", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.publish_template.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM template WHERE id = ?`,
			templateId,
		)
		if err != nil {
			// surveys created from the template keep their own snapshot,
			// but the FK still guards the template row
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.delete_template.in_use")
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_template.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_template", templateId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if survey.Channel == "" {
			survey.Channel = model.ChannelWeb
		}
		if !model.ValidChannel(survey.Channel) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate",
				"unknown channel %q", survey.Channel)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var status string
		var title string
		var publishedSchema *string
		err = tx.QueryRowContext(r.Context(), `
			SELECT t.status, t.title, t.published_schema_json
			FROM template t
			WHERE t.id = ?`,
			survey.TemplateID,
		).Scan(&status, &title, &publishedSchema)
		if err != nil {
			httpx.LogNotFound(w, "create_survey.template", survey.TemplateID)
			return
		}
		if status != model.TemplatePublished || publishedSchema == nil {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "create_survey.template.unpublished")
			return
		}

		if survey.Title == "" {
			survey.Title = title
		}

		// snapshot: the survey keeps the published schema as it is now,
		// immune to later template edits
		var surveyId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO survey (template_id, title, schema_json, channel, created_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			survey.TemplateID,
			survey.Title,
			*publishedSchema,
			survey.Channel,
			time.Now(),
		).Scan(&surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.template_id, s.title, s.channel, s.created_at
			FROM survey s
			ORDER BY s.id`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.Survey{}
		for rows.Next() {
			s := model.Survey{}
			err = rows.Scan(&s.ID, &s.TemplateID, &s.Title, &s.Channel, &s.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}

			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		s := model.Survey{}
		var schema string
		err = app.QueryRowContext(r.Context(), `
			SELECT s.id, s.template_id, s.title, s.schema_json, s.channel, s.created_at
			FROM survey s
			WHERE s.id = ?`,
			surveyId,
		).Scan(&s.ID, &s.TemplateID, &s.Title, &schema, &s.Channel, &s.CreatedAt)
		if err != nil {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}

		def := form.Normalize(schema)
		def.Title = s.Title

		render.JSON(w, r, map[string]any{
			"survey":   s,
			"sections": def.Sections,
		})
	}
}

type inviteRequest struct {
	Participants []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"participants"`
}

func CreateEnrollments(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		invite := inviteRequest{}
		err = render.DecodeJSON(r.Body, &invite)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(invite.Participants) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "no participants to invite")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var exists bool
		err = tx.QueryRowContext(r.Context(), `
			SELECT 1 FROM survey WHERE id = ?`,
			surveyId,
		).Scan(&exists)
		if err != nil {
			httpx.LogNotFound(w, "create_enrollments.survey", surveyId)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO enrollment (id, survey_id, token, participant_name, participant_email, status, invited_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_enrollments.prepare", err)
			return
		}
		defer stmt.Close()

		now := time.Now()
		enrollments := make([]model.Enrollment, 0, len(invite.Participants))
		for _, p := range invite.Participants {
			e := model.Enrollment{
				ID:               uuid.NewString(),
				SurveyID:         surveyId,
				Token:            uuid.NewString(),
				ParticipantName:  p.Name,
				ParticipantEmail: p.Email,
				Status:           model.EnrollmentInvited,
				InvitedAt:        now,
			}
			_, err = stmt.ExecContext(r.Context(), e.ID, e.SurveyID, e.Token, e.ParticipantName, e.ParticipantEmail, e.Status, e.InvitedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_enrollments.insert", err)
				return
			}
			enrollments = append(enrollments, e)
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_enrollments.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"enrollments": enrollments,
		})
	}
}

func ListEnrollments(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT e.id, e.survey_id, e.token, e.participant_name, e.participant_email,
				e.status, e.invited_at, e.submitted_at
			FROM enrollment e
			WHERE e.survey_id = ?
			ORDER BY e.invited_at, e.id`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_enrollments", err)
			return
		}
		defer rows.Close()

		enrollments := []model.Enrollment{}
		for rows.Next() {
			e := model.Enrollment{}
			err = rows.Scan(&e.ID, &e.SurveyID, &e.Token, &e.ParticipantName, &e.ParticipantEmail,
				&e.Status, &e.InvitedAt, &e.SubmittedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_enrollments.scan", err)
				return
			}

			enrollments = append(enrollments, e)
		}

		render.JSON(w, r, map[string]any{
			"enrollments": enrollments,
		})
	}
}

type enrollmentAnswers struct {
	EnrollmentID    string               `json:"enrollment_id"`
	ParticipantName string               `json:"participant_name"`
	Status          string               `json:"status"`
	SubmittedAt     *time.Time           `json:"submitted_at,omitempty"`
	Answers         []model.AnswerRecord `json:"answers"`
}

func GetSurveyAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM survey WHERE id = ?`,
			surveyId,
		).Scan(&exists)
		if err != nil {
			httpx.LogNotFound(w, "get_answers.survey", surveyId)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT
				e.id, e.participant_name, e.status, e.submitted_at,
				a.question_code, a.section_code, a.repeat_path,
				a.value_text, a.value_number, a.value_bool, a.value_date, a.value_json
			FROM enrollment e
			INNER JOIN answer a ON (a.enrollment_id = e.id)
			WHERE e.survey_id = ?
			ORDER BY e.invited_at, e.id, a.id`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers", err)
			return
		}
		defer rows.Close()

		results := []enrollmentAnswers{}
		for rows.Next() {
			var ea enrollmentAnswers
			var rec model.AnswerRecord
			var sectionCode, repeatPath, valueJSON *string
			var valueBool *bool

			err = rows.Scan(
				&ea.EnrollmentID, &ea.ParticipantName, &ea.Status, &ea.SubmittedAt,
				&rec.QuestionCode, &sectionCode, &repeatPath,
				&rec.ValueText, &rec.ValueNumber, &valueBool, &rec.ValueDate, &valueJSON,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_answers.scan", err)
				return
			}

			if sectionCode != nil {
				rec.SectionCode = *sectionCode
			}
			if repeatPath != nil {
				rec.RepeatPath = *repeatPath
			}
			rec.ValueBool = valueBool
			if valueJSON != nil {
				rec.ValueJSON = []byte(*valueJSON)
			}

			lastIdx := len(results) - 1
			if lastIdx > -1 && results[lastIdx].EnrollmentID == ea.EnrollmentID {
				results[lastIdx].Answers = append(results[lastIdx].Answers, rec)
			} else {
				ea.Answers = []model.AnswerRecord{rec}
				results = append(results, ea)
			}
		}

		render.JSON(w, r, map[string]any{
			"results": results,
		})
	}
}
