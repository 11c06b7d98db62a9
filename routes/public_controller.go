package routes

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/Rach840/survey-frontend-sub000/app"
	"github.com/Rach840/survey-frontend-sub000/form"
	"github.com/Rach840/survey-frontend-sub000/httpx"
	"github.com/Rach840/survey-frontend-sub000/log"
	"github.com/Rach840/survey-frontend-sub000/model"
)

// PublicGetResponseForm resolves an enrollment token into the canonical
// form definition and initial values (server answers merged with the local
// draft). An already submitted enrollment short-circuits with no form.
func PublicGetResponseForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		e, ok := findEnrollment(app, w, r, token)
		if !ok {
			return
		}
		if e.Status == model.EnrollmentSubmitted {
			render.JSON(w, r, map[string]any{
				"state": model.EnrollmentSubmitted,
			})
			return
		}

		s := model.Survey{}
		var schema string
		err := app.QueryRowContext(r.Context(), `
			SELECT s.id, s.title, s.schema_json
			FROM survey s
			WHERE s.id = ?`,
			e.SurveyID,
		).Scan(&s.ID, &s.Title, &schema)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		def := form.Normalize(schema)
		def.Title = s.Title

		server, err := loadAnswerState(r.Context(), app, e.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_answers", err)
			return
		}
		draft := app.Drafts.Read(form.DraftKey(token, e.ID))

		render.JSON(w, r, map[string]any{
			"survey": map[string]any{
				"id":    s.ID,
				"title": s.Title,
			},
			"sections": def.Sections,
			"values":   form.InitialValues(def, server, draft),
			"state":    e.Status,
		})
	}
}

type draftRequest struct {
	Values map[string]any `json:"values"`
}

// PublicSaveDraft is the server side of the debounced autosave: it
// overwrites the draft for this enrollment. Draft persistence never fails
// the request; a broken store only costs the convenience.
func PublicSaveDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		draft := draftRequest{}
		err := render.DecodeJSON(r.Body, &draft)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		e, ok := findEnrollment(app, w, r, token)
		if !ok {
			return
		}
		if e.Status == model.EnrollmentSubmitted {
			// the session is already closed; drop any stale draft
			app.Drafts.Clear(form.DraftKey(token, e.ID))
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "save_draft.already_submitted")
			return
		}

		app.Drafts.Write(form.DraftKey(token, e.ID), draft.Values)

		if e.Status == model.EnrollmentInvited {
			_, err = app.ExecContext(r.Context(), `
				UPDATE enrollment SET status = ? WHERE id = ?`,
				model.EnrollmentInProgress,
				e.ID,
			)
			if err != nil {
				log.Warnf("db.update_enrollment.in_progress: %s", err)
			}
		}

		render.JSON(w, r, map[string]any{
			"state": model.EnrollmentInProgress,
		})
	}
}

type submitRequest struct {
	Values  map[string]any `json:"values"`
	Channel string         `json:"channel"`
}

// PublicSubmitResponse validates the submitted state, flattens it into
// answer records and persists them in one transaction. The draft is
// cleared only after the transaction commits, so a failed submission
// keeps the participant's work for a retry.
func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		submit := submitRequest{}
		err := render.DecodeJSON(r.Body, &submit)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if submit.Channel == "" {
			submit.Channel = model.ChannelWeb
		}
		if !model.ValidChannel(submit.Channel) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate",
				"unknown channel %q", submit.Channel)
			return
		}

		e, ok := findEnrollment(app, w, r, token)
		if !ok {
			return
		}
		if e.Status == model.EnrollmentSubmitted {
			app.Drafts.Clear(form.DraftKey(token, e.ID))
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "submit.already_submitted")
			return
		}

		var schema string
		err = app.QueryRowContext(r.Context(), `
			SELECT s.schema_json FROM survey s
			WHERE s.id = ?`,
			e.SurveyID,
		).Scan(&schema)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		def := form.Normalize(schema)

		if errs := form.Validate(def, submit.Values); len(errs) > 0 {
			httpx.LogValidationErrors(w, r, "submit.validate", errs)
			return
		}

		records := form.BuildAnswers(def, submit.Values)

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		// resubmission of an in-progress session replaces prior partials
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM answer WHERE enrollment_id = ?`,
			e.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_answers.delete_stale", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO answer (enrollment_id, question_code, section_code, repeat_path,
				value_text, value_number, value_bool, value_date, value_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_answers.prepare", err)
			return
		}
		defer stmt.Close()

		for _, rec := range records {
			var valueJSON *string
			if len(rec.ValueJSON) > 0 {
				s := string(rec.ValueJSON)
				valueJSON = &s
			}
			_, err = stmt.ExecContext(r.Context(),
				e.ID,
				rec.QuestionCode,
				nullable(rec.SectionCode),
				nullable(rec.RepeatPath),
				rec.ValueText,
				rec.ValueNumber,
				rec.ValueBool,
				rec.ValueDate,
				valueJSON,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_answers.insert", err)
				return
			}
		}

		_, err = tx.ExecContext(r.Context(), `
			UPDATE enrollment
			SET status = ?, submitted_at = ?
			WHERE id = ?`,
			model.EnrollmentSubmitted,
			time.Now(),
			e.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_enrollment.submitted", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_answers.commit", err)
			return
		}

		app.Drafts.Clear(form.DraftKey(token, e.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"answers_saved": len(records),
			"state":         model.EnrollmentSubmitted,
		})
	}
}

func findEnrollment(app app.App, w http.ResponseWriter, r *http.Request, token string) (e model.Enrollment, ok bool) {
	if token == "" {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.token")
		return e, false
	}

	err := app.QueryRowContext(r.Context(), `
		SELECT e.id, e.survey_id, e.token, e.participant_name, e.status
		FROM enrollment e
		WHERE e.token = ?`,
		token,
	).Scan(&e.ID, &e.SurveyID, &e.Token, &e.ParticipantName, &e.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			httpx.LogNotFound(w, "get_enrollment", token)
		} else {
			httpx.LogInternalError(w, "db.get_enrollment", err)
		}
		return e, false
	}
	return e, true
}

// loadAnswerState fetches previously persisted answers for an enrollment
// and rebuilds nested form state out of them, so a partially answered
// session resumes where it left off.
func loadAnswerState(ctx context.Context, app app.App, enrollmentID string) (map[string]any, error) {
	rows, err := app.QueryContext(ctx, `
		SELECT a.question_code, a.section_code, a.repeat_path,
			a.value_text, a.value_number, a.value_bool, a.value_date, a.value_json
		FROM answer a
		WHERE a.enrollment_id = ?
		ORDER BY a.id`,
		enrollmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.AnswerRecord{}
	for rows.Next() {
		var rec model.AnswerRecord
		var sectionCode, repeatPath, valueJSON *string

		err = rows.Scan(
			&rec.QuestionCode, &sectionCode, &repeatPath,
			&rec.ValueText, &rec.ValueNumber, &rec.ValueBool, &rec.ValueDate, &valueJSON,
		)
		if err != nil {
			return nil, err
		}

		if sectionCode != nil {
			rec.SectionCode = *sectionCode
		}
		if repeatPath != nil {
			rec.RepeatPath = *repeatPath
		}
		if valueJSON != nil {
			rec.ValueJSON = []byte(*valueJSON)
		}
		records = append(records, rec)
	}

	return form.StateFromAnswers(records), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
