package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/Rach840/survey-frontend-sub000/app"
	"github.com/Rach840/survey-frontend-sub000/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// public survey-taking flow, scoped by enrollment token
	api.Get("/responses/{token}", PublicGetResponseForm(app))
	api.Put("/responses/{token}/draft", PublicSaveDraft(app))
	api.Post("/responses/{token}", PublicSubmitResponse(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD templates
		r.Post("/templates", CreateTemplate(app))
		r.Get("/templates", ListTemplates(app))
		r.Get(`/templates/{id:^\d+$}`, GetTemplateById(app))
		r.Put(`/templates/{id:^\d+$}`, UpdateTemplate(app))
		r.Post(`/templates/{id:^\d+$}/publish`, PublishTemplate(app))
		r.Delete(`/templates/{id:^\d+$}`, DeleteTemplate(app))

		// surveys and participants
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
		r.Post(`/surveys/{id:^\d+$}/enrollments`, CreateEnrollments(app))
		r.Get(`/surveys/{id:^\d+$}/enrollments`, ListEnrollments(app))
		r.Get(`/surveys/{id:^\d+$}/answers`, GetSurveyAnswers(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
