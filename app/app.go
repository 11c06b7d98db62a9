package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/Rach840/survey-frontend-sub000/config"
	"github.com/Rach840/survey-frontend-sub000/form"
)

// App bundles the shared service dependencies handed to every controller.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Drafts form.Store
}
