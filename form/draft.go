package form

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Rach840/survey-frontend-sub000/log"
	"github.com/Rach840/survey-frontend-sub000/model"
)

const draftKeyPrefix = "survey-response:v1:"

// DraftKey builds the storage key for one participant's unsent form state.
func DraftKey(token, enrollmentID string) string {
	return draftKeyPrefix + token + ":" + enrollmentID
}

// Store is the key/value persistence the form session mirrors its state
// into. Draft persistence is a convenience, not a durability guarantee:
// implementations must degrade to no-ops on failure instead of returning
// errors to the caller.
type Store interface {
	Read(key string) *model.DraftPayload
	Write(key string, values map[string]any)
	Clear(key string)
}

// DraftStore keeps drafts in the service database so they survive
// restarts, the server-side stand-in for browser local storage.
type DraftStore struct {
	db *sql.DB
}

func NewDraftStore(db *sql.DB) *DraftStore {
	return &DraftStore{db}
}

// Read returns the stored draft, or nil when there is none. A storage
// error or a corrupt record is treated as absence.
func (s *DraftStore) Read(key string) *model.DraftPayload {
	var updatedAt int64
	var valuesJSON string
	err := s.db.
		QueryRow("SELECT updated_at, values_json FROM draft WHERE key = ?", key).
		Scan(&updatedAt, &valuesJSON)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Debugf("draft.read: %s", err)
		}
		return nil
	}

	draft := model.DraftPayload{UpdatedAt: updatedAt}
	if err := json.Unmarshal([]byte(valuesJSON), &draft.Values); err != nil {
		log.Debugf("draft.read.parse: %s", err)
		return nil
	}
	if draft.Values == nil {
		return nil
	}
	return &draft
}

// Write overwrites the draft for key. Failures are logged and dropped so a
// full or broken store never blocks the user from continuing the form.
func (s *DraftStore) Write(key string, values map[string]any) {
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		log.Warnf("draft.write.marshal: %s", err)
		return
	}

	_, err = s.db.Exec(`
		INSERT INTO draft (key, updated_at, values_json) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			updated_at = excluded.updated_at,
			values_json = excluded.values_json`,
		key,
		time.Now().UnixMilli(),
		string(valuesJSON),
	)
	if err != nil {
		log.Warnf("draft.write: %s", err)
	}
}

// Clear removes the draft for key, if any.
func (s *DraftStore) Clear(key string) {
	_, err := s.db.Exec("DELETE FROM draft WHERE key = ?", key)
	if err != nil {
		log.Warnf("draft.clear: %s", err)
	}
}
