package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
	"github.com/jbkun069/AnimeChatCraft/pkg/character"

	"github.com/go-chi/chi/v5"
)

type saveResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

func (api *API) saveCharacter(w http.ResponseWriter, r *http.Request) {
	var c character.Character
	if err := decodeJSON(w, r, &c); err != nil {
		writeErr(w, r, apperr.Wrap(apperr.CodeValidation, err, "All fields are required"), fieldMessage, "Error saving character.")

		return
	}

	key, err := api.store.Save(r.Context(), &c)
	if err != nil {
		writeErr(w, r, err, fieldMessage, "Error saving character.")

		return
	}

	writeJSON(w, r, http.StatusOK, &saveResponse{
		Message: fmt.Sprintf("Character '%s' saved!", c.Name),
		Key:     key,
	})
}

// nameParam returns the decoded {name} segment. chi hands back the escaped form when the path had
// to keep RawPath, e.g. for an encoded slash.
func nameParam(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}

	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}

	return name
}

func (api *API) loadCharacter(w http.ResponseWriter, r *http.Request) {
	c, err := api.store.Load(r.Context(), nameParam(r))
	if err != nil {
		writeErr(w, r, err, fieldMessage, "Error loading character.")

		return
	}

	writeJSON(w, r, http.StatusOK, c)
}

func (api *API) listCharacters(w http.ResponseWriter, r *http.Request) {
	names, err := api.store.List(r.Context())
	if err != nil {
		writeErr(w, r, err, fieldMessage, "Error listing characters.")

		return
	}

	writeJSON(w, r, http.StatusOK, names)
}
