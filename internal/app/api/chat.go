package api

import (
	"context"
	"net/http"

	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
	"github.com/jbkun069/AnimeChatCraft/pkg/character"
)

type chatRequest struct {
	Message   string               `json:"message"`
	Character *character.Character `json:"character"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (api *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, apperr.Wrap(apperr.CodeValidation, err, "Missing message or character data."), fieldReply, msgUnexpected)

		return
	}

	ctx := r.Context()
	if api.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, api.cfg.Timeout)
		defer cancel()
	}

	reply, err := api.chat.Reply(ctx, req.Character, req.Message)
	if err != nil {
		writeErr(w, r, err, fieldReply, msgUnexpected)

		return
	}

	writeJSON(w, r, http.StatusOK, &chatResponse{
		Reply: reply,
	})
}
