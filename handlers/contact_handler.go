package handlers

import (
	"net/http"

	"github.com/globizora/api-service/models"
	"github.com/globizora/api-service/services"
	"github.com/globizora/api-service/utils"
)

type ContactHandler struct {
	Dispatcher *services.ContactDispatcher
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	h.Dispatcher.Dispatch(r.Context(), req)

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Your request has been received. Our team will contact you.",
		"data":    req,
	})
}
