package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/globizora/api-service/utils"
)

const maxJSONBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst and answers 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Printf("Error decoding request body: %v", err)
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
