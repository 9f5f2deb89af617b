package handlers

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	middleware "github.com/globizora/api-service/middlewares"
	"github.com/globizora/api-service/models"
	"github.com/globizora/api-service/store"
	"github.com/globizora/api-service/utils"
)

type DataResponse struct {
	Symbol    string    `json:"symbol"`
	Value     string    `json:"value"`
	Category  string    `json:"category"`
	Trend     string    `json:"trend"`
	Timestamp time.Time `json:"timestamp"`
	Usage     int64     `json:"usage"`
}

// DataHandler serves mock analytics values and meters each call.
type DataHandler struct {
	Store  store.UserStore
	Random func() float64
	Now    func() time.Time
}

func (h *DataHandler) GetData(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := h.Store.Update(r.Context(), userID, models.UserUpdate{UsageDelta: 1})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondInternal(w, err, "Unable to record usage")
		return
	}

	trend := "down"
	if h.random() > 0.5 {
		trend = "up"
	}

	utils.RespondJSON(w, http.StatusOK, DataResponse{
		Symbol:    strings.ToUpper(r.PathValue("symbol")),
		Value:     fmt.Sprintf("%.2f", h.random()*100),
		Category:  "infrastructure analytics",
		Trend:     trend,
		Timestamp: h.now(),
		Usage:     user.Usage,
	})
}

func (h *DataHandler) random() float64 {
	if h.Random != nil {
		return h.Random()
	}
	return rand.Float64()
}

func (h *DataHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}
