package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/globizora/api-service/billing"
	middleware "github.com/globizora/api-service/middlewares"
	"github.com/globizora/api-service/models"
	"github.com/globizora/api-service/store"
	"github.com/globizora/api-service/utils"
)

const maxWebhookBodyBytes = int64(65536)

// Billing is the part of the subscription orchestrator the HTTP layer drives.
type Billing interface {
	CreateCheckout(ctx context.Context, userID, plan, origin string) (string, models.Plan, error)
	HandleCallback(ctx context.Context, payload []byte, sigHeader string) (billing.CallbackResult, error)
}

type StripeHandler struct {
	Billing Billing
}

func (s *StripeHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req models.SubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		utils.RespondValidationError(w, err)
		return
	}

	sessionID, plan, err := s.Billing.CreateCheckout(r.Context(), userID, req.Plan, r.Header.Get("Origin"))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidPlan):
			utils.RespondFieldErrors(w, []utils.FieldError{{Field: "plan", Msg: "must be one of free, pro, enterprise"}})
		case errors.Is(err, store.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, billing.ErrProviderRejected):
			log.Printf("Checkout rejected for user %s: %v", userID, err)
			utils.RespondError(w, http.StatusBadRequest, "Payment provider rejected the request")
		default:
			utils.RespondInternal(w, err, "Could not create checkout session")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, models.CheckoutResponse{
		Success:   true,
		SessionID: sessionID,
		Plan:      plan,
	})
}

func (s *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "Webhook Error: payload too large")
			return
		}
		log.Printf("Error reading webhook body: %v", err)
		utils.RespondError(w, http.StatusServiceUnavailable, "Webhook Error: could not read body")
		return
	}

	result, err := s.Billing.HandleCallback(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrSignatureInvalid), errors.Is(err, billing.ErrMalformedEvent):
			log.Printf("Webhook rejected: %v", err)
			utils.RespondError(w, http.StatusBadRequest, "Webhook Error: "+err.Error())
		default:
			utils.RespondInternal(w, err, "Webhook processing failed")
		}
		return
	}

	log.Printf("Webhook %s: %s", result.EventType, result.Outcome)
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
