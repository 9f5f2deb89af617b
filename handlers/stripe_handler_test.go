package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/globizora/api-service/billing"
	"github.com/globizora/api-service/models"
	"github.com/globizora/api-service/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBilling struct {
	checkoutErr error
	callbackErr error
	gotOrigin   string
	gotPayload  []byte
	gotSig      string
}

func (f *fakeBilling) CreateCheckout(_ context.Context, _ string, plan, origin string) (string, models.Plan, error) {
	f.gotOrigin = origin
	if f.checkoutErr != nil {
		return "", "", f.checkoutErr
	}
	p, _ := models.ParsePlan(plan)
	return "cs_test_1", p, nil
}

func (f *fakeBilling) HandleCallback(_ context.Context, payload []byte, sig string) (billing.CallbackResult, error) {
	f.gotPayload, f.gotSig = payload, sig
	if f.callbackErr != nil {
		return billing.CallbackResult{}, f.callbackErr
	}
	return billing.CallbackResult{EventType: "checkout.session.completed", Outcome: billing.OutcomeApplied}, nil
}

func TestCreateCheckoutSession(t *testing.T) {
	fb := &fakeBilling{}
	h := &StripeHandler{Billing: fb}

	req := asUser(jsonRequest(t, http.MethodPost, "/subscribe", map[string]string{"plan": "pro"}), "u1")
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.CreateCheckoutSession(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"sessionId":"cs_test_1","plan":"pro"}`, rec.Body.String())
	assert.Equal(t, "https://app.example.com", fb.gotOrigin)
}

func TestCreateCheckoutSessionErrors(t *testing.T) {
	tests := []struct {
		name       string
		plan       string
		err        error
		wantStatus int
	}{
		{"plan outside catalogue", "gold", nil, http.StatusBadRequest},
		{"missing plan", "", nil, http.StatusBadRequest},
		{"user gone", "pro", store.ErrNotFound, http.StatusNotFound},
		{"provider rejected", "pro", fmt.Errorf("%w: amount too small", billing.ErrProviderRejected), http.StatusBadRequest},
		{"provider down", "pro", fmt.Errorf("%w: timeout", billing.ErrProvider), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &StripeHandler{Billing: &fakeBilling{checkoutErr: tt.err}}

			rec := httptest.NewRecorder()
			h.CreateCheckoutSession(rec, asUser(jsonRequest(t, http.MethodPost, "/subscribe", map[string]string{"plan": tt.plan}), "u1"))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotContains(t, rec.Body.String(), "timeout")
		})
	}
}

func TestHandleWebhook(t *testing.T) {
	fb := &fakeBilling{}
	h := &StripeHandler{Billing: fb}

	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	assert.Equal(t, `{"id":"evt_1"}`, string(fb.gotPayload))
	assert.Equal(t, "t=1,v1=abc", fb.gotSig)
}

func TestHandleWebhookErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantPrefix string
	}{
		{"bad signature", fmt.Errorf("%w: no signatures found", billing.ErrSignatureInvalid), http.StatusBadRequest, "Webhook Error: "},
		{"malformed", billing.ErrMalformedEvent, http.StatusBadRequest, "Webhook Error: "},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &StripeHandler{Billing: &fakeBilling{callbackErr: tt.err}}

			rec := httptest.NewRecorder()
			h.HandleWebhook(rec, httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader("{}")))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.True(t, strings.HasPrefix(decode(t, rec)["error"].(string), tt.wantPrefix))
		})
	}
}

func TestHandleWebhookTooLarge(t *testing.T) {
	fb := &fakeBilling{}
	h := &StripeHandler{Billing: fb}

	body := strings.Repeat("x", int(maxWebhookBodyBytes)+1)
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, fb.gotPayload)
}
