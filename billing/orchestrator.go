package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/globizora/api-service/models"
	"github.com/globizora/api-service/store"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrInvalidPlan      = errors.New("invalid plan")
	ErrSignatureInvalid = errors.New("webhook signature verification failed")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

type Outcome string

const (
	OutcomeIgnored     Outcome = "ignored"
	OutcomeApplied     Outcome = "applied"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeUnknownUser Outcome = "unknown_user"
)

// CallbackResult describes what a verified webhook delivery did.
type CallbackResult struct {
	EventType string
	Outcome   Outcome
	UserID    string
	Tier      models.Tier
}

// Orchestrator ties checkout creation to the subscription change applied
// when the provider reports a completed payment.
type Orchestrator struct {
	users         store.UserStore
	provider      CheckoutProvider
	ledger        Ledger
	webhookSecret string
	defaultOrigin string
}

func NewOrchestrator(users store.UserStore, provider CheckoutProvider, ledger Ledger, webhookSecret, defaultOrigin string) *Orchestrator {
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	return &Orchestrator{
		users:         users,
		provider:      provider,
		ledger:        ledger,
		webhookSecret: webhookSecret,
		defaultOrigin: defaultOrigin,
	}
}

// CreateCheckout opens a checkout session for an existing user. The plan is
// checked before the provider is contacted.
func (o *Orchestrator) CreateCheckout(ctx context.Context, userID, rawPlan, origin string) (string, models.Plan, error) {
	plan, ok := models.ParsePlan(rawPlan)
	if !ok {
		return "", "", ErrInvalidPlan
	}

	if _, err := o.users.FindByID(ctx, userID); err != nil {
		return "", "", err
	}

	if origin == "" {
		origin = o.defaultOrigin
	}

	sessionID, err := o.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		UserID: userID,
		Plan:   plan,
		Origin: origin,
	})
	if err != nil {
		return "", "", err
	}
	return sessionID, plan, nil
}

// HandleCallback verifies a webhook delivery and applies the subscription
// change for completed checkouts. Nothing changes unless the signature is valid.
func (o *Orchestrator) HandleCallback(ctx context.Context, payload []byte, sigHeader string) (CallbackResult, error) {
	if o.webhookSecret == "" {
		return CallbackResult{}, fmt.Errorf("%w: webhook secret is not configured", ErrSignatureInvalid)
	}

	// Only id, client_reference_id and metadata are read, which are stable
	// across API versions.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, o.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return CallbackResult{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	result := CallbackResult{EventType: string(event.Type), Outcome: OutcomeIgnored}

	switch event.Type {
	case "checkout.session.completed":
		return o.completeCheckout(ctx, event, result)
	default:
		log.Printf("Unhandled event type: %s", event.Type)
		return result, nil
	}
}

func (o *Orchestrator) completeCheckout(ctx context.Context, event stripe.Event, result CallbackResult) (CallbackResult, error) {
	if event.Data == nil {
		return result, ErrMalformedEvent
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return result, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	userID := sess.ClientReferenceID
	if userID == "" {
		userID = sess.Metadata[MetadataUserID]
	}
	if userID == "" {
		log.Printf("Checkout session %s has no user reference", sess.ID)
		return result, nil
	}
	result.UserID = userID

	dedupeKey := sess.ID
	if dedupeKey == "" {
		dedupeKey = event.ID
	}

	first, err := o.ledger.Claim(ctx, dedupeKey)
	if err != nil {
		return result, fmt.Errorf("claim checkout %s: %w", dedupeKey, err)
	}
	if !first {
		result.Outcome = OutcomeDuplicate
		return result, nil
	}

	plan, _ := models.ParsePlan(sess.Metadata[MetadataPlan])
	tier := plan.Tier()

	if _, err := o.users.Update(ctx, userID, models.UserUpdate{Subscription: &tier}); err != nil {
		o.release(ctx, dedupeKey)
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("Checkout session %s references unknown user %s", sess.ID, userID)
			result.Outcome = OutcomeUnknownUser
			return result, nil
		}
		return result, fmt.Errorf("apply subscription for %s: %w", userID, err)
	}

	log.Printf("Payment succeeded for user %s, subscription %s", userID, tier)
	result.Outcome = OutcomeApplied
	result.Tier = tier
	return result, nil
}

// release forgets a claimed session so the ledger only holds applied checkouts.
func (o *Orchestrator) release(ctx context.Context, key string) {
	if err := o.ledger.Release(ctx, key); err != nil {
		log.Printf("Release checkout %s: %v", key, err)
	}
}
