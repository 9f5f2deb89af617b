package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/globizora/api-service/models"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

var (
	// ErrProvider wraps payment provider failures the client cannot fix.
	ErrProvider = errors.New("payment provider error")
	// ErrProviderRejected wraps provider failures caused by the request itself.
	ErrProviderRejected = errors.New("payment provider rejected the request")
)

const (
	MetadataUserID = "userID"
	MetadataPlan   = "plan"
)

type CheckoutRequest struct {
	UserID string
	Plan   models.Plan
	Origin string
}

// CheckoutProvider creates an externally hosted checkout session and returns its id.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}

// StripeProvider creates one-off payment Checkout Sessions with inline prices.
type StripeProvider struct {
	client   session.Client
	currency string
}

func NewStripeProvider(secretKey, currency string) *StripeProvider {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeProvider{
		client:   session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		currency: currency,
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := buildCheckoutParams(req, p.currency)
	params.Context = ctx

	result, err := p.client.New(params)
	if err != nil {
		return "", classifyStripeError(err)
	}
	return result.ID, nil
}

func buildCheckoutParams(req CheckoutRequest, currency string) *stripe.CheckoutSessionParams {
	origin := strings.TrimRight(req.Origin, "/")

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(origin + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(origin + "/cancel"),
		ClientReferenceID:  stripe.String(req.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Plan.DisplayName()),
					},
					UnitAmount: stripe.Int64(req.Plan.PriceCents()),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata(MetadataUserID, req.UserID)
	params.AddMetadata(MetadataPlan, string(req.Plan))
	return params
}

func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest {
		return fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}
