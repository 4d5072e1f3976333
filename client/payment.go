package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pomyannik/pomyannik/pkg/validation"
)

// CreatePayment starts a payment and returns the page the user must visit.
func (a *API) CreatePayment(ctx context.Context) (*PaymentResponse, error) {
	p, err := authed[PaymentResponse](ctx, a, func() Request {
		return Request{Method: http.MethodPost, Path: "/api/payment/create_payment", Body: JSONBody(struct{}{})}
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CheckPaymentStatus reports the state of a payment started by CreatePayment.
func (a *API) CheckPaymentStatus(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	if err := validation.ValidateNonEmptyString("payment ID", paymentID); err != nil {
		return nil, newValidationError(err)
	}
	st, err := authed[PaymentStatus](ctx, a, func() Request {
		return Request{Method: http.MethodGet, Path: "/api/payment/check_status/" + url.PathEscape(paymentID)}
	})
	if err != nil {
		return nil, withResource(err, "payment")
	}
	if st.PaymentID == "" {
		st.PaymentID = paymentID
	}
	return &st, nil
}
