package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v83"
)

func TestWrapStripeError(t *testing.T) {
	err := wrapStripeError(&stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing, Msg: "No such session"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsClientError(err))

	err = wrapStripeError(&stripe.Error{HTTPStatusCode: 500, Msg: "boom"})
	var gwErr *Error
	assert.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 500, gwErr.StatusCode)
	assert.False(t, IsClientError(err))

	err = wrapStripeError(errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestToSessionInfo(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	cs := &stripe.CheckoutSession{
		ID:              "cs_1",
		Status:          stripe.CheckoutSessionStatusComplete,
		PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:     2320,
		Currency:        stripe.CurrencyEUR,
		Created:         created.Unix(),
		Metadata:        map[string]string{"order_id": "o1"},
		PaymentIntent:   &stripe.PaymentIntent{ID: "pi_1"},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "buyer@example.com"},
	}

	info := toSessionInfo(cs)
	assert.Equal(t, SessionInfo{
		ID:            "cs_1",
		Status:        "complete",
		PaymentStatus: "paid",
		PaymentRef:    "pi_1",
		CustomerEmail: "buyer@example.com",
		AmountTotal:   2320,
		Currency:      "eur",
		Created:       created,
		Metadata:      map[string]string{"order_id": "o1"},
	}, info)
}

func TestInvoicePaymentRef(t *testing.T) {
	assert.Empty(t, invoicePaymentRef(&stripe.Invoice{}))

	inv := &stripe.Invoice{Payments: &stripe.InvoicePaymentList{Data: []*stripe.InvoicePayment{
		{Payment: &stripe.InvoicePaymentPayment{}},
		{Payment: &stripe.InvoicePaymentPayment{PaymentIntent: &stripe.PaymentIntent{ID: "pi_9"}}},
	}}}
	assert.Equal(t, "pi_9", invoicePaymentRef(inv))
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `o\'brien`, escapeQuery("o'brien"))
}
