package models

// PayMongoCheckoutRequest represents the payload sent when creating a checkout session
type PayMongoCheckoutRequest struct {
	Data PayMongoCheckoutData `json:"data"`
}

type PayMongoCheckoutData struct {
	Attributes PayMongoCheckoutAttributes `json:"attributes"`
}

type PayMongoCheckoutAttributes struct {
	LineItems          []PayMongoLineItem `json:"line_items"`
	PaymentMethodTypes []string           `json:"payment_method_types"`
	Description        string             `json:"description,omitempty"`
	SuccessURL         string             `json:"success_url,omitempty"`
	CancelURL          string             `json:"cancel_url,omitempty"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
}

type PayMongoLineItem struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"` // centavos
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

// PayMongoCheckoutResponse represents the gateway's checkout session response
type PayMongoCheckoutResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			CheckoutURL   string `json:"checkout_url"`
			PaymentIntent struct {
				ID string `json:"id"`
			} `json:"payment_intent"`
		} `json:"attributes"`
	} `json:"data"`
}

// PayMongoErrorResponse represents a structured gateway error
type PayMongoErrorResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// PayMongoWebhookEvent is the envelope delivered to the webhook endpoint.
// The raw request body, not this parsed form, is what gets signature-verified.
type PayMongoWebhookEvent struct {
	Data struct {
		ID         string `json:"id"` // gateway event ID, used for idempotency
		Attributes struct {
			Type string `json:"type"` // e.g. "payment.paid"
			Data struct {
				ID         string `json:"id"` // payment intent / payment ID
				Attributes struct {
					Status   string            `json:"status"` // e.g. "succeeded"
					Amount   int64             `json:"amount"`
					Metadata map[string]string `json:"metadata"`
				} `json:"attributes"`
			} `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}
