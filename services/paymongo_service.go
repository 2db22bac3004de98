package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
)

// PayMongoService handles interactions with the PayMongo API
type PayMongoService struct {
	baseURL    string
	secretKey  string
	successURL string
	cancelURL  string
	httpClient *http.Client
}

// NewPayMongoService creates a new PayMongo service instance
func NewPayMongoService() *PayMongoService {
	secretKey := os.Getenv("PAYMONGO_SECRET_KEY")
	successURL := os.Getenv("PAYMONGO_SUCCESS_URL")
	cancelURL := os.Getenv("PAYMONGO_CANCEL_URL")

	if secretKey == "" {
		log.Printf("WARNING: PAYMONGO_SECRET_KEY is not set. Gateway checkout will be unavailable")
	}

	return &PayMongoService{
		baseURL:    "https://api.paymongo.com/v1",
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// makeRequest performs an authenticated HTTP request to the PayMongo API.
// PayMongo uses HTTP Basic auth with the secret key as username and no password.
func (s *PayMongoService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}, out interface{}) error {
	if s.secretKey == "" {
		return fmt.Errorf("missing PayMongo credentials. Please set PAYMONGO_SECRET_KEY")
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(s.secretKey+":")))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr models.PayMongoErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			return fmt.Errorf("gateway error %d: %s (%s)", resp.StatusCode, apiErr.Errors[0].Detail, apiErr.Errors[0].Code)
		}
		return fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CreateCheckoutSession creates a hosted checkout session for a booking's
// downpayment and returns the checkout URL plus the payment intent ID. The
// metadata carries the booking and user IDs so the webhook can resolve the
// booking without trusting client input.
func (s *PayMongoService) CreateCheckoutSession(ctx context.Context, booking *models.Booking, userID string) (string, string, error) {
	request := models.PayMongoCheckoutRequest{
		Data: models.PayMongoCheckoutData{
			Attributes: models.PayMongoCheckoutAttributes{
				LineItems: []models.PayMongoLineItem{
					{
						Name:     fmt.Sprintf("Downpayment for booking %s", booking.ID.Hex()),
						Amount:   utils.ToCentavos(booking.DownPayment),
						Currency: "PHP",
						Quantity: 1,
					},
				},
				PaymentMethodTypes: []string{"gcash", "card", "paymaya"},
				Description:        fmt.Sprintf("Vehicle rental %s to %s", booking.StartDate.Format("2006-01-02"), booking.EndDate.Format("2006-01-02")),
				SuccessURL:         s.successURL,
				CancelURL:          s.cancelURL,
				Metadata: map[string]string{
					"bookingId": booking.ID.Hex(),
					"userId":    userID,
				},
			},
		},
	}

	var response models.PayMongoCheckoutResponse
	if err := s.makeRequest(ctx, http.MethodPost, "/checkout_sessions", request, &response); err != nil {
		return "", "", err
	}

	checkoutURL := response.Data.Attributes.CheckoutURL
	if checkoutURL == "" {
		return "", "", fmt.Errorf("gateway returned no checkout URL")
	}
	return checkoutURL, response.Data.Attributes.PaymentIntent.ID, nil
}
