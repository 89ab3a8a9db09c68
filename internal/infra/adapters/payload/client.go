// File: internal/infra/adapters/payload/client.go
package payload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
)

// Client talks to the Payload REST API. Authentication is HTTP basic with the
// secret API key as the username and an empty password.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

var _ adapter.PaymentProcessor = (*Client)(nil)

// NewClient creates a Payload API client. baseURL has no trailing slash.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "payload_client").Logger(),
	}
}

func (c *Client) Name() string { return model.GatewayID }

// wire shapes. Payload represents amounts as decimal numbers of major units;
// the local model keeps minor units, so both directions convert.

type transactionBody struct {
	ID              string      `json:"id,omitempty"`
	Type            string      `json:"type,omitempty"`
	Amount          json.Number `json:"amount,omitempty"`
	StatusCode      string      `json:"status_code,omitempty"`
	Status          string      `json:"status,omitempty"`
	RefNumber       string      `json:"ref_number,omitempty"`
	PaymentMethodID string      `json:"payment_method_id,omitempty"`
	CustomerID      string      `json:"customer_id,omitempty"`
	OrderNumber     string      `json:"order_number,omitempty"`
	Description     string      `json:"description,omitempty"`
	StatusMessage   string      `json:"status_message,omitempty"`
}

type paymentMethodBody struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"account_id"`
	Description string            `json:"description"`
	Card        model.CardSummary `json:"card"`
	Attrs       map[string]string `json:"attrs"`
}

type apiError struct {
	ErrorType        string `json:"error_type"`
	ErrorDescription string `json:"error_description"`
	Details          struct {
		StatusMessage string `json:"status_message"`
	} `json:"details"`
}

// minorUnits parses a Payload decimal amount into integer cents.
func minorUnits(n json.Number) (int64, error) {
	s := n.String()
	if s == "" {
		return 0, nil
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if w < 0 || strings.HasPrefix(whole, "-") {
		return w*100 - f, nil
	}
	return w*100 + f, nil
}

// majorUnits renders integer cents as the decimal string Payload expects.
func majorUnits(cents int64) json.Number {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return json.Number(fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100))
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.ErrorType != "" {
			if apiErr.ErrorType == "TransactionDeclined" {
				desc := apiErr.Details.StatusMessage
				if desc == "" {
					desc = apiErr.ErrorDescription
				}
				return &domain.TransactionDeclinedError{Description: desc}
			}
			return fmt.Errorf("payload api error %s: %s", apiErr.ErrorType, apiErr.ErrorDescription)
		}
		return fmt.Errorf("payload api returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(data))
		}
	}
	return nil
}

func (c *Client) GetPaymentMethod(ctx context.Context, id string) (*model.PaymentMethod, error) {
	var body paymentMethodBody
	if err := c.do(ctx, http.MethodGet, "/payment_methods/"+id, nil, &body); err != nil {
		return nil, err
	}
	return &model.PaymentMethod{
		ID:          body.ID,
		AccountID:   body.AccountID,
		Description: body.Description,
		Card:        body.Card,
		Attrs:       body.Attrs,
	}, nil
}

func (c *Client) UpdatePaymentMethod(ctx context.Context, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPut, "/payment_methods/"+id, fields, nil)
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	var body transactionBody
	if err := c.do(ctx, http.MethodGet, "/transactions/"+id, nil, &body); err != nil {
		return nil, err
	}
	return c.toTransaction(&body)
}

func (c *Client) CreateTransaction(ctx context.Context, req model.TransactionRequest) (*model.Transaction, error) {
	in := transactionBody{
		Type:            req.Type,
		Amount:          majorUnits(req.Amount),
		PaymentMethodID: req.PaymentMethodID,
		OrderNumber:     req.OrderNumber,
		Description:     req.Description,
	}
	var body transactionBody
	if err := c.do(ctx, http.MethodPost, "/transactions", in, &body); err != nil {
		return nil, err
	}
	// Some declines come back as a 2xx with a declined status code rather
	// than an error envelope.
	if body.StatusCode == string(model.TransactionDeclined) {
		return nil, &domain.TransactionDeclinedError{Description: body.StatusMessage}
	}
	txn, err := c.toTransaction(&body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("transaction_id", txn.ID).Str("ref_number", txn.RefNumber).Msg("transaction created")
	return txn, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPut, "/transactions/"+id, fields, nil)
}

func (c *Client) toTransaction(body *transactionBody) (*model.Transaction, error) {
	amount, err := minorUnits(body.Amount)
	if err != nil {
		return nil, err
	}
	return &model.Transaction{
		ID:              body.ID,
		Type:            body.Type,
		Amount:          amount,
		StatusCode:      model.TransactionStatusCode(body.StatusCode),
		Status:          body.Status,
		RefNumber:       body.RefNumber,
		PaymentMethodID: body.PaymentMethodID,
		AccountID:       body.CustomerID,
		OrderNumber:     body.OrderNumber,
		Description:     body.Description,
	}, nil
}
