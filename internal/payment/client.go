package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.stripe.com"

var _ Gateway = (*Client)(nil)

// Client talks to the Stripe REST API (form-encoded requests, JSON responses).
type Client struct {
	HTTP     *http.Client
	BaseURL  string
	Key      string
	Currency string
}

func NewClient(key string) *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		BaseURL:  defaultBaseURL,
		Key:      key,
		Currency: "usd",
	}
}

// cents converts a decimal amount in major units to the smallest currency unit.
func cents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type apiObject struct {
	ID string `json:"id"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Param   string `json:"param"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Key)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return &GatewayError{Message: err.Error(), Err: ErrUnavailable}
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var ae apiError
		if err := json.NewDecoder(res.Body).Decode(&ae); err != nil || ae.Error.Message == "" {
			ae.Error.Message = res.Status
		}
		return &GatewayError{
			Code:    ae.Error.Code,
			Message: ae.Error.Message,
			Err:     sentinelFor(res.StatusCode, ae),
		}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func sentinelFor(status int, ae apiError) error {
	if status >= 500 {
		return ErrUnavailable
	}
	switch ae.Error.Code {
	case "charge_already_refunded":
		return ErrAlreadyRefunded
	case "amount_too_small", "amount_too_large":
		return ErrInvalidAmount
	case "resource_missing":
		if ae.Error.Param == "customer" {
			return ErrCustomerNotFound
		}
	}
	if ae.Error.Param == "amount" {
		return ErrInvalidAmount
	}
	return nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, customerID string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", &GatewayError{Message: "amount must be positive", Err: ErrInvalidAmount}
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(cents(amount), 10))
	form.Set("currency", c.Currency)
	if customerID != "" {
		form.Set("customer", customerID)
	}
	var pi apiObject
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, &pi); err != nil {
		return "", err
	}
	return pi.ID, nil
}

func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string) (string, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)
	var rf apiObject
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", form, &rf); err != nil {
		return "", err
	}
	return rf.ID, nil
}

// CreateOrRetrieveCustomer looks the customer up by email first so repeated
// registrations do not pile up duplicate gateway customers.
func (c *Client) CreateOrRetrieveCustomer(ctx context.Context, email string) (string, error) {
	var list struct {
		Data []apiObject `json:"data"`
	}
	q := url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, "/v1/customers?limit=1&email="+q, nil, &list); err != nil {
		return "", err
	}
	if len(list.Data) > 0 {
		return list.Data[0].ID, nil
	}
	form := url.Values{}
	form.Set("email", email)
	var cust apiObject
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, &cust); err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (c *Client) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	form := url.Values{}
	form.Set("type", "express")
	form.Set("email", email)
	var acct apiObject
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", form, &acct); err != nil {
		return "", err
	}
	return acct.ID, nil
}

func (c *Client) CreateTransfer(ctx context.Context, accountID string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", &GatewayError{Message: "amount must be positive", Err: ErrInvalidAmount}
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(cents(amount), 10))
	form.Set("currency", c.Currency)
	form.Set("destination", accountID)
	var tr apiObject
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", form, &tr); err != nil {
		return "", err
	}
	return tr.ID, nil
}

func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("items[0][price]", priceID)
	var sub apiObject
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions", form, &sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/subscriptions/"+subscriptionID, nil, nil)
}

func (c *Client) ListPayments(ctx context.Context, customerID string, limit int) ([]Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var list struct {
		Data []Payment `json:"data"`
	}
	path := fmt.Sprintf("/v1/payment_intents?customer=%s&limit=%d", url.QueryEscape(customerID), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) ListPayouts(ctx context.Context, accountID string, limit int) ([]Payout, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var list struct {
		Data []Payout `json:"data"`
	}
	path := fmt.Sprintf("/v1/payouts?destination=%s&limit=%d", url.QueryEscape(accountID), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}
