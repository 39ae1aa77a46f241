package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Client talks to the M-Pesa Daraja STK push API.
type Client interface {
	// STKPush initiates a payment prompt on the payer's device.
	STKPush(ctx context.Context, req STKPushRequest) (*STKPushResult, error)

	// STKQuery asks the gateway for the current state of an earlier push.
	STKQuery(ctx context.Context, checkoutRequestID string) (*STKQueryResult, error)
}

type client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a Client from configuration. The underlying HTTP client
// carries the configured request timeout.
func NewClient(cfg Config) Client {
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.timeout()},
		now:  time.Now,
	}
}

func (c *client) STKPush(ctx context.Context, req STKPushRequest) (*STKPushResult, error) {
	timestamp := c.now().Format("20060102150405")
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount,
		PartyA:            req.Phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}

	var resp stkPushResponse
	if err := c.call(ctx, stkPushPath, payload, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorCode != "" {
		return nil, &RequestError{Code: resp.ErrorCode, Description: resp.ErrorMessage}
	}
	if resp.ResponseCode != "0" {
		return nil, &RequestError{Code: resp.ResponseCode, Description: resp.ResponseDescription}
	}
	if resp.CheckoutRequestID == "" {
		return nil, fmt.Errorf("daraja: push accepted without CheckoutRequestID")
	}

	return &STKPushResult{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
	}, nil
}

func (c *client) STKQuery(ctx context.Context, checkoutRequestID string) (*STKQueryResult, error) {
	timestamp := c.now().Format("20060102150405")
	payload := stkQueryPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	var resp stkQueryResponse
	if err := c.call(ctx, stkQueryPath, payload, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorCode != "" {
		// The gateway reports "transaction is being processed" as an error
		// code. That is not a failure, only an absent result.
		if resp.ErrorCode == "500.001.1001" {
			return &STKQueryResult{ResultDesc: resp.ErrorMessage}, nil
		}
		return nil, &RequestError{Code: resp.ErrorCode, Description: resp.ErrorMessage}
	}

	result := &STKQueryResult{ResultDesc: resp.ResultDesc}
	if resp.ResultCode != "" {
		code := resp.ResultCode.String()
		result.ResultCode = &code
	}
	return result, nil
}

// password derives the Lipa Na M-Pesa request password for a timestamp.
func (c *client) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
}

// call posts a JSON payload to the gateway with a bearer token, decoding the
// response into out. Deadline errors surface as ErrTimeout.
func (c *client) call(ctx context.Context, path string, payload, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("daraja: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.baseURL()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("daraja: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("daraja: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("daraja: decode response: %w", err)
	}
	return nil
}

// accessToken returns a cached OAuth token, fetching a fresh one when the
// cached token is within a minute of expiring.
func (c *client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.baseURL()+authPath, nil)
	if err != nil {
		return "", fmt.Errorf("daraja: build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuth)
	}

	ttl := 3600 * time.Second
	if tr.ExpiresIn != "" {
		if parsed, err := time.ParseDuration(tr.ExpiresIn + "s"); err == nil {
			ttl = parsed
		}
	}
	c.token = tr.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	return c.token, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
