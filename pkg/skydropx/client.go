package skydropx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tienda-mx/storefront-backend/pkg/config"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
)

const (
	defaultQuotePollWait = 2 * time.Second
	defaultQuoteAttempts = 15
)

var (
	errClientIDRequired     = errors.New("skydropx client id is required")
	errClientSecretRequired = errors.New("skydropx client secret is required")
	errLoggerRequired       = errors.New("skydropx logger is required")
)

// Client talks to the Skydropx shipping API. It owns the OAuth token cache
// and the bounded quotation polling loop.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	tokens       *tokenSource
	pollWait     time.Duration
	pollAttempts int
	logger       *logger.Logger
}

// NewClient initializes the Skydropx wrapper and validates credentials.
func NewClient(ctx context.Context, cfg config.SkydropxConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientSecret == "" {
		return nil, errClientSecretRequired
	}

	pollWait := cfg.QuotePollWait
	if pollWait <= 0 {
		pollWait = defaultQuotePollWait
	}
	pollAttempts := cfg.QuoteAttempts
	if pollAttempts <= 0 {
		pollAttempts = defaultQuoteAttempts
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: 20 * time.Second},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		tokens:       newTokenSource(),
		pollWait:     pollWait,
		pollAttempts: pollAttempts,
		logger:       logg,
	}

	logg.Info(ctx, "skydropx client initialized")
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode skydropx request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build skydropx request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token, err := c.getToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "skydropx request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read skydropx response")
	}

	if resp.StatusCode >= 400 {
		return pkgerrors.New(domainCodeForStatus(resp.StatusCode),
			fmt.Sprintf("skydropx %s %s returned %d", method, path, resp.StatusCode)).
			WithDetails(map[string]any{"body": truncate(string(raw), 512)})
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode skydropx response")
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("skydropx %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("skydropx %s", phase))
	}
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
