// Package payu implements the PayU REST hosted-checkout gateway.
//
// An Adapter exchanges its OAuth client credentials for a bearer token when it
// is created, registers orders with PayU to obtain the redirect URL for the
// customer, and turns PayU notifications into a committed or aborted
// payment.Status.
package payu

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"payu-adapter/internal/logger"
	"payu-adapter/internal/money"
	"payu-adapter/internal/payment"

	"go.uber.org/zap"
)

var _ payment.Provider = (*Adapter)(nil)

type Adapter struct {
	opts Options

	httpClient   *http.Client
	orderClient  *http.Client
	baseURL      string
	authorizeURL string
	orderURL     string

	additionalData AdditionalDataFunc
	now            func() time.Time

	mu             sync.RWMutex
	token          accessToken
	authorizedData AuthorizedData
}

type Option func(*Adapter)

// WithHTTPClient sets the client used for all calls to PayU.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithAdditionalData installs a hook that can extend every order payload.
func WithAdditionalData(fn AdditionalDataFunc) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.additionalData = fn
		}
	}
}

// WithBaseURL replaces the mode-derived gateway host.
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func withClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// New validates opts and fetches the first access token.
func New(ctx context.Context, opts Options, options ...Option) (*Adapter, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	a := &Adapter{
		opts: opts,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		baseURL:        BaseURL(opts.Mode),
		additionalData: noAdditionalData,
		now:            time.Now,
	}
	for _, o := range options {
		o(a)
	}

	a.authorizeURL = a.baseURL + authorizePath
	a.orderURL = a.baseURL + ordersPath
	a.orderClient = withoutRedirects(a.httpClient)

	if err := a.RefreshToken(ctx); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("PayU adapter ready",
		zap.String("mode", opts.Mode),
		zap.String("pos_id", opts.PosID),
	)
	return a, nil
}

func (a *Adapter) Name() string {
	return gatewayName
}

// RefreshToken replaces the cached access token with a new one.
func (a *Adapter) RefreshToken(ctx context.Context) error {
	tok, err := fetchToken(ctx, a.httpClient, a.authorizeURL, a.opts.OAuthClientID, a.opts.OAuthClientSecret, a.now())
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.token = tok
	a.mu.Unlock()
	return nil
}

func (a *Adapter) accessToken(ctx context.Context) (string, error) {
	a.mu.RLock()
	tok := a.token
	a.mu.RUnlock()

	if !tok.expired(a.now()) {
		return tok.value, nil
	}

	logger.FromCtx(ctx).Info("PayU access token expired, refreshing")
	if err := a.RefreshToken(ctx); err != nil {
		return "", err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token.value, nil
}

// InitPayment registers the order with PayU and returns the redirect URL.
// A 401 answer triggers one token refresh and one re-send.
func (a *Adapter) InitPayment(ctx context.Context, price money.Price, req payment.StartRequest) (string, error) {
	payload, err := buildOrderPayload(a.opts.PosID, price, req)
	if err != nil {
		return "", err
	}
	payload = a.additionalData(payload)

	token, err := a.accessToken(ctx)
	if err != nil {
		return "", err
	}

	res, err := createOrder(ctx, a.orderClient, a.orderURL, token, payload)
	if gErr, ok := payment.IsGatewayError(err); ok && gErr.HTTPStatus == http.StatusUnauthorized {
		logger.FromCtx(ctx).Warn("PayU rejected access token, refreshing",
			zap.String("ext_order_id", payload.ExtOrderID),
		)
		if err := a.RefreshToken(ctx); err != nil {
			return "", err
		}
		if token, err = a.accessToken(ctx); err != nil {
			return "", err
		}
		res, err = createOrder(ctx, a.orderClient, a.orderURL, token, payload)
	}
	if err != nil {
		return "", err
	}

	return res.RedirectURI, nil
}

func (a *Adapter) StartPayment(ctx context.Context, price money.Price, req payment.StartRequest) (*payment.URLResponse, error) {
	url, err := a.InitPayment(ctx, price, req)
	if err != nil {
		return nil, err
	}
	return &payment.URLResponse{Order: req.Order, URL: url}, nil
}

// HandleNotification validates n, records its PayU order id as the
// authorized data and decides the final state of the payment. An amount
// mismatch or a status other than COMPLETED is an aborted Status, not an
// error. Invalid input leaves the authorized data untouched.
func (a *Adapter) HandleNotification(ctx context.Context, n Notification) (*payment.Status, error) {
	if missing := n.missingFields(); len(missing) > 0 {
		return nil, payment.NewValidationError(missing...)
	}
	o := n.Order

	price, err := notificationPrice(o)
	if err != nil {
		return nil, err
	}

	a.setAuthorizedData(AuthorizedData{OrderID: *o.OrderID})

	status := executeDebit(price, o)

	logger.FromCtx(ctx).Info("PayU notification handled",
		zap.String("ext_order_id", *o.ExtOrderID),
		zap.String("payu_order_id", *o.OrderID),
		zap.String("payu_status", *o.Status),
		zap.String("total_amount", price.String()),
		zap.String("state", string(status.State)),
	)
	return status, nil
}

// HandleResponse decodes a raw notification body, attaches the local order
// found by lookup and handles it. The fields PayU sends are checked before
// the lookup runs; a failing lookup is returned as is.
func (a *Adapter) HandleResponse(ctx context.Context, payload []byte, lookup payment.OrderLookup) (*payment.Status, error) {
	n, err := decodeNotification(payload)
	if err != nil {
		return nil, err
	}

	if missing := n.missingWireFields(); len(missing) > 0 {
		return nil, payment.NewValidationError(missing...)
	}

	if lookup != nil {
		local, err := lookup(ctx, *n.Order.ExtOrderID)
		if err != nil {
			return nil, err
		}
		n.Order.LocalOrder = local
	}

	return a.HandleNotification(ctx, n)
}

// ExecuteCredit is not supported by this gateway.
func (a *Adapter) ExecuteCredit(ctx context.Context, price money.Price, reference, transactionID string) (*payment.Status, error) {
	return nil, fmt.Errorf("payu credit: %w", payment.ErrNotImplemented)
}

func (a *Adapter) AuthorizedData() AuthorizedData {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authorizedData
}

func (a *Adapter) setAuthorizedData(d AuthorizedData) {
	a.mu.Lock()
	a.authorizedData = d
	a.mu.Unlock()
}
