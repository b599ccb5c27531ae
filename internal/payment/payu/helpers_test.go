package payu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"payu-adapter/internal/money"
	"payu-adapter/internal/order"
	"payu-adapter/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testOptions() Options {
	return Options{
		Mode:              ModeSandbox,
		PosID:             "300746",
		MD5Key:            "b6ca15b0d1020e8094d9b5f8d163db54",
		OAuthClientID:     "300746",
		OAuthClientSecret: "2ee86a66e5d97e3fadc400c9f19b065d",
	}
}

// testOrder is one line item of 2 x 24.995 with the given order total.
func testOrder(total string) *order.Order {
	return &order.Order{
		ID:         1,
		ExtOrderID: "ord-1",
		Customer:   order.Customer{Email: "buyer@example.com"},
		Items: []order.Item{
			{ProductName: "Widget", UnitPrice: decimal.RequireFromString("24.995"), Quantity: 2},
		},
		TotalPrice: decimal.RequireFromString(total),
		Currency:   "EUR",
		State:      order.StatePending,
	}
}

func testPrice(t *testing.T, amount string) money.Price {
	t.Helper()
	p, err := money.NewPrice(decimal.RequireFromString(amount), money.NewCurrency("EUR"))
	require.NoError(t, err)
	return p
}

func testStartRequest(o *order.Order) payment.StartRequest {
	return payment.StartRequest{
		ExtOrderID:  "ord-1",
		NotifyURL:   "https://shop.example.com/payments/payu/notify",
		CustomerIP:  "127.0.0.1",
		Description: "Order ord-1",
		ContinueURL: "https://shop.example.com/thank-you",
		Order:       o,
	}
}

// newGatewayServer serves the authorize endpoint, issuing token-1, token-2,
// ... in sequence, and routes order creation to orders. Following a redirect
// fails the test.
func newGatewayServer(t *testing.T, orders http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc(authorizePath, func(w http.ResponseWriter, r *http.Request) {
		n := tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"bearer","expires_in":43199,"grant_type":"client_credentials"}`, n)
	})
	mux.HandleFunc(ordersPath, orders)
	mux.HandleFunc("/followed", func(w http.ResponseWriter, r *http.Request) {
		t.Error("order creation redirect must not be followed")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenCalls
}

func newTestAdapter(t *testing.T, srv *httptest.Server, opts ...Option) *Adapter {
	t.Helper()

	all := append([]Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	a, err := New(context.Background(), testOptions(), all...)
	require.NoError(t, err)
	return a
}

func writeCreated(w http.ResponseWriter, r *http.Request, payuOrderID string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "http://"+r.Host+"/followed")
	w.WriteHeader(http.StatusFound)
	fmt.Fprintf(w, `{"status":{"statusCode":"SUCCESS"},"redirectUri":"https://merch-prod.snd.payu.com/pay/?orderId=%s","orderId":"%s","extOrderId":"ord-1"}`, payuOrderID, payuOrderID)
}

func strPtr(s string) *string { return &s }

func completedNotification(totalAmount string, local *order.Order) Notification {
	amount := Amount(totalAmount)
	return Notification{Order: &NotificationOrder{
		PayMethod:    &PayMethod{Type: "PBL"},
		OrderID:      strPtr("WZHF5FFDRJ140731GUEST000P01"),
		ExtOrderID:   strPtr("ord-1"),
		InvoiceID:    strPtr("INV-1"),
		TotalAmount:  &amount,
		CurrencyCode: strPtr("EUR"),
		Status:       strPtr(StatusCompleted),
		LocalOrder:   local,
	}}
}

func jsonResponse(req *http.Request, status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     header,
		Request:    req,
	}
}
