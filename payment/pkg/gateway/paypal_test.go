package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prostore/storefront/internal/config"
	inErrors "github.com/prostore/storefront/internal/errors"
)

func newTestClient(baseURL string) *PaypalClient {
	return NewPaypalClient(config.Paypal{
		BaseURL:        baseURL,
		ClientID:       "client-id",
		Secret:         "client-secret",
		Currency:       "USD",
		TimeoutSeconds: 5,
	})
}

func tokenHandler(t *testing.T, w http.ResponseWriter, r *http.Request) {
	t.Helper()
	username, password, ok := r.BasicAuth()
	require.True(t, ok, "token request should use basic auth")
	assert.Equal(t, "client-id", username)
	assert.Equal(t, "client-secret", password)
	require.NoError(t, r.ParseForm())
	assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
	_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
}

func TestCreateOrder(t *testing.T) {
	t.Run("creates a capture intent for the amount", func(t *testing.T) {
		var payload map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/oauth2/token":
				tokenHandler(t, w, r)
			case "/v2/checkout/orders":
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				_ = json.NewEncoder(w).Encode(map[string]string{
					"id":     "PAY-1",
					"status": "CREATED",
				})
			default:
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		order, err := newTestClient(server.URL).CreateOrder(
			context.Background(),
			decimal.RequireFromString("96.25"),
		)
		require.NoError(t, err)

		assert.Equal(t, "PAY-1", order.ID)
		assert.Equal(t, StatusCreated, order.Status)
		assert.Equal(t, "CAPTURE", payload["intent"])
		units := payload["purchase_units"].([]interface{})
		amount := units[0].(map[string]interface{})["amount"].(map[string]interface{})
		assert.Equal(t, "USD", amount["currency_code"])
		assert.Equal(t, "96.25", amount["value"])
	})

	t.Run("rejected credentials fail the token request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).CreateOrder(
			context.Background(),
			decimal.RequireFromString("10.00"),
		)
		assert.ErrorIs(t, err, inErrors.ErrGatewayAuthFailed)
	})

	t.Run("non 2xx response surfaces the raw gateway body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/oauth2/token" {
				tokenHandler(t, w, r)
				return
			}
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"name":"INVALID_REQUEST"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).CreateOrder(
			context.Background(),
			decimal.RequireFromString("10.00"),
		)
		assert.ErrorIs(t, err, inErrors.ErrGatewayUnavailable)
		assert.Contains(t, err.Error(), "INVALID_REQUEST")
	})

	t.Run("unreachable gateway is reported unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := newTestClient(server.URL).CreateOrder(
			context.Background(),
			decimal.RequireFromString("10.00"),
		)
		assert.ErrorIs(t, err, inErrors.ErrGatewayUnavailable)
	})
}

func TestCapturePayment(t *testing.T) {
	t.Run("capture returns the settled payment", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/oauth2/token":
				tokenHandler(t, w, r)
			case "/v2/checkout/orders/PAY-1/capture":
				assert.Equal(t, http.MethodPost, r.Method)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"id":     "PAY-1",
					"status": "COMPLETED",
					"payer":  map[string]string{"email_address": "buyer@example.com"},
					"purchase_units": []map[string]interface{}{
						{
							"payments": map[string]interface{}{
								"captures": []map[string]interface{}{
									{"amount": map[string]string{"value": "96.25"}},
								},
							},
						},
					},
				})
			default:
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		capture, err := newTestClient(server.URL).CapturePayment(context.Background(), "PAY-1")
		require.NoError(t, err)

		assert.Equal(t, "PAY-1", capture.ID)
		assert.Equal(t, StatusCompleted, capture.Status)
		assert.True(t, capture.Status.Completed())
		assert.Equal(t, "buyer@example.com", capture.PayerEmail)
		assert.Equal(t, "96.25", capture.Amount)
	})

	t.Run("unknown status is not completed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/oauth2/token" {
				tokenHandler(t, w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id":     "PAY-1",
				"status": "SOMETHING_NEW",
			})
		}))
		defer server.Close()

		capture, err := newTestClient(server.URL).CapturePayment(context.Background(), "PAY-1")
		require.NoError(t, err)

		assert.Equal(t, StatusUnknown, capture.Status)
		assert.False(t, capture.Status.Completed())
	})
}
