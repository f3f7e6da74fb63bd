package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/prostore/storefront/internal/config"
	inErrors "github.com/prostore/storefront/internal/errors"
	"github.com/prostore/storefront/internal/log"
	"github.com/prostore/storefront/internal/otel"
)

// Order is the gateway-side payment created for a checkout order before the
// buyer approves it.
type Order struct {
	ID     string
	Status Status
}

// Capture is the settled payment the gateway reports after a capture call.
type Capture struct {
	ID         string
	Status     Status
	PayerEmail string
	Amount     string
}

// PaypalClient talks to the PayPal Orders v2 REST API. A fresh access token is
// fetched per call chain instead of being cached, trading a token round trip
// for not having to track expiry.
type PaypalClient struct {
	baseURL  string
	clientID string
	secret   string
	currency string
	http     *http.Client
}

func NewPaypalClient(cfg config.Paypal) *PaypalClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PaypalClient{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		secret:   cfg.Secret,
		currency: cfg.Currency,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

func (p *PaypalClient) accessToken(c context.Context) (string, error) {
	c, span := otel.Tracer.Start(c, "PaypalClient accessToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PaypalClient accessToken").
		Str(log.KeyProcess, "requesting access token").
		Logger()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(
		c,
		http.MethodPost,
		p.baseURL+"/v1/oauth2/token",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		err = fmt.Errorf("failed creating token request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	req.SetBasicAuth(p.clientID, p.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	logger.Info().Msg("requesting access token")
	res, err := p.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed requesting access token with error=%w: %w", inErrors.ErrGatewayUnavailable, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		err = fmt.Errorf("failed reading token response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if res.StatusCode == http.StatusUnauthorized {
		err = fmt.Errorf("token request returned status=%d body=%s with error=%w", res.StatusCode, string(body), inErrors.ErrGatewayAuthFailed)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = fmt.Errorf("token request returned status=%d body=%s with error=%w", res.StatusCode, string(body), inErrors.ErrGatewayUnavailable)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}

	token := struct {
		AccessToken string `json:"access_token"`
	}{}
	err = json.Unmarshal(body, &token)
	if err != nil {
		err = fmt.Errorf("failed unmarshaling token response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Info().Msg("got access token")
	return token.AccessToken, nil
}

func (p *PaypalClient) CreateOrder(c context.Context, amount decimal.Decimal) (Order, error) {
	c, span := otel.Tracer.Start(c, "PaypalClient CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PaypalClient CreateOrder").
		Str(log.KeyProcess, "creating gateway order").
		Logger()

	token, err := p.accessToken(c)
	if err != nil {
		return Order{}, err
	}

	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"amount": map[string]string{
					"currency_code": p.currency,
					"value":         amount.StringFixed(2),
				},
			},
		},
	}
	body, err := p.call(c, token, http.MethodPost, "/v2/checkout/orders", payload)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}

	raw := struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}{}
	err = json.Unmarshal(body, &raw)
	if err != nil {
		err = fmt.Errorf("failed unmarshaling create order response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	logger.Info().Str(log.KeyPaymentID, raw.ID).Msg("created gateway order")
	return Order{ID: raw.ID, Status: ParseStatus(raw.Status)}, nil
}

func (p *PaypalClient) CapturePayment(c context.Context, paymentId string) (Capture, error) {
	c, span := otel.Tracer.Start(c, "PaypalClient CapturePayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PaypalClient CapturePayment").
		Str(log.KeyProcess, "capturing payment").
		Str(log.KeyPaymentID, paymentId).
		Logger()

	token, err := p.accessToken(c)
	if err != nil {
		return Capture{}, err
	}

	body, err := p.call(
		c,
		token,
		http.MethodPost,
		fmt.Sprintf("/v2/checkout/orders/%s/capture", paymentId),
		map[string]interface{}{},
	)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Capture{}, err
	}

	raw := struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Payer  struct {
			EmailAddress string `json:"email_address"`
		} `json:"payer"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					Amount struct {
						Value string `json:"value"`
					} `json:"amount"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}{}
	err = json.Unmarshal(body, &raw)
	if err != nil {
		err = fmt.Errorf("failed unmarshaling capture response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Capture{}, err
	}

	capture := Capture{
		ID:         raw.ID,
		Status:     ParseStatus(raw.Status),
		PayerEmail: raw.Payer.EmailAddress,
	}
	if len(raw.PurchaseUnits) > 0 && len(raw.PurchaseUnits[0].Payments.Captures) > 0 {
		capture.Amount = raw.PurchaseUnits[0].Payments.Captures[0].Amount.Value
	}
	logger.Info().Str(log.KeyPaymentStatus, string(capture.Status)).Msg("captured payment")
	return capture, nil
}

// call issues an authenticated JSON request and surfaces the raw body of any
// non-2xx response so the caller can report what the gateway actually said.
func (p *PaypalClient) call(
	c context.Context,
	token string,
	method string,
	path string,
	payload interface{},
) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed marshaling request payload with error=%w", err)
	}
	req, err := http.NewRequestWithContext(c, method, p.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed creating request with error=%w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed calling gateway with error=%w: %w", inErrors.ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading gateway response with error=%w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf(
			"gateway returned status=%d body=%s with error=%w",
			res.StatusCode,
			string(body),
			inErrors.ErrGatewayUnavailable,
		)
	}
	return body, nil
}
