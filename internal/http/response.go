package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prostore/storefront/internal/errors"
	"github.com/prostore/storefront/internal/otel"
)

const (
	KeyHeaderContentType      = "Content-Type"
	KeyHeaderRequestID        = "X-Request-Id"
	ValueHeaderApplicationJson = "application/json"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str("tag", "WriteJsonResponse").Logger()

	w.Header().Add(KeyHeaderContentType, ValueHeaderApplicationJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"]; ok {
		w.WriteHeader(v.(int))
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}
