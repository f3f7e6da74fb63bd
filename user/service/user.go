package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prostore/storefront/internal/config"
	inErrors "github.com/prostore/storefront/internal/errors"
	"github.com/prostore/storefront/internal/log"
	"github.com/prostore/storefront/internal/otel"
	"github.com/prostore/storefront/internal/repository"
	"github.com/prostore/storefront/internal/session"
	orderResponse "github.com/prostore/storefront/order/pkg/response"
	"github.com/prostore/storefront/user/pkg/request"
	"github.com/prostore/storefront/user/pkg/response"
)

var ErrInvalidCredential = errors.New("invalid email or password")

type UserService struct {
	queries *repository.Queries
	config  config.Application
}

func NewUserService(queries *repository.Queries, config config.Application) *UserService {
	return &UserService{queries: queries, config: config}
}

func (s *UserService) Register(
	c context.Context,
	param request.Register,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	logger.Info().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("hashed password")

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Info().Msg("inserting user")
	user, err := s.queries.InsertUser(c, repository.InsertUserParams{
		ID:       uuid.New(),
		Name:     param.Name,
		Email:    param.Email,
		Password: string(hashed),
	})
	if err != nil {
		err = fmt.Errorf("failed inserting user with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Info().Msg("inserted user")

	return user.Response()
}

// Login verifies the credential, mints a session token and re-owns the
// caller's anonymous session cart when the user does not already have one.
func (s *UserService) Login(
	c context.Context,
	identity session.CallerIdentity,
	param request.Login,
) (response.Login, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user")
	user, err := s.queries.FindUserByEmail(c, param.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrInvalidCredential
		}
		err = fmt.Errorf("failed finding user with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Info().Msg("found user")

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	logger.Info().Msg("verifying password")
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password))
	if err != nil {
		err = fmt.Errorf("failed verifying password with error=%w", ErrInvalidCredential)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	logger.Info().Msg("verified password")

	logger = logger.With().Str(log.KeyProcess, "adopting session cart").Logger()
	_, err = s.queries.FindCartByUserId(c, user.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Info().
			Str(log.KeySessionCartID, identity.SessionCartID.String()).
			Msg("adopting session cart")
		adopted, err := s.queries.AdoptSessionCart(c, repository.AdoptSessionCartParams{
			SessionID: identity.SessionCartID,
			UserID:    user.ID,
		})
		if err != nil {
			err = fmt.Errorf("failed adopting session cart with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Login{}, err
		}
		logger.Info().Int64(log.KeyCartItems, adopted).Msg("adopted session cart")
	} else if err != nil {
		err = fmt.Errorf("failed finding user cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "minting token").Logger()
	logger.Info().Msg("minting token")
	token, err := session.NewToken(user.ID, s.config.SecretKey)
	if err != nil {
		err = fmt.Errorf("failed minting token with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	logger.Info().Msg("minted token")

	return response.Login{Token: token}, nil
}

func (s *UserService) FindUserById(
	c context.Context,
	userId uuid.UUID,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService FindUserById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService FindUserById").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyProcess, "finding user").
		Logger()

	logger.Info().Msg("finding user")
	user, err := s.queries.FindUserById(c, userId)
	if err != nil {
		err = fmt.Errorf("failed finding userId=%s with error=%w", userId.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("found user")

	return user.Response()
}

func (s *UserService) UpdateShippingAddress(
	c context.Context,
	userId uuid.UUID,
	param request.ShippingAddress,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService UpdateShippingAddress")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService UpdateShippingAddress").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyProcess, "updating shipping address").
		Logger()

	address, err := json.Marshal(orderResponse.Address{
		FullName:      param.FullName,
		StreetAddress: param.StreetAddress,
		City:          param.City,
		PostalCode:    param.PostalCode,
		Country:       param.Country,
	})
	if err != nil {
		err = fmt.Errorf("failed marshaling address with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	logger.Info().Msg("updating shipping address")
	err = s.queries.UpdateUserAddress(c, repository.UpdateUserAddressParams{
		ID:      userId,
		Address: address,
	})
	if err != nil {
		err = fmt.Errorf("failed updating shipping address with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("updated shipping address")

	return s.FindUserById(c, userId)
}

func (s *UserService) UpdatePaymentMethod(
	c context.Context,
	userId uuid.UUID,
	param request.PaymentMethod,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService UpdatePaymentMethod")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService UpdatePaymentMethod").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyProcess, "updating payment method").
		Logger()

	logger.Info().Msg("updating payment method")
	err := s.queries.UpdateUserPaymentMethod(c, repository.UpdateUserPaymentMethodParams{
		ID:            userId,
		PaymentMethod: param.PaymentMethod,
	})
	if err != nil {
		err = fmt.Errorf("failed updating payment method with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("updated payment method")

	return s.FindUserById(c, userId)
}
