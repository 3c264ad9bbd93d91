package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/playout/internal/apperrors"
	"github.com/Nixie-Tech-LLC/playout/internal/http/middleware"
)

type APIError struct {
	Code    int            `json:"-"`
	Kind    string         `json:"code"`
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func BadRequest(err error) *APIError {
	return &APIError{Code: http.StatusBadRequest, Kind: string(apperrors.KindValidation), Message: err.Error()}
}

// FromError maps an engine error onto its HTTP representation. Internal
// errors are logged and hidden from the caller.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		log.Error().Err(err).Msg("internal error")
		return &APIError{Code: http.StatusInternalServerError, Kind: string(kind), Message: "internal error"}
	}
	msg := err.Error()
	var e *apperrors.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	return &APIError{
		Code:    apperrors.HTTPStatus(kind),
		Kind:    string(kind),
		Message: msg,
		Details: apperrors.DetailsOf(err),
	}
}

type HandlerFuncWithClient func(ctx *gin.Context, clientID uuid.UUID) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpointWithClient(h HandlerFuncWithClient) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		clientID, ok := middleware.GetClientID(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, clientID)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, apiErr)
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, apiErr)
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

// ParamUUID reads a UUID path parameter.
func ParamUUID(ctx *gin.Context, name string) (uuid.UUID, *APIError) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, &APIError{
			Code:    http.StatusBadRequest,
			Kind:    string(apperrors.KindValidation),
			Message: "invalid " + name,
		}
	}
	return id, nil
}
