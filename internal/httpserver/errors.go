package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/service/account"
	"storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/service/newsletter"
)

const genericFailure = "something went wrong, please try again"

type errorResponse struct {
	StatusCode int           `json:"statusCode"`
	Message    string        `json:"message"`
	Errors     []errorDetail `json:"errors"`
	State      string        `json:"state,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		StatusCode: status,
		Message:    message,
		Errors:     []errorDetail{{Code: code, Message: message}},
	})
}

// writeError maps service errors onto status codes. Messages of unexpected
// errors never reach the client.
func (h *handler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    ve.Error(),
			Errors:     []errorDetail{{Code: "InvalidInput", Message: ve.Message, Field: ve.Field}},
		})
	case errors.Is(err, cart.ErrVariantRequired),
		errors.Is(err, cart.ErrInvalidVariant),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidTransition):
		respondError(c, http.StatusBadRequest, "InvalidInput", rootMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, "ResourceNotFound", "resource not found")
	case errors.Is(err, account.ErrUsernameTaken),
		errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, cart.ErrAlreadyInWishlist),
		errors.Is(err, newsletter.ErrAlreadySubscribed),
		errors.Is(err, checkout.ErrSubmissionInProgress):
		respondError(c, http.StatusConflict, "DuplicateValue", rootMessage(err))
	case errors.Is(err, domain.ErrAlreadyExists):
		respondError(c, http.StatusConflict, "DuplicateValue", "resource already exists")
	case errors.Is(err, account.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "InvalidCredentials", "invalid email or password")
	case errors.Is(err, account.ErrNotSignedIn):
		respondError(c, http.StatusUnauthorized, "Unauthorized", "please log in")
	case errors.Is(err, checkout.ErrLoginRequired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
			StatusCode: http.StatusUnauthorized,
			Message:    checkout.ErrLoginRequired.Error(),
			Errors:     []errorDetail{{Code: "LoginRequired", Message: checkout.ErrLoginRequired.Error()}},
			State:      string(checkout.StateLoginPrompt),
		})
	case errors.Is(err, checkout.ErrTemporary):
		respondError(c, http.StatusServiceUnavailable, "ServiceUnavailable", genericFailure)
	default:
		h.logger.Error("http: unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "General", genericFailure)
	}
}

// rootMessage returns the message of the sentinel at the bottom of a wrap chain.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
