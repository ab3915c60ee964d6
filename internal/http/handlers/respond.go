// README: Shared error-to-status mapping for all API handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aieats/internal/modules/chat"
	"aieats/internal/modules/complaint"
	"aieats/internal/modules/delivery"
	"aieats/internal/modules/menu"
	"aieats/internal/modules/order"
	"aieats/internal/modules/reputation"
	"aieats/internal/modules/user"
)

// mapError translates module sentinel errors into HTTP statuses. Anything
// unrecognized becomes a generic 500; internal details never reach the
// caller.
func mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrBadLogin):
		writeError(c, http.StatusUnauthorized, err)

	case errors.Is(err, user.ErrUnauthorized),
		errors.Is(err, order.ErrUnauthorized),
		errors.Is(err, order.ErrInvalidCustomer),
		errors.Is(err, order.ErrInactiveAccount),
		errors.Is(err, delivery.ErrUnauthorized),
		errors.Is(err, complaint.ErrUnauthorized),
		errors.Is(err, chat.ErrUnauthorized),
		errors.Is(err, menu.ErrUnauthorized),
		errors.Is(err, reputation.ErrUnauthorized):
		writeError(c, http.StatusForbidden, err)

	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, delivery.ErrNotFound),
		errors.Is(err, complaint.ErrNotFound),
		errors.Is(err, chat.ErrNotFound),
		errors.Is(err, menu.ErrNotFound),
		errors.Is(err, reputation.ErrNotFound):
		writeError(c, http.StatusNotFound, err)

	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrConflict),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, delivery.ErrConflict),
		errors.Is(err, complaint.ErrConflict),
		errors.Is(err, delivery.ErrDuplicateBid),
		errors.Is(err, complaint.ErrAlreadyResolved):
		writeError(c, http.StatusConflict, err)

	case errors.Is(err, chat.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, err)

	case errors.Is(err, user.ErrValidation),
		errors.Is(err, user.ErrInactive),
		errors.Is(err, order.ErrValidation),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrInsufficientFunds),
		errors.Is(err, order.ErrNoBalance),
		errors.Is(err, order.ErrDishUnavailable),
		errors.Is(err, order.ErrDishNotReceived),
		errors.Is(err, delivery.ErrValidation),
		errors.Is(err, delivery.ErrInvalidTransition),
		errors.Is(err, delivery.ErrOrderNotReady),
		errors.Is(err, delivery.ErrBidResolved),
		errors.Is(err, delivery.ErrJustificationRequired),
		errors.Is(err, complaint.ErrValidation),
		errors.Is(err, chat.ErrValidation),
		errors.Is(err, menu.ErrValidation),
		errors.Is(err, reputation.ErrNotEmployee):
		writeError(c, http.StatusBadRequest, err)

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func writeError(c *gin.Context, status int, err error) {
	body := gin.H{"error": err.Error()}

	// surface the amounts alongside the message so clients can render the
	// comparison without parsing text
	var je *delivery.JustificationError
	if errors.As(err, &je) {
		body["lowest_bid"] = je.Lowest.Dollars()
		body["selected_bid"] = je.Selected.Dollars()
	}
	c.JSON(status, body)
}
