package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/service/account"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type placeOrderRequest struct {
	Shipping      domain.ShippingInfo `json:"shipping"`
	PaymentMethod string              `json:"paymentMethod"`
}

func (h *handler) getCheckout(c *gin.Context) {
	method, err := pricing.ParsePaymentMethod(c.Query("paymentMethod"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	sum, err := h.deps.CheckoutSvc.Summary(c.Request.Context(), sessionID(c), method)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutView(sum))
}

func (h *handler) checkoutLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "email and password are required")
		return
	}
	state, err := h.deps.CheckoutSvc.Login(c.Request.Context(), sessionID(c), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				StatusCode: http.StatusUnauthorized,
				Message:    "invalid email or password",
				Errors:     []errorDetail{{Code: "InvalidCredentials", Message: "invalid email or password"}},
				State:      string(state),
			})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	method, err := pricing.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		h.writeError(c, err)
		return
	}
	snap, err := h.deps.CheckoutSvc.PlaceOrder(c.Request.Context(), sessionID(c), req.Shipping, method)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderView(snap))
}

func (h *handler) orderConfirmation(c *gin.Context) {
	snap, err := h.deps.CheckoutSvc.Confirmation(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(snap))
}

func (h *handler) orderHistory(c *gin.Context) {
	orders, err := h.deps.CheckoutSvc.History(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "results": toOrderSummaries(orders)})
}
