package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/service/cart"
)

type updateCartItemRequest struct {
	domain.LineKey
	Quantity int `json:"qty"`
}

type promoRequest struct {
	Code string `json:"code"`
}

type wishlistItemRequest struct {
	ProductID string `json:"productId" form:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (h *handler) getCart(c *gin.Context) {
	method, err := pricing.ParsePaymentMethod(c.Query("paymentMethod"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, method)
}

func (h *handler) addCartItem(c *gin.Context) {
	var req cart.AddInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	if _, err := h.deps.CartSvc.Add(c.Request.Context(), sessionID(c), req); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusCreated, pricing.CreditCard)
}

func (h *handler) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	if _, err := h.deps.CartSvc.SetQuantity(c.Request.Context(), sessionID(c), req.LineKey, req.Quantity); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, pricing.CreditCard)
}

func (h *handler) removeCartItem(c *gin.Context) {
	var key domain.LineKey
	if err := c.ShouldBindQuery(&key); err != nil || key.ProductID == "" {
		respondError(c, http.StatusBadRequest, "InvalidInput", "productId is required")
		return
	}
	if _, err := h.deps.CartSvc.Remove(c.Request.Context(), sessionID(c), key); err != nil {
		h.writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, pricing.CreditCard)
}

func (h *handler) applyPromo(c *gin.Context) {
	var req promoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	priced, err := h.deps.CartSvc.ApplyPromo(c.Request.Context(), sessionID(c), req.Code)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(priced.Lines, priced.Totals, h.deps.ImageHost))
}

func (h *handler) respondCart(c *gin.Context, status int, method pricing.PaymentMethod) {
	priced, err := h.deps.CartSvc.Price(c.Request.Context(), sessionID(c), method)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, toCartView(priced.Lines, priced.Totals, h.deps.ImageHost))
}

// cartEvents streams session changes as server-sent events until the client
// goes away.
func (h *handler) cartEvents(c *gin.Context) {
	if h.deps.Changes == nil {
		respondError(c, http.StatusNotImplemented, "NotImplemented", "change events are not available")
		return
	}
	ctx := c.Request.Context()
	changes, err := h.deps.Changes.Subscribe(ctx, sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			c.SSEvent("change", change)
			c.Writer.Flush()
		}
	}
}

func (h *handler) getWishlist(c *gin.Context) {
	items, err := h.deps.WishlistSvc.Load(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondWishlist(c, http.StatusOK, items)
}

func (h *handler) addWishlistItem(c *gin.Context) {
	var req wishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	items, err := h.deps.WishlistSvc.Add(c.Request.Context(), sessionID(c), req.ProductID, req.Size, req.Color)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondWishlist(c, http.StatusCreated, items)
}

func (h *handler) removeWishlistItem(c *gin.Context) {
	productID := c.Query("productId")
	if productID == "" {
		respondError(c, http.StatusBadRequest, "InvalidInput", "productId is required")
		return
	}
	items, err := h.deps.WishlistSvc.Remove(c.Request.Context(), sessionID(c), productID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondWishlist(c, http.StatusOK, items)
}

func (h *handler) moveWishlistItem(c *gin.Context) {
	var req cart.MoveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	items, err := h.deps.WishlistSvc.MoveToCart(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondWishlist(c, http.StatusOK, items)
}

func (h *handler) respondWishlist(c *gin.Context, status int, items []domain.LineItem) {
	lines, err := h.deps.WishlistSvc.Resolve(c.Request.Context(), items)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, wishlistView{Lines: toLineViews(lines, h.deps.ImageHost)})
}
