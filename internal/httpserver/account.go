package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/service/account"
)

type newsletterRequest struct {
	Email string `json:"email"`
}

func (h *handler) signup(c *gin.Context) {
	var req account.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	u, err := h.deps.AccountSvc.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userResponse{User: toUserView(*u)})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "email and password are required")
		return
	}
	u, err := h.deps.AccountSvc.Login(c.Request.Context(), sessionID(c), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: toUserView(*u)})
}

func (h *handler) logout(c *gin.Context) {
	if err := h.deps.AccountSvc.SignOut(c.Request.Context(), sessionID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) me(c *gin.Context) {
	u, err := h.deps.AccountSvc.CurrentUser(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: toUserView(*u)})
}

func (h *handler) updateMe(c *gin.Context) {
	var req account.ProfilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	ctx := c.Request.Context()
	current, err := h.deps.AccountSvc.CurrentUser(ctx, sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	updated, err := h.deps.AccountSvc.UpdateProfile(ctx, current.ID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if updated.Username != current.Username {
		if err := h.deps.AccountSvc.SignIn(ctx, sessionID(c), updated); err != nil {
			h.writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, userResponse{User: toUserView(*updated)})
}

func (h *handler) subscribeNewsletter(c *gin.Context) {
	var req newsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "InvalidJsonInput", "invalid request body")
		return
	}
	sub, err := h.deps.NewsletterSvc.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"email": sub.Email, "subscribedAt": sub.CreatedAt})
}
