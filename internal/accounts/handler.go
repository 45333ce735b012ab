package accounts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docverify-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/accounts/:username", h.getAccount)
}

func (h *Handler) getAccount(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	username := c.Param("username")
	if username == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "username is required", nil)
		return
	}

	account, profile, err := h.Svc.Get(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "account not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load account", nil)
		return
	}

	resp := gin.H{
		"username":        account.Username,
		"docVerification": account.Status,
		"createdAt":       account.CreatedAt,
		"updatedAt":       account.UpdatedAt,
	}
	if profile != nil {
		resp["profile"] = gin.H{
			"name":    profile.Name,
			"phone":   profile.Phone,
			"address": profile.Address,
		}
	}

	respond.JSON(c, http.StatusOK, resp)
}
