// README: Account handlers; profile and balance deposits.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aieats/internal/http/middleware"
	"aieats/internal/modules/user"
	"aieats/internal/types"
)

type UserHandler struct {
	users *user.Service
}

func NewUserHandler(users *user.Service) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the caller's own account.
func (h *UserHandler) Me(c *gin.Context) {
	id, _ := middleware.Identity(c)
	u, err := h.users.Get(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, userView(u))
}

type depositReq struct {
	Amount float64 `json:"amount" binding:"required"`
}

// Deposit credits the caller's balance.
func (h *UserHandler) Deposit(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req depositReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	balance, err := h.users.Deposit(c.Request.Context(), id.UserID, types.FromDollars(req.Amount))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance.Dollars()})
}

func userView(u *user.User) gin.H {
	return gin.H{
		"user_id":        u.ID,
		"email":          u.Email,
		"name":           u.Name,
		"role":           u.Role.String(),
		"status":         u.Status,
		"is_vip":         u.IsVIP,
		"balance":        u.Balance.Dollars(),
		"total_spent":    u.TotalSpent.Dollars(),
		"order_count":    u.OrderCount,
		"warning_count":  u.WarningCount,
		"net_complaints": u.NetComplaints,
	}
}
