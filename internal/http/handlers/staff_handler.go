// README: Manager-only account operations: registration review, hiring,
// firing, promotion, blacklisting, and bonuses.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aieats/internal/http/middleware"
	"aieats/internal/modules/user"
	"aieats/internal/types"
)

type StaffHandler struct {
	users *user.Service
}

func NewStaffHandler(users *user.Service) *StaffHandler {
	return &StaffHandler{users: users}
}

type approveReq struct {
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
}

// Approve activates or rejects a pending registration.
func (h *StaffHandler) Approve(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req approveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	err := h.users.ApproveRegistration(c.Request.Context(), id.UserID, types.ID(c.Param("id")), user.Decision(req.Decision), req.Reason)
	if err != nil {
		mapError(c, err)
		return
	}
	h.get(c)
}

// Pending lists registrations awaiting review.
func (h *StaffHandler) Pending(c *gin.Context) {
	if !h.manager(c) {
		return
	}
	users, err := h.users.PendingRegistrations(c.Request.Context())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, staffListView(users))
}

// Employees lists chefs and delivery people, demoted included.
func (h *StaffHandler) Employees(c *gin.Context) {
	if !h.manager(c) {
		return
	}
	users, err := h.users.Employees(c.Request.Context())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, staffListView(users))
}

type hireReq struct {
	Role string `json:"role" binding:"required"`
}

// Hire converts a customer account into an employee role.
func (h *StaffHandler) Hire(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req hireReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.users.Hire(c.Request.Context(), id.UserID, types.ID(c.Param("id")), user.RoleKind(req.Role)); err != nil {
		mapError(c, err)
		return
	}
	h.get(c)
}

type fireReq struct {
	Reason string `json:"reason" binding:"required"`
}

// Fire removes an employee from their role, recording the reason.
func (h *StaffHandler) Fire(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req fireReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.users.Fire(c.Request.Context(), id.UserID, types.ID(c.Param("id")), req.Reason); err != nil {
		mapError(c, err)
		return
	}
	h.get(c)
}

// Promote restores a demoted employee to the full role.
func (h *StaffHandler) Promote(c *gin.Context) {
	id, _ := middleware.Identity(c)
	if err := h.users.Promote(c.Request.Context(), id.UserID, types.ID(c.Param("id"))); err != nil {
		mapError(c, err)
		return
	}
	h.get(c)
}

// Blacklist permanently bans an account.
func (h *StaffHandler) Blacklist(c *gin.Context) {
	id, _ := middleware.Identity(c)
	if err := h.users.Blacklist(c.Request.Context(), id.UserID, types.ID(c.Param("id"))); err != nil {
		mapError(c, err)
		return
	}
	h.get(c)
}

type bonusReq struct {
	Amount float64 `json:"amount" binding:"required"`
}

// Bonus credits a bonus payment to an employee's balance.
func (h *StaffHandler) Bonus(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req bonusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	balance, err := h.users.PayBonus(c.Request.Context(), id.UserID, types.ID(c.Param("id")), types.FromDollars(req.Amount))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": types.ID(c.Param("id")), "balance": balance.Dollars()})
}

func (h *StaffHandler) get(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, staffView(u))
}

// manager rejects callers whose token does not carry the manager role. The
// listing endpoints have no per-record owner, so the gate lives here.
func (h *StaffHandler) manager(c *gin.Context) bool {
	id, _ := middleware.Identity(c)
	role, err := user.ParseRole(id.Role)
	if err != nil || role.Kind != user.RoleManager {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		return false
	}
	return true
}

func staffView(u *user.User) gin.H {
	return gin.H{
		"user_id":       u.ID,
		"email":         u.Email,
		"name":          u.Name,
		"role":          u.Role.String(),
		"status":        u.Status,
		"is_vip":        u.IsVIP,
		"warning_count": u.WarningCount,
		"balance":       u.Balance.Dollars(),
	}
}

func staffListView(users []user.User) []gin.H {
	out := make([]gin.H, len(users))
	for i := range users {
		out[i] = staffView(&users[i])
	}
	return out
}
