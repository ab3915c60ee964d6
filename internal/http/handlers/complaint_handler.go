// README: Complaint handlers; filing, adjudication, and performance evaluation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aieats/internal/http/middleware"
	"aieats/internal/modules/complaint"
	"aieats/internal/modules/reputation"
	"aieats/internal/modules/user"
	"aieats/internal/types"
)

type ComplaintHandler struct {
	complaints *complaint.Service
	reputation *reputation.Service
}

func NewComplaintHandler(complaints *complaint.Service, rep *reputation.Service) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, reputation: rep}
}

type fileReq struct {
	ToUserID    string `json:"to_user_id"`
	EntityType  string `json:"entity_type"`
	IsComplaint *bool  `json:"is_complaint" binding:"required"`
	Rating      int    `json:"rating"`
	Description string `json:"description"`
}

// File records a complaint or compliment for manager review.
func (h *ComplaintHandler) File(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req fileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	filed, err := h.complaints.File(c.Request.Context(), complaint.FileCommand{
		FromUserID:  id.UserID,
		ToUserID:    types.ID(req.ToUserID),
		EntityType:  user.RoleKind(req.EntityType),
		IsComplaint: *req.IsComplaint,
		Rating:      req.Rating,
		Description: req.Description,
	})
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, complaintView(filed))
}

type resolveReq struct {
	Outcome string `json:"outcome" binding:"required"`
	Note    string `json:"note"`
}

// Resolve adjudicates a pending complaint.
func (h *ComplaintHandler) Resolve(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	resolved, err := h.complaints.Resolve(c.Request.Context(), complaint.ResolveCommand{
		ManagerID:   id.UserID,
		ComplaintID: types.ID(c.Param("id")),
		Outcome:     complaint.Status(req.Outcome),
		Note:        req.Note,
	})
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaintView(resolved))
}

// Pending lists the manager's adjudication queue.
func (h *ComplaintHandler) Pending(c *gin.Context) {
	id, _ := middleware.Identity(c)
	pending, err := h.complaints.Pending(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaintListView(pending))
}

// Alert reports the pending backlog and whether it crossed the threshold.
func (h *ComplaintHandler) Alert(c *gin.Context) {
	id, _ := middleware.Identity(c)
	n, alert, err := h.complaints.PendingAlert(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": n, "alert": alert})
}

// Received lists filings targeting the caller.
func (h *ComplaintHandler) Received(c *gin.Context) {
	id, _ := middleware.Identity(c)
	list, err := h.complaints.Received(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaintListView(list))
}

// Submitted lists filings made by the caller.
func (h *ComplaintHandler) Submitted(c *gin.Context) {
	id, _ := middleware.Identity(c)
	list, err := h.complaints.Submitted(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaintListView(list))
}

// Evaluate runs a performance evaluation over an employee's valid filings.
func (h *ComplaintHandler) Evaluate(c *gin.Context) {
	id, _ := middleware.Identity(c)
	out, err := h.reputation.Evaluate(c.Request.Context(), id.UserID, types.ID(c.Param("id")))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employee_id":    out.EmployeeID,
		"entity_type":    out.EntityType,
		"average_rating": out.AverageRating,
		"net_complaints": out.NetComplaints,
		"compliments":    out.Compliments,
		"demoted":        out.Demoted,
		"terminated":     out.Terminated,
		"bonus_eligible": out.BonusEligible,
	})
}

func complaintView(cm *complaint.Complaint) gin.H {
	view := gin.H{
		"complaint_id": cm.ID,
		"from_user":    cm.FromUserID,
		"entity_type":  cm.EntityType,
		"is_complaint": cm.IsComplaint,
		"rating":       cm.Rating,
		"weight":       cm.Weight,
		"description":  cm.Description,
		"status":       cm.Status,
	}
	if cm.ToUserID != "" {
		view["to_user"] = cm.ToUserID
	}
	if cm.Resolved() {
		view["resolution_note"] = cm.ResolutionNote
		view["resolved_by"] = cm.ResolvedBy
	}
	return view
}

func complaintListView(list []complaint.Complaint) []gin.H {
	out := make([]gin.H, len(list))
	for i := range list {
		out[i] = complaintView(&list[i])
	}
	return out
}
