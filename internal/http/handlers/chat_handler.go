// README: Support chat handlers; asking and rating for everyone, knowledge
// base curation for managers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aieats/internal/http/middleware"
	"aieats/internal/modules/chat"
	"aieats/internal/types"
)

type ChatHandler struct {
	chat *chat.Service
}

func NewChatHandler(s *chat.Service) *ChatHandler {
	return &ChatHandler{chat: s}
}

type askReq struct {
	Question string `json:"question" binding:"required"`
}

// Ask answers a support question.
func (h *ChatHandler) Ask(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req askReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	a, err := h.chat.Ask(c.Request.Context(), id.UserID, req.Question)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, answerView(a))
}

type rateReq struct {
	Rating *int `json:"rating" binding:"required"`
}

// Rate records how helpful an answer was.
func (h *ChatHandler) Rate(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req rateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.chat.Rate(c.Request.Context(), id.UserID, types.ID(c.Param("id")), *req.Rating); err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer_id": types.ID(c.Param("id")), "rating": *req.Rating})
}

type flagReq struct {
	Reason string `json:"reason" binding:"required"`
}

// Flag marks an answer as wrong or unhelpful.
func (h *ChatHandler) Flag(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req flagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.chat.Flag(c.Request.Context(), id.UserID, types.ID(c.Param("id")), req.Reason); err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer_id": types.ID(c.Param("id")), "flagged": true})
}

// Flagged lists answers awaiting manager correction.
func (h *ChatHandler) Flagged(c *gin.Context) {
	id, _ := middleware.Identity(c)
	answers, err := h.chat.FlaggedAnswers(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	out := make([]gin.H, len(answers))
	for i := range answers {
		out[i] = answerView(&answers[i])
	}
	c.JSON(http.StatusOK, out)
}

type entryReq struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
}

func (r entryReq) command() chat.EntryCommand {
	return chat.EntryCommand{Question: r.Question, Answer: r.Answer, Keywords: r.Keywords}
}

// AddEntry creates a knowledge-base entry.
func (h *ChatHandler) AddEntry(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req entryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	e, err := h.chat.AddEntry(c.Request.Context(), id.UserID, req.command())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entryView(e))
}

// UpdateEntry edits a knowledge-base entry.
func (h *ChatHandler) UpdateEntry(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req entryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	e, err := h.chat.UpdateEntry(c.Request.Context(), id.UserID, types.ID(c.Param("id")), req.command())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryView(e))
}

// Entries lists the knowledge base.
func (h *ChatHandler) Entries(c *gin.Context) {
	id, _ := middleware.Identity(c)
	entries, err := h.chat.Entries(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	out := make([]gin.H, len(entries))
	for i := range entries {
		out[i] = entryView(&entries[i])
	}
	c.JSON(http.StatusOK, out)
}

type correctReq struct {
	Answer   string   `json:"answer" binding:"required"`
	Keywords []string `json:"keywords"`
}

// Correct folds a flagged answer back into the knowledge base.
func (h *ChatHandler) Correct(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req correctReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	e, err := h.chat.Correct(c.Request.Context(), id.UserID, types.ID(c.Param("id")), req.Answer, req.Keywords)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryView(e))
}

// SetAvailability turns the assistant on or off.
func (h *ChatHandler) SetAvailability(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.chat.SetAvailability(c.Request.Context(), id.UserID, *req.Available); err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": *req.Available})
}

func answerView(a *chat.Answer) gin.H {
	v := gin.H{
		"answer_id": a.ID,
		"question":  a.Question,
		"answer":    a.Text,
		"source":    a.Source,
	}
	if a.Rating > 0 {
		v["rating"] = a.Rating
	}
	if a.Flagged {
		v["flagged"] = true
		v["flag_reason"] = a.FlagReason
	}
	return v
}

func entryView(e *chat.Entry) gin.H {
	return gin.H{
		"entry_id": e.ID,
		"question": e.Question,
		"answer":   e.Answer,
		"keywords": e.Keywords,
	}
}
