// README: Menu handlers; browsing for everyone, mutation for managers.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aieats/internal/http/middleware"
	"aieats/internal/modules/menu"
	"aieats/internal/types"
)

type MenuHandler struct {
	menu *menu.Service
}

func NewMenuHandler(m *menu.Service) *MenuHandler {
	return &MenuHandler{menu: m}
}

// List returns the whole menu.
func (h *MenuHandler) List(c *gin.Context) {
	dishes, err := h.menu.List(c.Request.Context())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, dishListView(dishes))
}

// Popular returns the most ordered dishes.
func (h *MenuHandler) Popular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	dishes, err := h.menu.Popular(c.Request.Context(), limit)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, dishListView(dishes))
}

// Get returns one dish.
func (h *MenuHandler) Get(c *gin.Context) {
	d, err := h.menu.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, dishView(d))
}

type dishReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"image_url"`
	Price       float64  `json:"price"`
	Tags        []string `json:"tags"`
}

func (r dishReq) input() menu.DishInput {
	return menu.DishInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		Price:       types.FromDollars(r.Price),
		Tags:        r.Tags,
	}
}

// Add creates a dish.
func (h *MenuHandler) Add(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req dishReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	dishID, err := h.menu.Add(c.Request.Context(), id.UserID, req.input())
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dish_id": dishID})
}

// Update edits a dish; empty fields are left unchanged.
func (h *MenuHandler) Update(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req dishReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.menu.Update(c.Request.Context(), id.UserID, types.ID(c.Param("id")), req.input()); err != nil {
		mapError(c, err)
		return
	}
	h.Get(c)
}

type availabilityReq struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability toggles whether a dish can be ordered.
func (h *MenuHandler) SetAvailability(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.menu.SetAvailability(c.Request.Context(), id.UserID, types.ID(c.Param("id")), *req.Available); err != nil {
		mapError(c, err)
		return
	}
	h.Get(c)
}

func dishView(d *menu.Dish) gin.H {
	return gin.H{
		"dish_id":        d.ID,
		"name":           d.Name,
		"description":    d.Description,
		"category":       d.Category,
		"image_url":      d.ImageURL,
		"price":          d.Price.Dollars(),
		"is_available":   d.IsAvailable,
		"order_count":    d.OrderCount,
		"average_rating": d.AverageRating,
		"rating_count":   d.RatingCount,
		"tags":           d.Tags,
	}
}

func dishListView(dishes []menu.Dish) []gin.H {
	out := make([]gin.H, len(dishes))
	for i := range dishes {
		out[i] = dishView(&dishes[i])
	}
	return out
}
