// README: Order handlers; customer ordering flow and chef kitchen transitions.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"aieats/internal/http/middleware"
	"aieats/internal/modules/order"
	"aieats/internal/types"
)

type OrderHandler struct {
	orders *order.Service
}

func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderReq struct {
	Items []struct {
		DishID   string `json:"dish_id" binding:"required"`
		Quantity int    `json:"quantity" binding:"required"`
	} `json:"items" binding:"required"`
}

// Create places a new order in PendingPayment for the caller.
func (h *OrderHandler) Create(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{DishID: types.ID(it.DishID), Quantity: it.Quantity}
	}
	o, err := h.orders.Create(c.Request.Context(), order.CreateCommand{
		CustomerID: id.UserID,
		Items:      items,
	})
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderView(o))
}

// Confirm settles payment and queues the order for preparation.
func (h *OrderHandler) Confirm(c *gin.Context) {
	res, err := h.orders.Confirm(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		mapError(c, err)
		return
	}
	body := orderView(res.Order)
	body["balance"] = res.NewBalance.Dollars()
	body["vip_upgraded"] = res.VIPUpgraded
	c.JSON(http.StatusOK, body)
}

// Get returns one order.
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderView(o))
}

// ListMine returns the caller's order history.
func (h *OrderHandler) ListMine(c *gin.Context) {
	id, _ := middleware.Identity(c)
	orders, err := h.orders.CustomerOrders(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderListView(orders))
}

// Queue returns the chef's preparation queue.
func (h *OrderHandler) Queue(c *gin.Context) {
	id, _ := middleware.Identity(c)
	orders, err := h.orders.PreparationQueue(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderListView(orders))
}

// Kitchen returns all orders currently in the kitchen's hands.
func (h *OrderHandler) Kitchen(c *gin.Context) {
	id, _ := middleware.Identity(c)
	orders, err := h.orders.KitchenOrders(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderListView(orders))
}

// Start moves a queued order into preparation.
func (h *OrderHandler) Start(c *gin.Context) {
	h.transition(c, h.orders.StartPreparation)
}

// Complete marks an order ready for delivery.
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, h.orders.CompletePreparation)
}

// Resume returns an on-hold order to preparation.
func (h *OrderHandler) Resume(c *gin.Context) {
	h.transition(c, h.orders.Resume)
}

type holdReq struct {
	Note string `json:"note" binding:"required"`
}

// Hold parks an order with a note explaining why.
func (h *OrderHandler) Hold(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req holdReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a note is required to hold an order"})
		return
	}
	if err := h.orders.Hold(c.Request.Context(), id.UserID, types.ID(c.Param("id")), req.Note); err != nil {
		mapError(c, err)
		return
	}
	h.Get(c)
}

type dishRatingReq struct {
	Rating int `json:"rating" binding:"required"`
}

// RateDish records the caller's rating for a dish they have received.
func (h *OrderHandler) RateDish(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req dishRatingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.orders.RateDish(c.Request.Context(), id.UserID, types.ID(c.Param("id")), req.Rating); err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dish_id": types.ID(c.Param("id")), "rating": req.Rating})
}

func (h *OrderHandler) transition(c *gin.Context, op func(ctx context.Context, chefID, orderID types.ID) error) {
	id, _ := middleware.Identity(c)
	if err := op(c.Request.Context(), id.UserID, types.ID(c.Param("id"))); err != nil {
		mapError(c, err)
		return
	}
	h.Get(c)
}

func orderView(o *order.Order) gin.H {
	items := make([]gin.H, len(o.Items))
	for i, it := range o.Items {
		items[i] = gin.H{
			"dish_id":    it.DishID,
			"quantity":   it.Quantity,
			"unit_price": it.UnitPrice.Dollars(),
		}
	}
	view := gin.H{
		"order_id":         o.ID,
		"customer_id":      o.CustomerID,
		"items":            items,
		"original_price":   o.OriginalPrice.Dollars(),
		"discount_applied": o.DiscountApplied.Dollars(),
		"final_price":      o.FinalPrice.Dollars(),
		"status":           o.Status,
	}
	if o.Notes != "" {
		view["notes"] = o.Notes
	}
	return view
}

func orderListView(orders []order.Order) []gin.H {
	out := make([]gin.H, len(orders))
	for i := range orders {
		out[i] = orderView(&orders[i])
	}
	return out
}
