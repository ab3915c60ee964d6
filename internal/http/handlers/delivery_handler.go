// README: Delivery handlers; courier bidding and lifecycle, manager assignment.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"aieats/internal/http/middleware"
	"aieats/internal/modules/delivery"
	"aieats/internal/types"
)

type DeliveryHandler struct {
	deliveries *delivery.Service
}

func NewDeliveryHandler(deliveries *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries}
}

// Available lists biddable orders with optional travel estimates.
func (h *DeliveryHandler) Available(c *gin.Context) {
	id, _ := middleware.Identity(c)
	orders, err := h.deliveries.AvailableOrders(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	out := make([]gin.H, len(orders))
	for i, av := range orders {
		view := gin.H{
			"order":   orderView(&av.Order),
			"address": av.Address,
		}
		if av.Estimate != nil {
			view["distance_meters"] = av.Estimate.Meters
			view["travel_time"] = av.Estimate.Duration.String()
		}
		out[i] = view
	}
	c.JSON(http.StatusOK, out)
}

type bidReq struct {
	Amount float64 `json:"amount" binding:"required"`
}

// Bid submits a pending bid on a ready order.
func (h *DeliveryHandler) Bid(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req bidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	b, err := h.deliveries.SubmitBid(c.Request.Context(), delivery.BidCommand{
		BidderID: id.UserID,
		OrderID:  types.ID(c.Param("id")),
		Amount:   types.FromDollars(req.Amount),
	})
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bidView(b))
}

// OrderBids lists all bids on one order for the manager.
func (h *DeliveryHandler) OrderBids(c *gin.Context) {
	id, _ := middleware.Identity(c)
	bids, err := h.deliveries.OrderBids(c.Request.Context(), id.UserID, types.ID(c.Param("id")))
	if err != nil {
		mapError(c, err)
		return
	}
	out := make([]gin.H, len(bids))
	for i := range bids {
		out[i] = bidView(&bids[i])
	}
	c.JSON(http.StatusOK, out)
}

type assignReq struct {
	Justification string `json:"justification"`
}

// Assign accepts a bid and creates the delivery.
func (h *DeliveryHandler) Assign(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req assignReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	d, err := h.deliveries.Assign(c.Request.Context(), delivery.AssignCommand{
		ManagerID:     id.UserID,
		BidID:         types.ID(c.Param("id")),
		Justification: req.Justification,
	})
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deliveryView(d))
}

// Pickup confirms the courier collected the order.
func (h *DeliveryHandler) Pickup(c *gin.Context) {
	id, _ := middleware.Identity(c)
	d, err := h.deliveries.ConfirmPickup(c.Request.Context(), id.UserID, types.ID(c.Param("id")))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveryView(d))
}

type outcomeReq struct {
	Delivered *bool `json:"delivered" binding:"required"`
}

// Complete records the delivery outcome.
func (h *DeliveryHandler) Complete(c *gin.Context) {
	id, _ := middleware.Identity(c)
	var req outcomeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	d, err := h.deliveries.Complete(c.Request.Context(), id.UserID, types.ID(c.Param("id")), *req.Delivered)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveryView(d))
}

// Active lists the caller's in-flight deliveries.
func (h *DeliveryHandler) Active(c *gin.Context) {
	h.list(c, h.deliveries.ActiveDeliveries)
}

// History lists everything the caller has delivered.
func (h *DeliveryHandler) History(c *gin.Context) {
	h.list(c, h.deliveries.History)
}

// CompletedToday reports today's delivered count.
func (h *DeliveryHandler) CompletedToday(c *gin.Context) {
	id, _ := middleware.Identity(c)
	n, err := h.deliveries.CompletedToday(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed_today": n})
}

func (h *DeliveryHandler) list(c *gin.Context, op func(ctx context.Context, personID types.ID) ([]delivery.Delivery, error)) {
	id, _ := middleware.Identity(c)
	ds, err := op(c.Request.Context(), id.UserID)
	if err != nil {
		mapError(c, err)
		return
	}
	out := make([]gin.H, len(ds))
	for i := range ds {
		out[i] = deliveryView(&ds[i])
	}
	c.JSON(http.StatusOK, out)
}

func bidView(b *delivery.Bid) gin.H {
	return gin.H{
		"bid_id":   b.ID,
		"order_id": b.OrderID,
		"bidder":   b.BidderID,
		"amount":   b.Amount.Dollars(),
		"status":   b.Status,
	}
}

func deliveryView(d *delivery.Delivery) gin.H {
	view := gin.H{
		"delivery_id":     d.ID,
		"order_id":        d.OrderID,
		"bid_id":          d.BidID,
		"delivery_person": d.DeliveryPersonID,
		"amount":          d.Amount.Dollars(),
		"status":          d.Status,
	}
	if d.DeliveredAt != nil {
		view["delivered_at"] = d.DeliveredAt
	}
	return view
}
