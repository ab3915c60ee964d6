// README: HTTP route table. Registration and login are public; everything
// else sits behind bearer auth. Role checks live in the services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aieats/internal/auth"
	"aieats/internal/http/handlers"
	"aieats/internal/http/middleware"
)

type Services struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Staff      *handlers.StaffHandler
	Menu       *handlers.MenuHandler
	Orders     *handlers.OrderHandler
	Deliveries *handlers.DeliveryHandler
	Complaints *handlers.ComplaintHandler
	Chat       *handlers.ChatHandler
}

func NewRouter(logger *zap.Logger, tokens *auth.Tokens, s Services) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/register", s.Auth.Register)
	r.POST("/api/auth/login", s.Auth.Login)

	api := r.Group("/api", middleware.Auth(tokens))

	api.GET("/me", s.Users.Me)
	api.POST("/me/deposit", s.Users.Deposit)

	api.GET("/menu", s.Menu.List)
	api.GET("/menu/popular", s.Menu.Popular)
	api.GET("/menu/:id", s.Menu.Get)
	api.POST("/menu", s.Menu.Add)
	api.PUT("/menu/:id", s.Menu.Update)
	api.PUT("/menu/:id/availability", s.Menu.SetAvailability)
	api.POST("/menu/:id/rating", s.Orders.RateDish)

	api.POST("/orders", s.Orders.Create)
	api.GET("/orders", s.Orders.ListMine)
	api.GET("/orders/queue", s.Orders.Queue)
	api.GET("/orders/kitchen", s.Orders.Kitchen)
	api.GET("/orders/:id", s.Orders.Get)
	api.POST("/orders/:id/confirm", s.Orders.Confirm)
	api.POST("/orders/:id/start", s.Orders.Start)
	api.POST("/orders/:id/complete", s.Orders.Complete)
	api.POST("/orders/:id/hold", s.Orders.Hold)
	api.POST("/orders/:id/resume", s.Orders.Resume)

	api.GET("/deliveries/available", s.Deliveries.Available)
	api.POST("/deliveries/orders/:id/bids", s.Deliveries.Bid)
	api.GET("/deliveries/orders/:id/bids", s.Deliveries.OrderBids)
	api.POST("/deliveries/bids/:id/assign", s.Deliveries.Assign)
	api.POST("/deliveries/:id/pickup", s.Deliveries.Pickup)
	api.POST("/deliveries/:id/complete", s.Deliveries.Complete)
	api.GET("/deliveries/active", s.Deliveries.Active)
	api.GET("/deliveries/history", s.Deliveries.History)
	api.GET("/deliveries/completed-today", s.Deliveries.CompletedToday)

	api.POST("/complaints", s.Complaints.File)
	api.GET("/complaints/pending", s.Complaints.Pending)
	api.GET("/complaints/alert", s.Complaints.Alert)
	api.GET("/complaints/received", s.Complaints.Received)
	api.GET("/complaints/submitted", s.Complaints.Submitted)
	api.POST("/complaints/:id/resolve", s.Complaints.Resolve)
	api.POST("/employees/:id/evaluate", s.Complaints.Evaluate)

	api.POST("/chat/ask", s.Chat.Ask)
	api.POST("/chat/answers/:id/rating", s.Chat.Rate)
	api.POST("/chat/answers/:id/flag", s.Chat.Flag)
	api.GET("/chat/answers/flagged", s.Chat.Flagged)
	api.POST("/chat/answers/:id/correct", s.Chat.Correct)
	api.GET("/chat/kb", s.Chat.Entries)
	api.POST("/chat/kb", s.Chat.AddEntry)
	api.PUT("/chat/kb/:id", s.Chat.UpdateEntry)
	api.PUT("/chat/availability", s.Chat.SetAvailability)

	api.GET("/staff/pending", s.Staff.Pending)
	api.GET("/staff/employees", s.Staff.Employees)
	api.POST("/staff/:id/approve", s.Staff.Approve)
	api.POST("/staff/:id/hire", s.Staff.Hire)
	api.POST("/staff/:id/fire", s.Staff.Fire)
	api.POST("/staff/:id/promote", s.Staff.Promote)
	api.POST("/staff/:id/blacklist", s.Staff.Blacklist)
	api.POST("/staff/:id/bonus", s.Staff.Bonus)

	return r
}
