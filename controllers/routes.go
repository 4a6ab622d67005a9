package controllers

import (
	"github.com/gin-gonic/gin"

	"order-management/middlewares"
	"order-management/models"
)

// RegisterRoutes mounts the order API behind auth. Status changes, queries
// and deletion are reserved for admins.
func RegisterRoutes(r gin.IRouter, oc *OrderController, auth gin.HandlerFunc) {
	api := r.Group("/api", auth)
	api.POST("/orders", oc.PlaceOrder)
	api.GET("/orders/:id", oc.GetOrder)

	admin := api.Group("", middlewares.RequireRole(models.RoleAdmin))
	admin.DELETE("/orders/:id", oc.DeleteOrder)
	admin.PUT("/order-items/:id/status", oc.UpdateOrderItemStatus)
	admin.GET("/order-items", oc.FilterOrderItems)
}
