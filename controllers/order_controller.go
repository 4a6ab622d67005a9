package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"order-management/middlewares"
	"order-management/models"
	"order-management/utils"
)

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, user *models.User, req models.PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, user *models.User, id int64) (*models.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type OrderItemManager interface {
	UpdateStatus(ctx context.Context, id int64, status string) error
	Filter(ctx context.Context, filter models.OrderItemFilter, page models.PageRequest) (*models.Page[models.OrderItemView], error)
}

type OrderController struct {
	orders OrderPlacer
	items  OrderItemManager
	log    *logrus.Logger
}

func NewOrderController(orders OrderPlacer, items OrderItemManager, log *logrus.Logger) *OrderController {
	return &OrderController{orders: orders, items: items, log: log}
}

type placedOrder struct {
	OrderID    int64           `json:"orderId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (oc *OrderController) PlaceOrder(c *gin.Context) {
	defer middlewares.RecordOrderOperation("place", c)

	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	order, err := oc.orders.PlaceOrder(c.Request.Context(), middlewares.CurrentUser(c), req)
	if err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Order was successfully placed",
		placedOrder{OrderID: order.ID, TotalPrice: order.TotalPrice})
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	defer middlewares.RecordOrderOperation("get", c)

	id, err := pathID(c)
	if err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}

	order, err := oc.orders.GetOrder(c.Request.Context(), middlewares.CurrentUser(c), id)
	if err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "successful", order)
}

func (oc *OrderController) DeleteOrder(c *gin.Context) {
	defer middlewares.RecordOrderOperation("delete", c)

	id, err := pathID(c)
	if err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}

	if err := oc.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Order deleted successfully", nil)
}

func (oc *OrderController) UpdateOrderItemStatus(c *gin.Context) {
	defer middlewares.RecordOrderOperation("update_status", c)

	id, err := pathID(c)
	if err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := oc.items.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Order status updated successfully", nil)
}

func (oc *OrderController) FilterOrderItems(c *gin.Context) {
	defer middlewares.RecordOrderOperation("filter", c)

	filter, page, err := parseFilterQuery(c)
	if err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}

	result, err := oc.items.Filter(c.Request.Context(), filter, page)
	if err != nil {
		utils.HandleError(c, oc.log, err)
		return
	}
	utils.PageResponse(c, "successful", result)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", models.ErrInvalidArgument, c.Param("id"))
	}
	return id, nil
}
