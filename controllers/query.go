package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"order-management/models"
)

// Timestamps without an offset are read as UTC.
var queryTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseQueryTime(name, value string) (time.Time, error) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s %q is not a valid date-time", models.ErrInvalidArgument, name, value)
}

func parseFilterQuery(c *gin.Context) (models.OrderItemFilter, models.PageRequest, error) {
	var (
		filter models.OrderItemFilter
		page   = models.PageRequest{Page: 0, Size: models.DefaultPageSize}
	)

	if v := c.Query("status"); v != "" {
		status, err := models.ParseOrderStatus(v)
		if err != nil {
			return filter, page, err
		}
		filter.Status = &status
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseQueryTime("startDate", v)
		if err != nil {
			return filter, page, err
		}
		filter.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseQueryTime("endDate", v)
		if err != nil {
			return filter, page, err
		}
		filter.EndDate = &t
	}
	if v := c.Query("itemId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, page, fmt.Errorf("%w: itemId %q is not a number", models.ErrInvalidArgument, v)
		}
		filter.ItemID = &id
	}

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, page, fmt.Errorf("%w: page %q is not a number", models.ErrInvalidArgument, v)
		}
		page.Page = n
	}
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, page, fmt.Errorf("%w: size %q is not a number", models.ErrInvalidArgument, v)
		}
		page.Size = n
	}
	if err := page.Validate(); err != nil {
		return filter, page, err
	}
	return filter, page, nil
}
