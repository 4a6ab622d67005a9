package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"order-management/models"
)

// priceScale is the number of decimal places stored for money columns.
const priceScale = 2

// Catalog resolves products by id.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// LinePrice is the price of quantity units at the given unit price.
func LinePrice(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// OrderTotal returns the supplied total when it is present and positive,
// otherwise the sum of the line prices.
func OrderTotal(supplied *decimal.Decimal, lines []decimal.Decimal) decimal.Decimal {
	if supplied != nil && supplied.IsPositive() {
		return *supplied
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l)
	}
	return total
}

type PricedLine struct {
	Product  *models.Product
	Quantity int
	Price    decimal.Decimal
}

type Quote struct {
	Lines []PricedLine
	Total decimal.Decimal
}

// PricingEngine prices placement requests against the current catalog.
// Prices are read without locking; a catalog change between the read and
// the order insert is not detected.
type PricingEngine struct {
	catalog Catalog
}

func NewPricingEngine(catalog Catalog) *PricingEngine {
	return &PricingEngine{catalog: catalog}
}

func (e *PricingEngine) Quote(ctx context.Context, req models.PlaceOrderRequest) (*Quote, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", models.ErrInvalidArgument)
	}
	if t := req.TotalPrice; t != nil && t.IsPositive() && !t.Equal(t.Round(priceScale)) {
		return nil, fmt.Errorf("%w: totalPrice must have at most %d decimal places", models.ErrInvalidArgument, priceScale)
	}

	quote := &Quote{Lines: make([]PricedLine, 0, len(req.Items))}
	prices := make([]decimal.Decimal, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %d must be positive", models.ErrInvalidArgument, line.ProductID)
		}
		product, err := e.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		price := LinePrice(product.Price, line.Quantity)
		quote.Lines = append(quote.Lines, PricedLine{Product: product, Quantity: line.Quantity, Price: price})
		prices = append(prices, price)
	}

	quote.Total = OrderTotal(req.TotalPrice, prices)
	return quote, nil
}
