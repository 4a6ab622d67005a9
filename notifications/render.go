package notifications

import (
	"bytes"
	"fmt"
	"html/template"

	"order-management/models"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(
	`<h2>Hi {{.Name}},</h2>` +
		`<p>Your order <b>#{{.OrderID}}</b> has been successfully placed.</p>` +
		`<p><strong>Order Summary:</strong></p><ul>` +
		`{{range .Lines}}<li>{{.Product}} - {{.Quantity}} x {{.Price}}</li>{{end}}` +
		`</ul>` +
		`<p>Total Price: <b>{{.Total}}</b></p>` +
		`<p>Thank you for shopping with us!</p>`))

type confirmationLine struct {
	Product  string
	Quantity int
	Price    string
}

type confirmationData struct {
	Name    string
	OrderID int64
	Lines   []confirmationLine
	Total   string
}

// RenderOrderConfirmation builds the confirmation email for a persisted
// order. Items must carry their Product.
func RenderOrderConfirmation(user *models.User, order *models.Order) (Message, error) {
	data := confirmationData{
		Name:    user.Name,
		OrderID: order.ID,
		Total:   order.TotalPrice.StringFixed(2),
	}
	for _, item := range order.Items {
		name := fmt.Sprintf("product %d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		data.Lines = append(data.Lines, confirmationLine{
			Product:  name,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
		})
	}

	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render confirmation for order %d: %w", order.ID, err)
	}

	return Message{
		ID:       newMessageID(),
		To:       user.Email,
		Subject:  fmt.Sprintf("Order Confirmation - #%d", order.ID),
		Body:     body.String(),
		OrderID:  order.ID,
		Priority: PriorityFor(order.TotalPrice),
	}, nil
}
