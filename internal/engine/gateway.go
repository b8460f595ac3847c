package engine

import (
	"context"
	"errors"

	"trading-botv1/internal/model"
)

// ErrNoGateway is returned when REAL mode is selected without an order
// gateway wired in.
var ErrNoGateway = errors.New("engine: no order gateway configured")

// Intent is a fully-priced order request handed to a real-money gateway.
type Intent struct {
	Pair       string     `json:"pair"`
	Side       model.Side `json:"side"`
	Quantity   float64    `json:"quantity"`
	Leverage   int        `json:"leverage"`
	EntryPrice float64    `json:"entry_price"`
	TPPrice    float64    `json:"tp_price"`
	SLPrice    float64    `json:"sl_price"`
	Confidence float64    `json:"confidence"`
}

// Gateway places real orders on an exchange. Implementations own auth,
// retries, and order tracking; the engine only hands over intents.
type Gateway interface {
	PlaceOrder(ctx context.Context, intent Intent) (orderID string, err error)
}

// NopGateway rejects every order. It is the default in deployments that
// have not wired real-money execution.
type NopGateway struct{}

func (NopGateway) PlaceOrder(context.Context, Intent) (string, error) {
	return "", ErrNoGateway
}
