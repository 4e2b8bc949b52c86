package production

import (
	"context"
	"errors"
)

// ErrGateway is the root of every remote gateway failure
var ErrGateway = errors.New("order gateway failure")

// FetchResult is the full remote collection plus its opaque stats
type FetchResult struct {
	Orders []Order
	Stats  RemoteStats
}

// OrderGateway is the port to the remote spreadsheet-backed order API.
// Every method is a single request; implementations never retry.
type OrderGateway interface {
	FetchAll(ctx context.Context) (FetchResult, error)
	Create(ctx context.Context, order Order) error
	CreateMany(ctx context.Context, orders []Order) error
	Update(ctx context.Context, order Order) error
	UpdateMany(ctx context.Context, orders []Order) error
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// GatewayMessage extracts the display message carried by a gateway failure
func GatewayMessage(err error) string {
	var d interface{ DisplayMessage() string }
	if errors.As(err, &d) {
		return d.DisplayMessage()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "The order service did not answer in time"
	}
	return ErrSyncFailed.Message
}
