package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
)

type demoProduct struct {
	name     string
	family   string
	sizes    []string
	fillings []string
}

var demoCatalog = []demoProduct{
	{"Tarta de queso", "Tartas", []string{"4 raciones", "6 raciones", "8 raciones"}, nil},
	{"Pastel vasco", "Tartas", []string{"Pequeño", "Mediano", "Grande"}, []string{"Crema", "Cereza"}},
	{"Tarta San Marcos", "Tartas", []string{"6 raciones", "10 raciones"}, []string{"Nata", "Trufa"}},
	{"Croissant", "Bollería", []string{"Mini", "Normal"}, []string{"", "Chocolate"}},
	{"Napolitana", "Bollería", []string{"Normal"}, []string{"Chocolate", "Crema"}},
	{"Hojaldre", "Bollería", []string{"Pequeño", "Grande"}, []string{"Crema", "Nata"}},
	{"Pan de hogaza", "Pan", []string{"500 g", "1 kg"}, nil},
	{"Txapela", "Pan", []string{"Normal"}, nil},
}

var demoNotes = []string{"", "", "", "Sin lactosa", "Escribir: Zorionak", "Poco azúcar", "Vela con número"}

// DemoGateway is an in-memory order service seeded with plausible bakery orders.
// It stands in for the spreadsheet API on local runs and supports scripted failures.
type DemoGateway struct {
	mu       sync.Mutex
	orders   []production.Order
	stats    production.RemoteStats
	latency  time.Duration
	failures []string
	calls    map[string]int
}

var _ production.OrderGateway = (*DemoGateway)(nil)

// NewDemoGateway creates an empty demo gateway
func NewDemoGateway() *DemoGateway {
	return &DemoGateway{
		stats: production.RemoteStats{"total": 0},
		calls: make(map[string]int),
	}
}

// Seed replaces the stored orders with count generated lines delivered around now.
// The same seed always produces the same orders.
func (d *DemoGateway) Seed(seed uint64, count int, now time.Time) {
	f := gofakeit.New(seed)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	created := now.Add(-48 * time.Hour)

	orders := make([]production.Order, 0, count)
	for len(orders) < count {
		groupID := ""
		lines := 1
		if f.Number(1, 4) == 1 {
			groupID = f.UUID()
			lines = f.Number(2, 3)
		}
		customer := f.Name()
		delivery := day.AddDate(0, 0, f.Number(0, 2)).
			Add(time.Duration(f.Number(8, 20))*time.Hour + time.Duration(f.Number(0, 3)*15)*time.Minute)

		for i := 0; i < lines && len(orders) < count; i++ {
			p := demoCatalog[f.Number(0, len(demoCatalog)-1)]
			o := production.Order{
				ID:           f.UUID(),
				GroupID:      groupID,
				Product:      p.name,
				Family:       p.family,
				Size:         f.RandomString(p.sizes),
				Quantity:     f.Number(1, 6),
				DeliveryAt:   delivery,
				Status:       demoStatus(f),
				CustomerName: customer,
				KitchenNotes: f.RandomString(demoNotes),
				AttendedBy:   f.FirstName(),
				CreatedAt:    created,
			}
			if len(p.fillings) > 0 {
				o.Filling = f.RandomString(p.fillings)
			}
			o.AlreadyInShop = o.Status == production.StatusDelivered
			orders = append(orders, o)
		}
	}

	d.mu.Lock()
	d.orders = orders
	d.stats = production.RemoteStats{"total": len(orders)}
	d.mu.Unlock()
}

func demoStatus(f *gofakeit.Faker) production.Status {
	switch n := f.Number(1, 20); {
	case n <= 10:
		return production.StatusPending
	case n <= 14:
		return production.StatusInProgress
	case n <= 17:
		return production.StatusDone
	case n <= 19:
		return production.StatusDelivered
	default:
		return production.StatusCancelled
	}
}

// SetOrders replaces the stored orders
func (d *DemoGateway) SetOrders(orders []production.Order) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orders = append([]production.Order(nil), orders...)
	d.stats = production.RemoteStats{"total": len(orders)}
}

// SetLatency delays every call by latency, or until the caller's context ends
func (d *DemoGateway) SetLatency(latency time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latency = latency
}

// FailNext makes the next call fail with a remote error carrying message
func (d *DemoGateway) FailNext(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = append(d.failures, message)
}

// Calls returns how many times action was requested
func (d *DemoGateway) Calls(action string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[action]
}

// Orders returns a copy of the stored orders
func (d *DemoGateway) Orders() []production.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]production.Order(nil), d.orders...)
}

// FetchAll implements production.OrderGateway
func (d *DemoGateway) FetchAll(ctx context.Context) (production.FetchResult, error) {
	if err := d.enter(ctx, actionFetch); err != nil {
		return production.FetchResult{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := make(production.RemoteStats, len(d.stats))
	for k, v := range d.stats {
		stats[k] = v
	}
	return production.FetchResult{
		Orders: append([]production.Order(nil), d.orders...),
		Stats:  stats,
	}, nil
}

// Create implements production.OrderGateway
func (d *DemoGateway) Create(ctx context.Context, order production.Order) error {
	return d.CreateMany(ctx, []production.Order{order})
}

// CreateMany implements production.OrderGateway
func (d *DemoGateway) CreateMany(ctx context.Context, orders []production.Order) error {
	action := ActionAddMany
	if len(orders) == 1 {
		action = ActionAdd
	}
	if err := d.enter(ctx, action); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, o := range orders {
		if d.indexLocked(o.ID) >= 0 {
			return remoteError(action, "Ya existe un pedido con el id "+o.ID)
		}
	}
	d.orders = append(d.orders, orders...)
	d.stats["total"] = len(d.orders)
	return nil
}

// Update implements production.OrderGateway
func (d *DemoGateway) Update(ctx context.Context, order production.Order) error {
	return d.replace(ctx, ActionUpdate, []production.Order{order})
}

// UpdateMany implements production.OrderGateway
func (d *DemoGateway) UpdateMany(ctx context.Context, orders []production.Order) error {
	return d.replace(ctx, ActionUpdateMany, orders)
}

// UpdateStatus implements production.OrderGateway
func (d *DemoGateway) UpdateStatus(ctx context.Context, id string, status production.Status) error {
	if err := d.enter(ctx, ActionUpdateStatus); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return remoteError(ActionUpdateStatus, "Pedido no encontrado")
	}
	d.orders[i].Status = status
	return nil
}

func (d *DemoGateway) replace(ctx context.Context, action string, orders []production.Order) error {
	if err := d.enter(ctx, action); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := make([]int, len(orders))
	for n, o := range orders {
		i := d.indexLocked(o.ID)
		if i < 0 {
			return remoteError(action, "Pedido no encontrado")
		}
		idx[n] = i
	}
	for n, o := range orders {
		d.orders[idx[n]] = o
	}
	return nil
}

// enter counts the call, waits out the configured latency and consumes a scripted failure
func (d *DemoGateway) enter(ctx context.Context, action string) error {
	d.mu.Lock()
	d.calls[action]++
	latency := d.latency
	var failure *string
	if len(d.failures) > 0 {
		msg := d.failures[0]
		d.failures = d.failures[1:]
		failure = &msg
	}
	d.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return transportError(action, ctx.Err())
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return transportError(action, err)
	}
	if failure != nil {
		return remoteError(action, *failure)
	}
	return nil
}

func (d *DemoGateway) indexLocked(id string) int {
	for i := range d.orders {
		if d.orders[i].ID == id {
			return i
		}
	}
	return -1
}
