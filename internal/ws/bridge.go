package ws

import (
	"context"
	"time"

	"strom_dashboard/internal/dashboard"
	"strom_dashboard/internal/log"
	"strom_dashboard/internal/model"
)

// Runner renders a dashboard. *dashboard.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, ref time.Time) dashboard.ViewModel
	Now() time.Time
	Location() *time.Location
}

// Bridge renders dashboards and publishes them to the hub.
type Bridge struct {
	hub    *Hub
	runner Runner
}

func NewBridge(hub *Hub, runner Runner) *Bridge {
	return &Bridge{hub: hub, runner: runner}
}

// Snapshot renders the dashboard for ref as a snapshot message.
func (b *Bridge) Snapshot(ctx context.Context, ref time.Time) ([]byte, error) {
	vm := b.runner.Run(ctx, ref)
	return NewEnvelope(TypeDashboardSnapshot, SnapshotPayload{
		Day:       model.DayKey(ref.In(b.runner.Location())),
		Dashboard: vm,
	})
}

// Refresh renders today's dashboard and broadcasts it to every client
// following the live dashboard.
func (b *Bridge) Refresh(ctx context.Context) {
	msg, err := b.Snapshot(ctx, b.runner.Now())
	if err != nil {
		log.Errorf("Error marshaling dashboard snapshot: %v", err)
		return
	}
	n := b.hub.Broadcast(msg)
	log.Debugf("Live dashboard snapshot sent to %d clients", n)
}
