package sim

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/grid-rtu-core/internal/rtu"
)

// pump ticks at the configured interval and pushes the stored value of
// every periodic datapoint through the fabric.
func (b *Backend) pump(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.pushAll(ctx)
		}
	}
}

// pushAll fans out one push per periodic datapoint. Individual points
// fail soft: a missing or unreadable value is logged and skipped so one
// broken point never starves the rest.
func (b *Backend) pushAll(ctx context.Context) {
	b.mu.Lock()
	fabric := b.fabric
	b.mu.Unlock()
	if fabric == nil {
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for point := range fabric.GetPeriodicDatapoints() {
		point := point
		group.Go(func() error {
			b.pushOne(groupCtx, fabric, point)
			return nil
		})
	}
	_ = group.Wait()
}

func (b *Backend) pushOne(ctx context.Context, fabric Fabric, point rtu.Primitive) {
	value, found, err := b.repo.Value(ctx, point.COA.Key(), point.IOA.Key())
	if err != nil {
		b.logger.Warn("sim: periodic read failed",
			"coa", point.COA.String(), "ioa", point.IOA.String(), "error", err.Error())
		return
	}
	if !found {
		b.logger.Debug("sim: periodic point has no process value",
			"coa", point.COA.String(), "ioa", point.IOA.String())
		return
	}

	b.journal(ctx, HistoryEntry{
		COA:       point.COA.Key(),
		IOA:       point.IOA.Key(),
		Operation: OpPush,
		COT:       point.COT,
		TypeID:    point.TypeID,
		Value:     value,
	})
	fabric.NotifyValue(point.COA, point.IOA, value)
}
