package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/database"
	"github.com/nerrad567/grid-rtu-core/internal/rtu"
)

const (
	defaultPushInterval     = 5 * time.Second
	defaultHistoryRetention = 7 * 24 * time.Hour
)

// Logger defines the logging capability consumed by the simulator.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Fabric is the slice of the core surface the periodic pump needs:
// enumeration of periodic datapoints and the unsolicited-value entry
// point. *rtu.RTU satisfies it.
type Fabric interface {
	GetPeriodicDatapoints() map[rtu.Primitive]struct{}
	NotifyValue(coa, ioa rtu.Address, value any)
}

// Options configures a simulator backend.
type Options struct {
	// DB is the open SQLite connection holding the process image.
	// Required. The schema comes from the embedded migrations.
	DB *database.DB

	// PushInterval is the cadence of the periodic pump. Defaults to 5s.
	PushInterval time.Duration

	// HistoryRetention is how long io_history journal entries are kept.
	// Start prunes older entries. Defaults to 7 days.
	HistoryRetention time.Duration

	// Logger is optional; a no-op sink is installed when absent.
	Logger Logger
}

// Backend simulates field equipment against a SQLite process image.
//
// It implements the core backend capability plus the optional Starter,
// Stopper and PeriodicityCommander capabilities.
type Backend struct {
	repo      *Repository
	interval  time.Duration
	retention time.Duration
	logger    Logger

	mu     sync.Mutex
	fabric Fabric
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates a simulator backend. The fabric is attached later with
// AttachFabric because the core is constructed with the backend already
// in hand.
func New(opts Options) (*Backend, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("sim: database is required")
	}
	if opts.PushInterval <= 0 {
		opts.PushInterval = defaultPushInterval
	}
	if opts.HistoryRetention <= 0 {
		opts.HistoryRetention = defaultHistoryRetention
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Backend{
		repo:      NewRepository(opts.DB),
		interval:  opts.PushInterval,
		retention: opts.HistoryRetention,
		logger:    opts.Logger,
	}, nil
}

// Repository exposes the process-image store, mainly for seeding and
// inspection tooling.
func (b *Backend) Repository() *Repository {
	return b.repo
}

// AttachFabric wires the core surface the periodic pump pushes into.
// Until a fabric is attached the pump idles.
func (b *Backend) AttachFabric(f Fabric) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fabric = f
}

// SeedDefaults inserts a zero process value for every given datapoint
// that has none yet, so reads resolve immediately after first start.
func (b *Backend) SeedDefaults(ctx context.Context, points map[rtu.Primitive]struct{}) error {
	for point := range points {
		if err := b.repo.Seed(ctx, point.COA.Key(), point.IOA.Key(), 0); err != nil {
			return fmt.Errorf("sim: seeding %s: %w", point.ID(), err)
		}
	}
	return nil
}

// query is the simulator's opaque query shape. A nil value marks a read.
type query struct {
	coa   rtu.Address
	ioa   rtu.Address
	cot   int
	value any
	write bool
}

// BuildQuery constructs a simulator query for the addressed point.
func (b *Backend) BuildQuery(coa, ioa rtu.Address, cot int, value any) (any, error) {
	return query{coa: coa, ioa: ioa, cot: cot, value: value, write: value != nil}, nil
}

// SendQuery resolves a query against the process image. Reads return
// the stored value, writes replace it and echo the written value back
// as acknowledgment. Every exchange lands in the io_history journal.
func (b *Backend) SendQuery(ctx context.Context, q any) (any, error) {
	qr, ok := q.(query)
	if !ok {
		return nil, fmt.Errorf("sim: query has unexpected type %T", q)
	}

	coaKey, ioaKey := qr.coa.Key(), qr.ioa.Key()

	if qr.write {
		if err := b.repo.SetValue(ctx, coaKey, ioaKey, qr.value); err != nil {
			return nil, fmt.Errorf("sim: write (%s, %s): %w", qr.coa, qr.ioa, err)
		}
		b.journal(ctx, HistoryEntry{COA: coaKey, IOA: ioaKey, Operation: OpWrite, COT: qr.cot, Value: qr.value})
		return qr.value, nil
	}

	value, found, err := b.repo.Value(ctx, coaKey, ioaKey)
	if err != nil {
		return nil, fmt.Errorf("sim: read (%s, %s): %w", qr.coa, qr.ioa, err)
	}
	if !found {
		return nil, fmt.Errorf("sim: no process value for (%s, %s)", qr.coa, qr.ioa)
	}
	b.journal(ctx, HistoryEntry{COA: coaKey, IOA: ioaKey, Operation: OpRead, COT: qr.cot, Value: value})
	return value, nil
}

// CommandPeriodicity records periodicity changes in the journal. The
// pump itself re-enumerates periodic points on every tick, so no
// scheduling state needs adjusting here.
func (b *Backend) CommandPeriodicity(ctx context.Context, coa, ioa rtu.Address, periodic bool, cot int) error {
	b.logger.Info("sim: periodicity command",
		"coa", coa.String(), "ioa", ioa.String(), "periodic", periodic, "cot", cot)
	return b.repo.RecordExchange(ctx, HistoryEntry{
		COA:       coa.Key(),
		IOA:       ioa.Key(),
		Operation: OpPeriodicity,
		COT:       cot,
		Value:     periodic,
	})
}

// Start launches the periodic pump. Calling Start on a running backend
// is a no-op.
func (b *Backend) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return nil
	}

	// Journal retention is enforced once per start, best effort.
	if pruned, err := b.repo.PruneHistory(ctx, b.retention); err != nil {
		b.logger.Warn("sim: journal prune failed", "error", err.Error())
	} else if pruned > 0 {
		b.logger.Info("sim: journal pruned", "entries", pruned, "retention", b.retention.String())
	}

	// The pump outlives the startup context; Stop cancels it.
	pumpCtx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(pumpCtx)
	b.cancel = cancel
	b.group = group

	group.Go(func() error {
		return b.pump(groupCtx)
	})

	b.logger.Info("sim: backend started", "push_interval", b.interval.String())
	return nil
}

// Stop cancels the pump and waits for it to drain, bounded by ctx.
func (b *Backend) Stop(ctx context.Context) error {
	b.mu.Lock()
	cancel, group := b.cancel, b.group
	b.cancel, b.group = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- group.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("sim: pump shutdown: %w", err)
		}
		b.logger.Info("sim: backend stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// journal appends to io_history, best effort. Journal failures must not
// fail the exchange itself.
func (b *Backend) journal(ctx context.Context, entry HistoryEntry) {
	if err := b.repo.RecordExchange(ctx, entry); err != nil {
		b.logger.Warn("sim: journal write failed",
			"coa", entry.COA, "ioa", entry.IOA, "operation", entry.Operation, "error", err.Error())
	}
}
