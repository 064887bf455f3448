// Package buildlock serializes graph builds per dataset through a Postgres
// lease. Two processes building the same dataset at once would interleave
// their merge transactions and double-count provenance, so the holder of the
// lease keeps renewing it while the build runs and everyone else either waits
// or backs off.
package buildlock

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrBusy means another holder has a live lease on the dataset.
	ErrBusy = errors.New("dataset is being built by another process")
	// ErrLost means the lease could not be renewed and the build context
	// was cancelled.
	ErrLost = errors.New("build lease lost")
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client acquires build leases against the dataset_locks table.
type Client struct {
	db dbConn
}

// Options tune lease lifetime and waiting behavior.
type Options struct {
	TTL        time.Duration
	RenewEvery time.Duration

	Wait         bool
	WaitInterval time.Duration
	WaitJitter   time.Duration
}

// Lease is a held build lock. Context is cancelled when the lease is lost,
// so builds running under it stop instead of writing unguarded.
type Lease struct {
	Dataset string
	Token   string

	Context context.Context

	client *Client
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a lock client over the given pool.
func New(pool *pgxpool.Pool) *Client {
	return &Client{db: pool}
}

// WithLease runs fn while holding the build lease for the dataset, releasing
// it afterwards. fn receives the lease context and should stop when it is
// cancelled.
func (c *Client) WithLease(ctx context.Context, dataset string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, dataset, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	return fn(lease.Context)
}

// Acquire takes the build lease for a dataset. With Wait set it polls until
// the current holder's lease expires; otherwise a held lease returns ErrBusy.
func (c *Client) Acquire(ctx context.Context, dataset string, opts Options) (*Lease, error) {
	if dataset == "" {
		return nil, errors.New("dataset is empty")
	}

	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	ttlMs := opts.TTL.Milliseconds()
	if opts.RenewEvery <= 0 || opts.RenewEvery >= opts.TTL {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = 250 * time.Millisecond
	}
	if opts.WaitJitter < 0 {
		opts.WaitJitter = 0
	}

	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	acquireOnce := func(ctx context.Context) (bool, error) {
		var returnedDataset string
		err := c.db.QueryRow(ctx, tryAcquireSQL, dataset, token, ttlMs).Scan(&returnedDataset)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, err
		}
		return returnedDataset != "", nil
	}

	for {
		ok, err := acquireOnce(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleepWithJitter(ctx, opts.WaitInterval, opts.WaitJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Dataset: dataset,
		Token:   token,
		Context: leaseCtx,
		client:  c,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}

	go l.renewLoop(opts, ttlMs)

	return l, nil
}

// Release drops the lease. Safe to call more than once.
func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.Exec(ctx, releaseSQL, l.Dataset, l.Token)
	return err
}

func (l *Lease) renewLoop(opts Options, ttlMs int64) {
	t := time.NewTicker(opts.RenewEvery)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

func (l *Lease) renewOnce(ttlMs int64) error {
	for attempt := range 3 {
		renewCtx, cancel := context.WithTimeout(l.Context, 15*time.Second)
		var returnedDataset string
		err := l.client.db.QueryRow(renewCtx, renewSQL, l.Dataset, l.Token, ttlMs).Scan(&returnedDataset)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLost
		}
		if attempt == 2 {
			return err
		}
		if err := sleepWithJitter(l.Context, 200*time.Millisecond, 0); err != nil {
			return err
		}
	}
	return ErrLost
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const tryAcquireSQL = `
INSERT INTO dataset_locks (dataset, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (dataset) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE dataset_locks.expires_at < now()
   OR dataset_locks.locked_by = EXCLUDED.locked_by
RETURNING dataset;
`

const renewSQL = `
UPDATE dataset_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE dataset = $1 AND locked_by = $2
RETURNING dataset;
`

const releaseSQL = `
DELETE FROM dataset_locks
WHERE dataset = $1 AND locked_by = $2;
`
