// Package sim drives one OrderBook from concurrent appliers and readers.
// It exists to exercise the book's eventual-consistency contract under
// real contention: readers poll level views while a pool of workers
// applies a generated insert/cancel/amend stream, and the three internal
// structures are cross-checked once the stream drains.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"skoll/internal/book"
	"skoll/internal/common"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

type Config struct {
	Appliers int     // writer pool size
	Readers  int     // concurrent level-view pollers
	Orders   int     // inserts to generate
	PriceMin float64 // price band, inclusive
	PriceMax float64
	Seed     int64 // rng seed, fixed for reproducible runs
}

// Feed applies a generated order stream to one book.
type Feed struct {
	book *book.OrderBook
	cfg  Config

	applied  atomic.Int64
	rejected atomic.Int64
}

func New(b *book.OrderBook, cfg Config) *Feed {
	return &Feed{book: b, cfg: cfg}
}

// Applied is the number of mutations the book accepted.
func (f *Feed) Applied() int64 { return f.applied.Load() }

// Rejected is the number of cancels/amends that overtook their insert.
func (f *Feed) Rejected() int64 { return f.rejected.Load() }

// Run generates the event stream, applies it through the worker pool and
// keeps the readers polling until the appliers drain. Returns the first
// fatal error, if any; overtaken cancels/amends are not fatal.
func (f *Feed) Run(ctx context.Context) error {
	logger := log.With().Str("session", uuid.NewString()).Logger()
	t, _ := tomb.WithContext(ctx)

	pool := newWorkerPool(f.cfg.Appliers)
	pool.Setup(t, f.apply)

	// Readers poll until the last applier drains.
	drained := make(chan struct{})
	t.Go(func() error {
		pool.Wait()
		close(drained)
		return nil
	})
	for r := 0; r < f.cfg.Readers; r++ {
		t.Go(func() error {
			return f.reader(drained)
		})
	}

	t.Go(func() error {
		defer pool.Close()
		return f.generate(t, pool, logger)
	})

	err := t.Wait()
	logger.Info().
		Int64("applied", f.Applied()).
		Int64("rejected", f.Rejected()).
		Err(err).
		Msg("feed finished")
	return err
}

// generate schedules cfg.Orders inserts with a trailing cancel or amend
// for roughly two thirds of them. Event shapes are deterministic per
// seed; interleaving is up to the pool.
func (f *Feed) generate(t *tomb.Tomb, pool *workerPool, logger zerolog.Logger) error {
	rng := rand.New(rand.NewSource(f.cfg.Seed))
	band := f.cfg.PriceMax - f.cfg.PriceMin

	logger.Info().Int("orders", f.cfg.Orders).Msg("generating order stream")
	for i := 0; i < f.cfg.Orders; i++ {
		side := common.Bid
		if rng.Intn(2) == 1 {
			side = common.Offer
		}
		order := common.Order{
			ID:    int64(i + 1),
			Price: math.Round((f.cfg.PriceMin+rng.Float64()*band)*100) / 100,
			Side:  side,
			Size:  1 + rng.Int63n(100),
		}
		if !pool.AddTask(t, Event{Kind: insertEvent, Order: order}) {
			return nil
		}
		switch rng.Intn(3) {
		case 0:
			if !pool.AddTask(t, Event{Kind: cancelEvent, Order: order}) {
				return nil
			}
		case 1:
			if !pool.AddTask(t, Event{Kind: amendEvent, Order: order, Size: 1 + rng.Int63n(100)}) {
				return nil
			}
		}
	}
	return nil
}

func (f *Feed) apply(t *tomb.Tomb, event Event) error {
	var err error
	switch event.Kind {
	case insertEvent:
		order := event.Order
		err = f.book.Insert(&order)
	case cancelEvent:
		err = f.book.Cancel(event.Order.ID)
	case amendEvent:
		err = f.book.AmendSize(event.Order.ID, event.Size)
	}
	if err != nil {
		// A cancel or amend racing ahead of its insert is the documented
		// consistency window, not a failure.
		if errors.Is(err, book.ErrUnknownOrder) {
			f.rejected.Add(1)
			return nil
		}
		return err
	}
	f.applied.Add(1)
	return nil
}

// reader polls level views on both sides until the appliers drain. Any
// error beyond an out-of-range level on a momentarily empty side is
// fatal to the run.
func (f *Feed) reader(drained <-chan struct{}) error {
	for {
		select {
		case <-drained:
			return nil
		default:
		}
		for _, side := range []common.Side{common.Bid, common.Offer} {
			if _, err := f.book.AllOrders(side); err != nil {
				return err
			}
			if _, err := f.book.BestPrice(side); err != nil &&
				!errors.Is(err, book.ErrLevelOutOfRange) {
				return err
			}
		}
		time.Sleep(time.Millisecond)
	}
}

// Verify cross-checks the book's three structures at quiescence: every
// level identifier resolves to a store entry filed under the same side
// and price, no level is empty, and the store holds nothing the lookups
// cannot reach.
func (f *Feed) Verify() error {
	orders := f.book.Orders()

	reachable := 0
	for _, side := range []common.Side{common.Bid, common.Offer} {
		levels, err := f.book.Levels(side)
		if err != nil {
			return err
		}
		for _, level := range levels {
			if len(level.IDs) == 0 {
				return fmt.Errorf("empty %v level at %f", side, level.Price)
			}
			for _, id := range level.IDs {
				order, ok := orders[id]
				if !ok {
					return fmt.Errorf("level id %d has no store entry", id)
				}
				if order.Side != side || order.Price != level.Price {
					return fmt.Errorf("order %d filed under wrong level (%v %f)", id, side, level.Price)
				}
				reachable++
			}
		}
	}
	if reachable != len(orders) {
		return fmt.Errorf("store holds %d orders but lookups reach %d", len(orders), reachable)
	}
	return nil
}
