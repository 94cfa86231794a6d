package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"skoll/internal/book"
	"skoll/internal/common"
	"skoll/internal/sim"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. CLI Parameter Parsing
	appliers := flag.Int("appliers", 4, "Number of concurrent writer workers")
	readers := flag.Int("readers", 2, "Number of concurrent level-view pollers")
	orders := flag.Int("orders", 10000, "Number of orders to generate")
	priceMin := flag.Float64("price-min", 90.0, "Lower bound of the price band")
	priceMax := flag.Float64("price-max", 110.0, "Upper bound of the price band")
	seed := flag.Int64("seed", 1, "RNG seed for a reproducible stream")
	pretty := flag.Bool("pretty", true, "Human-readable console logging")
	flag.Parse()

	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if *priceMax < *priceMin || *orders < 1 || *appliers < 1 {
		log.Fatal().Msg("invalid parameters: need price-max >= price-min, orders >= 1, appliers >= 1")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Drive one book from the concurrent feed.
	b := book.New()
	feed := sim.New(b, sim.Config{
		Appliers: *appliers,
		Readers:  *readers,
		Orders:   *orders,
		PriceMin: *priceMin,
		PriceMax: *priceMax,
		Seed:     *seed,
	})

	if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("feed failed")
	}
	if err := feed.Verify(); err != nil {
		log.Fatal().Err(err).Msg("book left inconsistent")
	}

	// Final top-of-book summary.
	for _, side := range []common.Side{common.Bid, common.Offer} {
		event := log.Info().
			Stringer("side", side).
			Int("levels", b.Depth(side)).
			Int64("resting", b.Resting(side))

		if best, err := b.BestPrice(side); err == nil {
			total, _ := b.TotalSizeAtLevel(1, side)
			event = event.Float64("best", best).Int64("best_size", total)
		}
		event.Msg("book summary")
	}
}
