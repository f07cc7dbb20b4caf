// Command pricegraph loads an orderbook snapshot for one batch, builds the
// price graph, and answers price queries against it.
//
// Examples:
//
//	pricegraph -snapshot orders.bin -batch 5432 -token 7
//	pricegraph -snapshot http://solver:8080/batch/5432 -batch 5432 -market 7/0 -spread 1.5
//	pricegraph -snapshot ws://feed:8546/orders -batch 5432 -pair 0/7 -sell 1000000
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dexmesh/pricegraph/pkg/config"
	"github.com/dexmesh/pricegraph/pkg/pricegraph"
	"github.com/dexmesh/pricegraph/pkg/reporter"
	"github.com/dexmesh/pricegraph/pkg/snapshot"
	"github.com/dexmesh/pricegraph/pkg/types"
)

func main() {
	var (
		snapshotSpec = flag.String("snapshot", "", "snapshot source: file path, http(s):// URL, or ws(s):// URL")
		batch        = flag.Uint("batch", 0, "batch id the snapshot belongs to")
		configPath   = flag.String("config", "", "path to a JSON config file")
		format       = flag.String("format", "text", "output format: text, json, or csv")
		verbose      = flag.Bool("verbose", false, "verbose output and debug logging")
		hops         = flag.Int("hops", -1, "hop bound for path searches, 0 for unbounded (-1 uses the config)")
		spreadCutoff = flag.Float64("spread", 0, "depth cutoff relative to the best price, e.g. 1.5")
		marketSpec   = flag.String("market", "", "market to report depth for, as BASE/QUOTE token ids")
		pairSpec     = flag.String("pair", "", "token pair to query, as BUY/SELL token ids")
		sellAmount   = flag.Float64("sell", 0, "sell amount for the price estimate query")
		limitPrice   = flag.Float64("price", 0, "limit price for the order sizing query")
		token        = flag.Int("token", -1, "token id to report the price spread for")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *hops >= 0 {
		cfg.Engine.Hops = *hops
	}
	if *snapshotSpec == "" {
		*snapshotSpec = cfg.Snapshot.Source
	}
	if *snapshotSpec == "" {
		fmt.Fprintln(os.Stderr, "a snapshot source is required (-snapshot)")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Snapshot.TimeoutSecs)*time.Second)
	defer cancel()

	data, err := snapshot.New(*snapshotSpec, log).Fetch(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("source", *snapshotSpec).Msg("failed to fetch snapshot")
	}

	pg, err := pricegraph.FromBytes(types.BatchID(*batch), data,
		pricegraph.WithParams(cfg.ToOrderbookParams()),
		pricegraph.WithHops(cfg.Engine.Hops),
		pricegraph.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build pricegraph")
	}

	rep := reporter.NewReporter(os.Stdout, reporter.OutputFormat(*format), *verbose)
	ran := false

	if *token >= 0 {
		ran = true
		id := types.TokenID(*token)
		if min, max, ok := pg.TokenPriceSpread(id); ok {
			rep.ReportSpread(id, min, max)
		} else {
			log.Warn().Uint16("token", uint16(id)).Msg("token has no price")
		}
	}

	if *pairSpec != "" {
		pair, err := parsePair(*pairSpec)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -pair")
		}
		if *sellAmount > 0 {
			ran = true
			if price, ok := pg.EstimateLimitPrice(pair, *sellAmount); ok {
				rep.ReportPriceEstimate(pair, *sellAmount, price)
			} else {
				log.Warn().Stringer("pair", pair).Msg("no liquidity for pair")
			}
		}
		if *limitPrice > 0 {
			ran = true
			if order, ok := pg.OrderForLimitPrice(pair, *limitPrice); ok {
				rep.ReportOrder(order)
			} else {
				log.Warn().Stringer("pair", pair).Float64("limit", *limitPrice).
					Msg("no liquidity at this price")
			}
		}
	}

	if *marketSpec != "" {
		ran = true
		market, err := parseMarket(*marketSpec)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -market")
		}
		rep.ReportDepth(pg.TransitiveOrderbook(market, cfg.Engine.Hops, *spreadCutoff))
	}

	if !ran {
		fmt.Fprintln(os.Stderr, "no query requested: pass -token, -market, or -pair with -sell or -price")
		flag.Usage()
		os.Exit(2)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.LoadFromEnv()
		return cfg, cfg.Validate()
	}
	return config.LoadFromFile(path)
}

func parsePair(spec string) (types.TokenPair, error) {
	buy, sell, err := splitTokens(spec)
	if err != nil {
		return types.TokenPair{}, err
	}
	return types.TokenPair{Buy: buy, Sell: sell}, nil
}

func parseMarket(spec string) (types.Market, error) {
	base, quote, err := splitTokens(spec)
	if err != nil {
		return types.Market{}, err
	}
	return types.Market{Base: base, Quote: quote}, nil
}

func splitTokens(spec string) (types.TokenID, types.TokenID, error) {
	parts := strings.Split(spec, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two token ids separated by a slash, got %q", spec)
	}
	first, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid token id %q: %w", parts[0], err)
	}
	second, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid token id %q: %w", parts[1], err)
	}
	return types.TokenID(first), types.TokenID(second), nil
}
