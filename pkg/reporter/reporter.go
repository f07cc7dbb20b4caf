// Package reporter provides output formatting for price queries and market
// depth reports.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dexmesh/pricegraph/pkg/orderbook"
	"github.com/dexmesh/pricegraph/pkg/pricegraph"
	"github.com/dexmesh/pricegraph/pkg/types"
)

// Reporter renders query results in a chosen format.
type Reporter struct {
	output  io.Writer
	format  OutputFormat
	verbose bool
}

// OutputFormat specifies the output format for reports.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
)

// NewReporter creates a new reporter. A nil output defaults to stdout.
func NewReporter(output io.Writer, format OutputFormat, verbose bool) *Reporter {
	if output == nil {
		output = os.Stdout
	}
	return &Reporter{output: output, format: format, verbose: verbose}
}

// amount renders a float volume or price with stable precision.
func amount(v float64) string {
	return decimal.NewFromFloat(v).Round(8).String()
}

// ReportPriceEstimate reports the effective price for selling an amount.
func (r *Reporter) ReportPriceEstimate(pair types.TokenPair, sellAmount, price float64) {
	switch r.format {
	case FormatJSON:
		r.writeJSON(map[string]any{
			"pair":        pair,
			"sell_amount": sellAmount,
			"price":       price,
		})
	case FormatCSV:
		fmt.Fprintf(r.output, "price,%s,%s,%s\n", pair, amount(sellAmount), amount(price))
	default:
		fmt.Fprintf(r.output, "Selling %s of token %d for token %d at an effective price of %s\n",
			amount(sellAmount), pair.Sell, pair.Buy, amount(price))
	}
}

// ReportOrder reports an aggregate transitive order.
func (r *Reporter) ReportOrder(order orderbook.TransitiveOrder) {
	switch r.format {
	case FormatJSON:
		r.writeJSON(map[string]any{
			"pair": order.Pair,
			"buy":  order.Buy,
			"sell": order.Sell,
		})
	case FormatCSV:
		fmt.Fprintf(r.output, "order,%s,%s,%s\n", order.Pair, amount(order.Buy), amount(order.Sell))
	default:
		fmt.Fprintf(r.output, "Order buys %s of token %d selling %s of token %d (limit price %s)\n",
			amount(order.Buy), order.Pair.Buy, amount(order.Sell), order.Pair.Sell,
			amount(order.LimitPrice()))
	}
}

// ReportSpread reports a token's price range in fee tokens.
func (r *Reporter) ReportSpread(token types.TokenID, min, max float64) {
	switch r.format {
	case FormatJSON:
		r.writeJSON(map[string]any{"token": token, "min": min, "max": max})
	case FormatCSV:
		fmt.Fprintf(r.output, "spread,%d,%s,%s\n", token, amount(min), amount(max))
	default:
		fmt.Fprintf(r.output, "Token %d trades between %s and %s fee tokens\n",
			token, amount(min), amount(max))
	}
}

// ReportDepth reports a market's bid/ask depth curves.
func (r *Reporter) ReportDepth(tob *pricegraph.TransitiveOrderbook) {
	switch r.format {
	case FormatJSON:
		r.writeJSON(tob)
	case FormatCSV:
		for _, ask := range tob.Asks {
			fmt.Fprintf(r.output, "ask,%s,%s,%s\n", tob.Market, amount(ask.Price), amount(ask.Volume))
		}
		for _, bid := range tob.Bids {
			fmt.Fprintf(r.output, "bid,%s,%s,%s\n", tob.Market, amount(bid.Price), amount(bid.Volume))
		}
	default:
		r.depthText(tob)
	}
}

func (r *Reporter) depthText(tob *pricegraph.TransitiveOrderbook) {
	fmt.Fprintf(r.output, "Market %s depth (%d asks, %d bids)\n",
		tob.Market, len(tob.Asks), len(tob.Bids))
	if !r.verbose {
		return
	}
	fmt.Fprintln(r.output, strings.Repeat("-", 44))
	fmt.Fprintf(r.output, "%-6s %18s %18s\n", "side", "price", "volume")
	for _, ask := range tob.Asks {
		fmt.Fprintf(r.output, "%-6s %18s %18s\n", "ask", amount(ask.Price), amount(ask.Volume))
	}
	for _, bid := range tob.Bids {
		fmt.Fprintf(r.output, "%-6s %18s %18s\n", "bid", amount(bid.Price), amount(bid.Volume))
	}
}

func (r *Reporter) writeJSON(v any) {
	enc := json.NewEncoder(r.output)
	if r.verbose {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "reporter: encoding failed: %v\n", err)
	}
}
