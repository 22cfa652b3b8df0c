package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"StockResearch/internal/collector"
	"StockResearch/internal/notifier"
	"StockResearch/internal/server"
	"StockResearch/internal/strategy"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze one or more tickers and print their signals",
		ArgsUsage: "TICKER [TICKER...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "period",
				Aliases: []string{"p"},
				Usage:   "Lookback period (1mo, 3mo, 6mo, 1y, 2y, 5y)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text or json",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide the progress bar",
			},
		},
		Action: analyzeAction,
	}
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	symbols := cmd.Args().Slice()
	if len(symbols) == 0 {
		return cli.Exit("at least one ticker is required", 2)
	}
	format := cmd.String("format")
	if format != "text" && format != "json" {
		return cli.Exit(fmt.Sprintf("unknown format %q", format), 2)
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	var onDone func(collector.Result)
	if !cmd.Bool("no-progress") {
		bar := progressbar.NewOptions(len(symbols),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("Analyzing (%s)", a.period)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish())
		onDone = func(collector.Result) { bar.Add(1) }
		defer bar.Finish()
	}

	results := a.collector.AnalyzeMany(ctx, symbols, a.period, onDone)

	if format == "json" {
		err = writeJSONResults(os.Stdout, results)
	} else {
		err = writeTextResults(os.Stdout, results)
	}
	if err != nil {
		return err
	}

	if failed := countFailed(results); failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d tickers failed", failed, len(results)), 1)
	}
	return nil
}

func countFailed(results []collector.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

type analyzeOutput struct {
	Symbol string                  `json:"symbol"`
	Error  string                  `json:"error,omitempty"`
	Result *server.SignalsResponse `json:"result,omitempty"`
}

func writeJSONResults(w io.Writer, results []collector.Result) error {
	out := make([]analyzeOutput, len(results))
	for i, r := range results {
		out[i].Symbol = r.Symbol
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		resp := server.NewSignalsResponse(r.Analysis)
		out[i].Result = &resp
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeTextResults prints one block per ticker: a summary line, then the
// signals in display order.
func writeTextResults(w io.Writer, results []collector.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\tERROR\t%v\n", r.Symbol, r.Err)
			continue
		}

		a := r.Analysis
		change := ""
		if c, err := a.Levels.Change().Take(); err == nil {
			change = " (" + notifier.FormatPercent(c) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\tclose %s%s\tbias %+d\n",
			a.Symbol, a.Signals.AsOf.Format("2006-01-02"),
			notifier.FormatPrice(a.Levels.Close), change, strategy.Bias(a.Signals))
		for _, e := range a.Signals.Ordered() {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.Name, e.Label, strings.TrimSuffix(string(e.Category), " Signals"))
		}
		for _, o := range a.Signals.Omitted {
			fmt.Fprintf(tw, "  %s\tinsufficient data\tneeds %d bars, have %d\n", o.Name, o.Required, o.Available)
		}
	}
	return tw.Flush()
}
