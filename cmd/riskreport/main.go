// Package main is the riskreport command: it runs the full analytics suite
// over a historical return series and prints the consolidated report as
// JSON on stdout.
//
// Returns come from a CSV file, one fractional return per line; -prices
// accepts raw prices instead and derives the returns. An optional portfolio
// snapshot (JSON, id to position) adds the stress-scenario sweep.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aristath/riskcore/pkg/formulas"
	"github.com/aristath/riskcore/pkg/logger"
	"github.com/aristath/riskcore/pkg/montecarlo"
	"github.com/aristath/riskcore/pkg/portfolio"
	"github.com/aristath/riskcore/pkg/report"
	"github.com/aristath/riskcore/pkg/stress"
)

type cliConfig struct {
	ReturnsPath   string
	PricesPath    string
	PortfolioPath string
	Value         float64
	RiskFreeRate  float64
	Simulations   int
	Horizon       int
	Seed          uint64
	Pretty        bool
}

func main() {
	cfg := cliConfig{}

	flag.StringVar(&cfg.ReturnsPath, "returns", "", "CSV of fractional per-period returns, one per line")
	flag.StringVar(&cfg.PricesPath, "prices", "", "CSV of prices, one per line (returns are derived)")
	flag.StringVar(&cfg.PortfolioPath, "portfolio", "", "JSON portfolio snapshot (id -> position); adds the stress sweep")
	flag.Float64Var(&cfg.Value, "value", 0, "portfolio value; required unless -portfolio supplies it")
	flag.Float64Var(&cfg.RiskFreeRate, "risk-free", 0, "annual risk-free rate for Sharpe/Sortino")
	flag.IntVar(&cfg.Simulations, "simulations", 10000, "Monte Carlo path count")
	flag.IntVar(&cfg.Horizon, "horizon", 252, "Monte Carlo horizon in trading days")
	flag.Uint64Var(&cfg.Seed, "seed", 0, "fixed Monte Carlo seed (0 uses entropy)")
	flag.BoolVar(&cfg.Pretty, "pretty", false, "human-readable log output")
	flag.Parse()

	// Initialize logger; logs go to stderr so stdout stays valid JSON.
	log := logger.New(logger.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Pretty: cfg.Pretty,
		Writer: os.Stderr,
	})

	if (cfg.ReturnsPath == "") == (cfg.PricesPath == "") {
		fmt.Fprintln(os.Stderr, "error: exactly one of -returns or -prices is required")
		fmt.Fprintln(os.Stderr, "usage: riskreport -returns PATH [-portfolio PATH] [-value N]")
		os.Exit(2)
	}
	if cfg.PortfolioPath == "" && cfg.Value <= 0 {
		fmt.Fprintln(os.Stderr, "error: -value is required when no -portfolio is given")
		os.Exit(2)
	}

	returns, err := loadReturns(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load return series")
	}

	mcCfg := montecarlo.Config{Simulations: cfg.Simulations, Horizon: cfg.Horizon}
	if cfg.Seed != 0 {
		mcCfg.Seed = &cfg.Seed
	}

	builder := report.New(
		report.Config{RiskFreeRate: cfg.RiskFreeRate},
		montecarlo.New(mcCfg, log),
		stress.New(nil, log),
		log,
	)

	var rep *report.Report
	if cfg.PortfolioPath != "" {
		snapshot, perr := loadPortfolio(cfg.PortfolioPath)
		if perr != nil {
			log.Fatal().Err(perr).Msg("Failed to load portfolio snapshot")
		}
		rep, err = builder.GenerateWithStress(returns, nil, snapshot)
	} else {
		rep, err = builder.Generate(returns, nil, cfg.Value)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate report")
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
	fmt.Println(string(out))
}

func loadReturns(cfg cliConfig) ([]float64, error) {
	if cfg.PricesPath != "" {
		prices, err := readSeries(cfg.PricesPath)
		if err != nil {
			return nil, err
		}
		returns := formulas.CalculateReturns(prices)
		if len(returns) == 0 {
			return nil, fmt.Errorf("need at least 2 prices, got %d", len(prices))
		}
		return returns, nil
	}
	return readSeries(cfg.ReturnsPath)
}

// readSeries reads one float per CSV record, tolerating a header row.
func readSeries(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var series []float64
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}

		v, perr := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if perr != nil {
			if first {
				first = false
				continue
			}
			return nil, fmt.Errorf("parse %s: %w", path, perr)
		}
		first = false
		series = append(series, v)
	}
	return series, nil
}

func loadPortfolio(path string) (portfolio.Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p portfolio.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// getEnv retrieves an environment variable value, returning a fallback if
// the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
