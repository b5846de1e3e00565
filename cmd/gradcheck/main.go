// Command gradcheck verifies every primitive's analytic gradient against
// central finite differences.
//
// Usage:
//
//	go run ./cmd/gradcheck -seed 1 -trials 3 -tol 1e-4 -v [-parallel]
//	go run ./cmd/gradcheck version
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/gradcheck"
	"github.com/born-ml/autograd/internal/parallel"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("gradcheck %s\n", version)
		return
	}

	seed := flag.Uint64("seed", 1, "Seed for inputs and probes")
	trials := flag.Int("trials", 3, "Number of randomized rounds")
	tol := flag.Float64("tol", 1e-4, "Allowed scaled error")
	eps := flag.Float64("eps", 1e-6, "Finite-difference step")
	verbose := flag.Bool("v", false, "Print passing cases too")
	par := flag.Bool("parallel", false, "Split large array kernels across goroutines")
	flag.Parse()

	if *par {
		array.SetParallel(parallel.DefaultConfig())
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	failed, total, err := run(logger, *seed, *trials, gradcheck.Config{Epsilon: *eps, Tolerance: *tol}, *verbose)
	if err != nil {
		logger.Error("gradient check aborted", "err", err)
		os.Exit(2)
	}
	fmt.Printf("\n%d/%d cases passed\n", total-failed, total)
	if failed > 0 {
		os.Exit(1)
	}
}

func run(logger *slog.Logger, seed uint64, trials int, cfg gradcheck.Config, verbose bool) (failed, total int, err error) {
	for trial := range max(trials, 1) {
		s := seed + uint64(trial)
		rng := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
		cfg.Rand = rng

		start := time.Now()
		results, err := gradcheck.Run(gradcheck.Suite(rng), cfg)
		if err != nil {
			return failed, total, err
		}

		trialFailed := 0
		for _, r := range results {
			if !r.Passed {
				trialFailed++
			}
			if verbose || !r.Passed {
				fmt.Println(r)
			}
		}
		logger.Info("trial finished",
			"trial", trial,
			"seed", s,
			"cases", len(results),
			"failed", trialFailed,
			"duration", time.Since(start))

		failed += trialFailed
		total += len(results)
	}
	return failed, total, nil
}
