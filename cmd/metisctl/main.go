package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	metisapi "metis/pkg/metis"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "objectives":
		return runObjectives(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type usageError string

func (e usageError) Error() string {
	return strings.Join([]string{
		string(e),
		"",
		"usage: metisctl <command> [flags]",
		"",
		"commands:",
		"  run         execute one solver run and record its artifacts",
		"  runs        list recorded runs",
		"  fitness     print a run's best-by-iteration history",
		"  best        print a run's best solution",
		"  objectives  list the registered benchmark objectives",
	}, "\n")
}

func storeFlags(fs *flag.FlagSet) (*string, *string, *string, *string, *bool) {
	storeKind := fs.String("store", "", "store backend: memory or sqlite")
	dbPath := fs.String("db", "", "sqlite database path")
	benchmarksDir := fs.String("benchmarks-dir", "", "run artifacts directory")
	logLevel := fs.String("log-level", "", "minimum log level: debug, info, warn, error")
	quiet := fs.Bool("quiet", false, "suppress console echo")
	return storeKind, dbPath, benchmarksDir, logLevel, quiet
}

func newClient(storeKind, dbPath, benchmarksDir, logLevel string, quiet bool) (*metisapi.Client, error) {
	return metisapi.New(metisapi.Options{
		StoreKind:     storeKind,
		DBPath:        dbPath,
		BenchmarksDir: benchmarksDir,
		LogLevel:      logLevel,
		Quiet:         quiet,
	})
}

// consoleEcho reports whether progress lines should be written to stdout.
func consoleEcho(quiet bool) bool {
	return !quiet && isatty.IsTerminal(os.Stdout.Fd())
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, logLevel, quiet := storeFlags(fs)
	solver := fs.String("solver", "ga", "solver: ga, gwo or mswarm")
	objectiveName := fs.String("objective", "sphere", "objective function name")
	dimensions := fs.Int("dimensions", 0, "search space dimensions (0 = objective default)")
	population := fs.Int("population", 20, "population size (ga, gwo); must be even")
	iterations := fs.Int("iterations", 100, "generations or iterations to run")
	seed := fs.Int64("seed", 0, "random seed (0 = time-based)")
	workers := fs.Int("workers", 0, "ga evaluation workers (0 = hardware parallelism)")
	concurrent := fs.Bool("concurrent", false, "evaluate gwo fitness concurrently")
	numSwarms := fs.Int("swarms", 4, "initial swarm count (mswarm)")
	swarmSize := fs.Int("swarm-size", 20, "particles per swarm (mswarm)")
	recombination := fs.String("recombination", "intermediate", "ga recombination: intermediate or line")
	mutationProb := fs.Float64("mutation-probability", 0.3, "ga geometric mutation parameter")
	recombProb := fs.Float64("recombination-probability", 1.0, "ga uniform blend-coefficient bound")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *logLevel, *quiet)
	if err != nil {
		return err
	}
	defer client.Close()

	started := time.Now()
	summary, err := client.Run(ctx, metisapi.RunRequest{
		Solver:                   *solver,
		Objective:                *objectiveName,
		Dimensions:               *dimensions,
		Population:               *population,
		Iterations:               *iterations,
		Seed:                     *seed,
		Workers:                  *workers,
		Concurrent:               *concurrent,
		NumSwarms:                *numSwarms,
		SwarmSize:                *swarmSize,
		Recombination:            *recombination,
		MutationProbability:      *mutationProb,
		RecombinationProbability: *recombProb,
	})
	if err != nil {
		return err
	}

	if consoleEcho(*quiet) {
		fmt.Printf("run %s finished in %s\n", summary.RunID, time.Since(started).Round(time.Millisecond))
	}
	fmt.Printf("run_id: %s\n", summary.RunID)
	fmt.Printf("artifacts: %s\n", summary.ArtifactsDir)
	fmt.Printf("best_fitness: %v\n", summary.FinalBestFitness)
	fmt.Printf("best_position: %v\n", summary.BestPosition)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, logLevel, quiet := storeFlags(fs)
	limit := fs.Int("limit", 20, "maximum runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *logLevel, *quiet)
	if err != nil {
		return err
	}
	defer client.Close()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, r := range runs {
		created := r.CreatedAtUTC
		if t, err := time.Parse(time.RFC3339Nano, r.CreatedAtUTC); err == nil {
			created = humanize.Time(t)
		}
		fmt.Printf("%s  solver=%s objective=%s dims=%d best=%v  %s\n",
			r.ID, r.Solver, r.Objective, r.Dimensions, r.BestFitness, created)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, logLevel, quiet := storeFlags(fs)
	runID := fs.String("run", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *logLevel, *quiet)
	if err != nil {
		return err
	}
	defer client.Close()

	history, err := client.FitnessHistory(ctx, *runID, *latest)
	if err != nil {
		return err
	}
	for i, best := range history {
		fmt.Printf("%d\t%v\n", i+1, best)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	storeKind, dbPath, benchmarksDir, logLevel, quiet := storeFlags(fs)
	runID := fs.String("run", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *benchmarksDir, *logLevel, *quiet)
	if err != nil {
		return err
	}
	defer client.Close()

	best, err := client.BestSolution(ctx, *runID, *latest)
	if err != nil {
		return err
	}
	fmt.Printf("run_id: %s\n", best.RunID)
	fmt.Printf("fitness: %v\n", best.Fitness)
	fmt.Printf("position: %v\n", best.Position)
	return nil
}

func runObjectives(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("objectives", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("", "", "", "", false)
	if err != nil {
		return err
	}
	defer client.Close()

	for _, o := range client.Objectives() {
		direction := "maximize"
		if o.Minimize {
			direction = "minimize"
		}
		fmt.Printf("%-12s %s (%s, default %dd)\n", o.Name, o.Description, direction, o.Dimensions)
	}
	return nil
}
