package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/arashi-labs/weft-scheduler/internal/scheduler"
)

func main() {
	var (
		inFile      = "fixture.json"
		population  = 80
		generations = 300
		tournamentK = 3
		crossover   = 0.9
		mutation    = 0.05
		elitism     = 0.08
		workers     = 4
		stagnation  = 0
		seed        int64
		useSeed     bool
		wallClockMs int64
		outFile     string
	)

	flag.StringVar(&inFile, "in", inFile, "path to a JSON SchedulingInput fixture")
	flag.StringVar(&outFile, "out", outFile, "optional path to write the resulting genes as JSON")
	flag.IntVar(&population, "population", population, "population size")
	flag.IntVar(&generations, "generations", generations, "max generations")
	flag.IntVar(&tournamentK, "tournament-k", tournamentK, "tournament selection size")
	flag.Float64Var(&crossover, "crossover-rate", crossover, "crossover probability")
	flag.Float64Var(&mutation, "mutation-rate", mutation, "mutation probability")
	flag.Float64Var(&elitism, "elitism-fraction", elitism, "fraction of the population carried over unchanged")
	flag.IntVar(&workers, "workers", workers, "number of parallel fitness evaluators")
	flag.IntVar(&stagnation, "stagnation-limit", stagnation, "stop early after this many generations without improvement (0 disables)")
	flag.Int64Var(&seed, "seed", seed, "RNG seed, for reproducible runs")
	flag.BoolVar(&useSeed, "use-seed", useSeed, "pin the RNG seed instead of drawing one from the clock")
	flag.Int64Var(&wallClockMs, "wall-clock-budget-ms", wallClockMs, "abort the run after this many milliseconds (0 disables)")
	flag.Parse()

	log.SetFlags(log.Ltime)

	raw, err := os.ReadFile(inFile)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}
	var input scheduler.SchedulingInput
	if err := json.Unmarshal(raw, &input); err != nil {
		log.Fatalf("decode fixture: %v", err)
	}

	params := scheduler.DefaultParams()
	params.PopulationSize = population
	params.Generations = generations
	params.TournamentK = tournamentK
	params.CrossoverRate = crossover
	params.MutationRate = mutation
	params.ElitismFraction = elitism
	params.Workers = workers
	params.StagnationLimit = stagnation
	if useSeed {
		params.Seed = &seed
	}
	if wallClockMs > 0 {
		params.WallClockBudgetMs = &wallClockMs
	}

	ctx := context.Background()
	start := time.Now()
	result, err := scheduler.Run(ctx, input, params)
	elapsed := time.Since(start)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	log.Printf("fitness=%.4f generations=%d cancelled=%t elapsed=%s", result.Fitness, result.GenerationsExecuted, result.Cancelled, elapsed)
	log.Printf("hard violations: %v", result.HardBreakdown)
	log.Printf("soft penalties: %v", result.SoftBreakdown)

	if outFile != "" {
		out, err := json.MarshalIndent(result.Genes, "", "  ")
		if err != nil {
			log.Fatalf("encode result: %v", err)
		}
		if err := os.WriteFile(outFile, out, 0o644); err != nil {
			log.Fatalf("write result: %v", err)
		}
	}
}
