package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type envelope struct {
	Data struct {
		Mode     string `json:"mode"`
		Proposal struct {
			Fitness        float64           `json:"fitness"`
			Slots          []json.RawMessage `json:"slots"`
			HardViolations []json.RawMessage `json:"hardViolations"`
		} `json:"proposal"`
	} `json:"data"`
}

type run struct {
	Base     string
	Fitness  float64
	SlotsLen int
	HardLen  int
	Duration time.Duration
	Error    error
}

func main() {
	var (
		payloadPath string
		baseA       string
		baseB       string
		path        string
		timeout     time.Duration
		runsPerBase int
	)

	flag.StringVar(&payloadPath, "payload", "", "path to a GenerateScheduleRequest JSON payload with a pinned seed")
	flag.StringVar(&baseA, "base-a", "http://localhost:8080", "first API base URL")
	flag.StringVar(&baseB, "base-b", "", "second API base URL, compared against base-a (leave empty to only check repeatability within base-a)")
	flag.StringVar(&path, "path", "/schedules/generator", "generation endpoint path")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.IntVar(&runsPerBase, "runs", 2, "number of generation requests to issue per base, to check run-to-run determinism")
	flag.Parse()

	if payloadPath == "" {
		log.Fatalf("-payload is required")
	}
	payload, err := os.ReadFile(payloadPath)
	if err != nil {
		log.Fatalf("read payload: %v", err)
	}

	client := &http.Client{Timeout: timeout}

	bases := []string{baseA}
	if baseB != "" {
		bases = append(bases, baseB)
	}

	var results []run
	for _, base := range bases {
		for i := 0; i < runsPerBase; i++ {
			results = append(results, generate(client, base, path, payload))
		}
	}

	printReport(results)

	if !allDeterministic(results) {
		fmt.Println("determinism check FAILED: fitness/slot counts diverged across runs with the same seed")
		os.Exit(1)
	}
	fmt.Println("determinism check passed: all runs with the same seed produced matching fitness and slot counts")
}

func generate(client *http.Client, base, path string, payload []byte) run {
	r := run{Base: base}
	req, err := http.NewRequest(http.MethodPost, base+path, bytes.NewReader(payload))
	if err != nil {
		r.Error = err
		return r
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	r.Duration = time.Since(start)
	if err != nil {
		r.Error = fmt.Errorf("request failed: %w", err)
		return r
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.Error = fmt.Errorf("read body: %w", err)
		return r
	}
	if resp.StatusCode != http.StatusOK {
		r.Error = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		return r
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		r.Error = fmt.Errorf("decode response: %w", err)
		return r
	}
	r.Fitness = env.Data.Proposal.Fitness
	r.SlotsLen = len(env.Data.Proposal.Slots)
	r.HardLen = len(env.Data.Proposal.HardViolations)
	return r
}

func allDeterministic(results []run) bool {
	var reference *run
	for i := range results {
		res := &results[i]
		if res.Error != nil {
			return false
		}
		if reference == nil {
			reference = res
			continue
		}
		if res.Fitness != reference.Fitness || res.SlotsLen != reference.SlotsLen || res.HardLen != reference.HardLen {
			return false
		}
	}
	return true
}

func printReport(results []run) {
	fmt.Println("Schedule Generation Determinism Report")
	fmt.Println("=======================================")
	for _, r := range results {
		if r.Error != nil {
			fmt.Printf("[ERROR] %s: %v (%s)\n", r.Base, r.Error, r.Duration)
			continue
		}
		fmt.Printf("[OK] %s fitness=%.4f slots=%d hardViolations=%d (%s)\n", r.Base, r.Fitness, r.SlotsLen, r.HardLen, r.Duration)
	}
}
