// Package main provides a performance benchmarking tool for the Delphi CLI.
// It seeds projects of growing team sizes in a scratch SQLite store, then times
// the submit, round and report commands. Each command is run several times; the
// first successful run is treated as cold and the rest are averaged as warm.
// Results are written to a CSV file for performance tracking.
//
// Prerequisites:
// - delphi binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the scratch SQLite databases
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the cold time and warm average of one command at one team size.
type BenchmarkResult struct {
	TeamSize int
	Command  string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Runs        int
	ModuleCount int
	TeamSizes   []int
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     time.Minute,
		Runs:        5,
		ModuleCount: 20,
		TeamSizes:   []int{5, 25, 100},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the delphi binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("delphi"); err != nil {
		return fmt.Errorf("delphi binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// runBenchmarks seeds one store per team size and times each command against it
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: team sizes %v, %d modules, %d runs, %v timeout\n",
		config.TeamSizes, config.ModuleCount, config.Runs, config.Timeout)

	for _, size := range config.TeamSizes {
		fmt.Printf("Benchmarking team of %d\n", size)

		env := storeEnv(config, size)
		if err := seedProject(config, env, size); err != nil {
			fmt.Printf("  Seeding failed: %v\n", err)
			continue
		}

		suites := []struct {
			command string
			args    func(run int) []string
		}{
			{"submit", func(run int) []string {
				return []string{"submit", "-e", fmt.Sprintf("bench-%d", run), "-r", "1", "--estimates", estimates(config.ModuleCount)}
			}},
			{"round", func(int) []string { return []string{"round", "3"} }},
			{"report", func(int) []string { return []string{"report", "--output", "json"} }},
		}
		for _, s := range suites {
			results = append(results, runBenchmarkSuite(config, env, size, s.command, s.args))
		}
	}

	return results
}

// storeEnv returns the DELPHI_* variables pointing at the scratch store of a team size
func storeEnv(config BenchmarkConfig, size int) []string {
	dbPath := filepath.Join(config.WorkDir, fmt.Sprintf("delphi_bench_%d.db", size))
	_ = os.Remove(dbPath)
	return append(os.Environ(),
		"DELPHI_PROJECT=benchmark",
		"DELPHI_STORE_BACKEND=sqlite",
		"DELPHI_STORE_DB_CONNECT="+dbPath,
		"DELPHI_HISTORY_BACKEND=none",
	)
}

// seedProject adds the modules and submits all three rounds for every estimator
func seedProject(config BenchmarkConfig, env []string, size int) error {
	for i := 1; i <= config.ModuleCount; i++ {
		if err := runDelphi(config, env, "module", "add", fmt.Sprintf("Module %d", i)); err != nil {
			return err
		}
	}
	for e := 1; e <= size; e++ {
		for r := 1; r <= 3; r++ {
			args := []string{"submit", "-e", fmt.Sprintf("estimator-%d", e), "-r", strconv.Itoa(r), "--estimates", estimates(config.ModuleCount)}
			if err := runDelphi(config, env, args...); err != nil {
				return err
			}
		}
	}
	return nil
}

// estimates returns n random estimates as a comma-separated list
func estimates(n int) string {
	values := make([]string, n)
	for i := range values {
		values[i] = strconv.Itoa(1 + rand.IntN(13))
	}
	return strings.Join(values, ",")
}

// runDelphi runs one delphi command within the timeout
func runDelphi(config BenchmarkConfig, env []string, args ...string) error {
	cmd := exec.Command("delphi", args...)
	cmd.Env = env

	done := make(chan error, 1)
	var output []byte
	go func() {
		var err error
		output, err = cmd.CombinedOutput()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("delphi %s: %w\nOutput: %s", strings.Join(args, " "), err, string(output))
		}
		return nil
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		return fmt.Errorf("delphi %s: timed out", strings.Join(args, " "))
	}
}

// runBenchmarkSuite times a command several times and returns cold and warm averages
func runBenchmarkSuite(config BenchmarkConfig, env []string, size int, command string, args func(run int) []string) BenchmarkResult {
	fmt.Printf("  Running %s (%d runs)\n", command, config.Runs)

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()
		if err := runDelphi(config, env, args(run)...); err != nil {
			fmt.Printf("  Run %d failed: %v\n", run, err)
			continue
		}
		times = append(times, time.Since(start).Seconds())
	}

	coldTime, warmAvg := "FAILED", "FAILED"
	if len(times) > 0 {
		coldTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTime, warmAvg)
	return BenchmarkResult{TeamSize: size, Command: command, ColdTime: coldTime, WarmTime: warmAvg}
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("delphi_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"team_size", "cmd", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{strconv.Itoa(result.TeamSize), result.Command, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"submit", "round", "report"} {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  team of %-4d: Cold: %s, Warm: %s\n", result.TeamSize, result.ColdTime, result.WarmTime)
			}
		}
	}
}
