// Command perf-regression compares two `go test -bench` outputs and fails
// when a tracked pinlock benchmark slows down past the threshold.
//
//	go test -run '^$' -bench . -count 5 ./pin ./credential ./metrics/... > new.txt
//	perf-regression -baseline old.txt -candidate new.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const defaultThreshold = 0.30

// trackedMetrics lists the units checked per benchmark. Derivation cost is
// expected to move only when parameters change, so allocations are ignored
// there.
var trackedMetrics = map[string][]string{
	"BenchmarkDerivePBKDF2":   {"ns/op"},
	"BenchmarkDeriveArgon2id": {"ns/op"},
	"BenchmarkVerify":         {"ns/op", "allocs/op"},
	"BenchmarkRender":         {"ns/op", "allocs/op"},
}

type sampleSet map[string]map[string][]float64

type comparison struct {
	benchmark string
	unit      string
	baseline  float64
	candidate float64
	delta     float64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("perf-regression", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baselinePath := fs.String("baseline", "", "path to baseline benchmark output")
	candidatePath := fs.String("candidate", "", "path to candidate benchmark output")
	threshold := fs.Float64("threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *baselinePath == "" || *candidatePath == "" {
		fmt.Fprintln(stderr, "-baseline and -candidate are required")
		return 2
	}
	if *threshold < 0 {
		fmt.Fprintln(stderr, "-threshold must be >= 0")
		return 2
	}

	baseline, err := parseBenchmarkFile(*baselinePath)
	if err != nil {
		fmt.Fprintf(stderr, "parse baseline: %v\n", err)
		return 1
	}
	candidate, err := parseBenchmarkFile(*candidatePath)
	if err != nil {
		fmt.Fprintf(stderr, "parse candidate: %v\n", err)
		return 1
	}

	results, failures := compare(baseline, candidate, *threshold)
	fmt.Fprintln(stdout, "benchmark unit baseline candidate delta")
	for _, r := range results {
		fmt.Fprintf(stdout, "%s %s %.3f %.3f %+0.2f%%\n", r.benchmark, r.unit, r.baseline, r.candidate, r.delta*100)
	}

	if len(failures) > 0 {
		fmt.Fprintln(stderr, "performance regression threshold exceeded:")
		for _, f := range failures {
			fmt.Fprintf(stderr, "  - %s\n", f)
		}
		return 1
	}
	return 0
}

// compare walks the tracked benchmarks in name order. A benchmark absent
// from both files is skipped; one present in only one file is a failure.
func compare(baseline, candidate sampleSet, threshold float64) ([]comparison, []string) {
	names := make([]string, 0, len(trackedMetrics))
	for name := range trackedMetrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []comparison
	var failures []string
	for _, name := range names {
		if baseline[name] == nil && candidate[name] == nil {
			continue
		}
		for _, unit := range trackedMetrics[name] {
			base, cand := baseline[name][unit], candidate[name][unit]
			if len(base) == 0 || len(cand) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", name, unit))
				continue
			}

			b, c := median(base), median(cand)
			if b <= 0 {
				if unit == "allocs/op" && c == 0 {
					continue
				}
				failures = append(failures, fmt.Sprintf("invalid baseline median for %s %s", name, unit))
				continue
			}

			delta := (c - b) / b
			results = append(results, comparison{benchmark: name, unit: unit, baseline: b, candidate: c, delta: delta})
			if delta > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", name, unit, delta*100, threshold*100))
			}
		}
	}
	return results, failures
}

func parseBenchmarkFile(path string) (sampleSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseBenchmarks(file)
}

func parseBenchmarks(r io.Reader) (sampleSet, error) {
	samples := sampleSet{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
			continue
		}

		name := normalizeBenchmarkName(fields[0])
		if _, ok := trackedMetrics[name]; !ok {
			continue
		}
		if samples[name] == nil {
			samples[name] = map[string][]float64{}
		}

		// fields[1] is the iteration count; value/unit pairs follow.
		for i := 2; i+1 < len(fields); i += 2 {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			samples[name][fields[i+1]] = append(samples[name][fields[i+1]], value)
		}
	}
	return samples, scanner.Err()
}

// normalizeBenchmarkName drops the -GOMAXPROCS suffix.
func normalizeBenchmarkName(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
