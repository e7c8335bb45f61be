// Command perf-regression compares two `go test -bench` outputs and fails
// when a tracked benchmark regressed past the threshold.
//
//	go test -run '^$' -bench . -count 6 ./... > candidate.txt
//	perf-regression -baseline baseline.txt -candidate candidate.txt
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const defaultThreshold = 0.30

// defaultTracked covers the request-path operations.
var defaultTracked = trackedSet{
	"BenchmarkVerifyAccessToken":       {"ns/op", "allocs/op"},
	"BenchmarkRefresh":                 {"ns/op"},
	"BenchmarkSignIn":                  {"ns/op"},
	"BenchmarkRotate":                  {"ns/op", "allocs/op"},
	"BenchmarkRotateReplayRejected":    {"ns/op"},
	"BenchmarkAuthenticate":            {"ns/op", "allocs/op"},
	"BenchmarkAuthenticateRequireRole": {"allocs/op"},
}

// trackedSet maps a benchmark name to the units compared for it.
type trackedSet map[string][]string

// sampleSet holds every sample per benchmark and unit.
type sampleSet map[string]map[string][]float64

type comparison struct {
	Benchmark string
	Unit      string
	Baseline  float64
	Candidate float64
	Delta     float64
}

func main() {
	var (
		baselinePath  string
		candidatePath string
		threshold     float64
		track         string
	)

	flag.StringVar(&baselinePath, "baseline", "", "path to baseline benchmark output")
	flag.StringVar(&candidatePath, "candidate", "", "path to candidate benchmark output")
	flag.Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	flag.StringVar(&track, "track", "", "override tracked benchmarks: Name=unit+unit,Name=unit")
	flag.Parse()

	if baselinePath == "" || candidatePath == "" {
		fmt.Fprintln(os.Stderr, "-baseline and -candidate are required")
		os.Exit(2)
	}
	if threshold < 0 {
		fmt.Fprintln(os.Stderr, "-threshold must be >= 0")
		os.Exit(2)
	}

	tracked := defaultTracked
	if track != "" {
		parsed, err := parseTracked(track)
		if err != nil {
			fmt.Fprintf(os.Stderr, "-track: %v\n", err)
			os.Exit(2)
		}
		tracked = parsed
	}

	baseline, err := parseBenchmarkFile(baselinePath, tracked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse baseline: %v\n", err)
		os.Exit(1)
	}
	candidate, err := parseBenchmarkFile(candidatePath, tracked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse candidate: %v\n", err)
		os.Exit(1)
	}

	results, failures := compare(baseline, candidate, tracked, threshold)

	fmt.Println("perf regression check:")
	fmt.Println("benchmark unit baseline candidate delta")
	for _, r := range results {
		fmt.Printf("%s %s %.3f %.3f %+0.2f%%\n", r.Benchmark, r.Unit, r.Baseline, r.Candidate, r.Delta*100)
	}

	if len(failures) > 0 {
		fmt.Fprintln(os.Stderr, "performance regression threshold exceeded:")
		for _, failure := range failures {
			fmt.Fprintf(os.Stderr, "  - %s\n", failure)
		}
		os.Exit(1)
	}
}

// compare checks candidate medians against baseline medians. Results come
// back sorted by benchmark then unit so output is stable across runs.
func compare(baseline, candidate sampleSet, tracked trackedSet, threshold float64) ([]comparison, []string) {
	names := make([]string, 0, len(tracked))
	for name := range tracked {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		results  []comparison
		failures []string
	)
	for _, name := range names {
		for _, unit := range tracked[name] {
			baseSamples := baseline[name][unit]
			candidateSamples := candidate[name][unit]
			if len(baseSamples) == 0 || len(candidateSamples) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", name, unit))
				continue
			}

			baseMedian := median(baseSamples)
			candidateMedian := median(candidateSamples)

			var delta float64
			switch {
			case baseMedian > 0:
				delta = (candidateMedian - baseMedian) / baseMedian
			case candidateMedian > 0:
				// zero-alloc baseline that now allocates
				failures = append(failures, fmt.Sprintf("%s %s went from 0 to %.0f", name, unit, candidateMedian))
				continue
			}

			results = append(results, comparison{
				Benchmark: name,
				Unit:      unit,
				Baseline:  baseMedian,
				Candidate: candidateMedian,
				Delta:     delta,
			})
			if delta > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", name, unit, delta*100, threshold*100))
			}
		}
	}
	return results, failures
}

func parseTracked(s string) (trackedSet, error) {
	out := trackedSet{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, units, ok := strings.Cut(entry, "=")
		if !ok || name == "" || units == "" {
			return nil, fmt.Errorf("malformed entry %q", entry)
		}
		if !strings.HasPrefix(name, "Benchmark") {
			return nil, fmt.Errorf("%q is not a benchmark name", name)
		}
		out[name] = strings.Split(units, "+")
	}
	if len(out) == 0 {
		return nil, errors.New("no benchmarks listed")
	}
	return out, nil
}

func parseBenchmarkFile(path string, tracked trackedSet) (sampleSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseBenchmarks(file, tracked)
}

func parseBenchmarks(r io.Reader, tracked trackedSet) (sampleSet, error) {
	samples := sampleSet{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Benchmark") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		name := normalizeBenchmarkName(fields[0])
		if _, ok := tracked[name]; !ok {
			continue
		}

		if _, ok := samples[name]; !ok {
			samples[name] = map[string][]float64{}
		}

		// fields[1] is the iteration count; value/unit pairs follow.
		for i := 2; i+1 < len(fields); i += 2 {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			unit := fields[i+1]
			samples[name][unit] = append(samples[name][unit], value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// normalizeBenchmarkName strips the -GOMAXPROCS suffix.
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

	copied := make([]float64, len(values))
	copy(copied, values)
	sort.Float64s(copied)

	mid := len(copied) / 2
	if len(copied)%2 == 1 {
		return copied[mid]
	}
	return (copied[mid-1] + copied[mid]) / 2
}
