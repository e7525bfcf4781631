package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const baselineOutput = `goos: linux
goarch: amd64
pkg: github.com/MrEthical07/pinlock/credential
BenchmarkVerify-8   	      20	  51000000 ns/op	    4200 B/op	      60 allocs/op
BenchmarkVerify-8   	      20	  50000000 ns/op	    4200 B/op	      60 allocs/op
BenchmarkVerify-8   	      20	  52000000 ns/op	    4200 B/op	      60 allocs/op
BenchmarkRender-8   	  100000	     10000 ns/op	    9000 B/op	       3 allocs/op
PASS
`

func TestParseBenchmarks(t *testing.T) {
	samples, err := parseBenchmarks(strings.NewReader(baselineOutput))
	if err != nil {
		t.Fatalf("parseBenchmarks: %v", err)
	}
	if got := len(samples["BenchmarkVerify"]["ns/op"]); got != 3 {
		t.Fatalf("expected 3 verify samples, got %d", got)
	}
	if got := samples["BenchmarkRender"]["allocs/op"]; len(got) != 1 || got[0] != 3 {
		t.Fatalf("unexpected render allocs %v", got)
	}
	if _, ok := samples["pkg:"]; ok {
		t.Fatal("header lines must be ignored")
	}
}

func TestNormalizeBenchmarkName(t *testing.T) {
	cases := map[string]string{
		"BenchmarkVerify-8":    "BenchmarkVerify",
		"BenchmarkVerify":      "BenchmarkVerify",
		"BenchmarkDerive-slow": "BenchmarkDerive-slow",
	}
	for in, want := range cases {
		if got := normalizeBenchmarkName(in); got != want {
			t.Fatalf("normalizeBenchmarkName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Fatalf("odd median = %v", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Fatalf("even median = %v", got)
	}
	if got := median(nil); got != 0 {
		t.Fatalf("empty median = %v", got)
	}
}

func TestRunDetectsRegression(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.txt")
	cand := filepath.Join(dir, "cand.txt")
	slower := strings.ReplaceAll(baselineOutput, "  10000 ns/op", "  20000 ns/op")
	if err := os.WriteFile(base, []byte(baselineOutput), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cand, []byte(slower), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-baseline", base, "-candidate", base}, &stdout, &stderr); code != 0 {
		t.Fatalf("identical inputs should pass, stderr=%q", stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := run([]string{"-baseline", base, "-candidate", cand}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected regression exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "BenchmarkRender ns/op regressed") {
		t.Fatalf("unexpected failure output %q", stderr.String())
	}
}

func TestRunRequiresPaths(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected usage exit 2, got %d", code)
	}
}
