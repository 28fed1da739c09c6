package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-complexity/pkg/metrics"
	"github.com/l3aro/go-complexity/pkg/report"
)

const fixture = `
int simple_function() {
    int x = 5;
    int y = 10;
    return x + y;
}

int function_with_if(int x) {
    if (x > 0) {
        return 1;
    } else {
        return 0;
    }
}

int complex_function(int x, int y) {
    if (x > 0) {
        if (y > 0) {
            return 1;
        } else {
            return 2;
        }
    } else {
        if (y < 0) {
            return 3;
        } else {
            return 4;
        }
    }
}

int factorial(int n) {
    if (n <= 1) {
        return 1;
    }
    return n * factorial(n - 1);
}
`

func entryFor(t *testing.T, file report.File, name string) report.Entry {
	t.Helper()
	for _, e := range file.Entries {
		if e.Function == name {
			return e
		}
	}
	t.Fatalf("no entry for %s", name)
	return report.Entry{}
}

func TestAnalyzeSource_Fixture(t *testing.T) {
	a := New(Options{})
	file, err := a.AnalyzeSource(context.Background(), "fixture.c", fixture)
	require.NoError(t, err)
	require.Len(t, file.Entries, 4)

	tests := []struct {
		name       string
		cyclomatic int
		depth      int
		recursive  bool
	}{
		{"simple_function", 1, 0, false},
		{"function_with_if", 2, 1, false},
		{"complex_function", 4, 2, false},
		{"factorial", 2, 1, true},
	}
	for _, tt := range tests {
		e := entryFor(t, file, tt.name)
		assert.Equal(t, report.KindFunction, e.Kind, tt.name)
		require.NotNil(t, e.Metrics, tt.name)
		assert.Equal(t, tt.cyclomatic, e.Metrics.Cyclomatic, tt.name)
		assert.Equal(t, tt.depth, e.Metrics.MaxNestingDepth, tt.name)
		assert.Equal(t, tt.recursive, e.Metrics.Recursive, tt.name)
	}
}

func TestAnalyzeFile_SampleC(t *testing.T) {
	a := New(Options{})
	path := filepath.Join("..", "..", "testdata", "c", "sample.c")
	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	require.Empty(t, file.ReadError)
	require.Len(t, file.Entries, 4)

	tests := []struct {
		name       string
		cyclomatic int
		recursive  bool
	}{
		{"simple_function", 1, false},
		{"function_with_if", 2, false},
		{"complex_function", 4, false},
		{"factorial", 2, true},
	}
	for _, tt := range tests {
		e := entryFor(t, file, tt.name)
		require.NotNil(t, e.Metrics, tt.name)
		assert.Equal(t, tt.cyclomatic, e.Metrics.Cyclomatic, tt.name)
		assert.Equal(t, tt.recursive, e.Metrics.Recursive, tt.name)
	}
}

func TestAnalyzeFile_SampleCpp(t *testing.T) {
	path := filepath.Join("..", "..", "testdata", "cpp", "sample.cpp")

	a := New(Options{})
	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	require.Empty(t, file.ReadError)
	require.Len(t, file.Entries, 5)

	assert.Equal(t, 1, entryFor(t, file, "simpleFunction").Metrics.Cyclomatic)
	assert.Equal(t, 2, entryFor(t, file, "functionWithIf").Metrics.Cyclomatic)
	assert.Equal(t, 4, entryFor(t, file, "complexFunction").Metrics.Cyclomatic)
	assert.Equal(t, 1, entryFor(t, file, "Calculator::add").Metrics.Cyclomatic)
	assert.Equal(t, 2, entryFor(t, file, "Calculator::multiply").Metrics.Cyclomatic)

	counting := New(Options{Metrics: metrics.Options{CountShortCircuit: true}})
	file, err = counting.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, entryFor(t, file, "Calculator::multiply").Metrics.Cyclomatic)
}

func TestAnalyzeSource_ErrorContainment(t *testing.T) {
	src := `
int good_one(int x) {
    return x + 1;
}

int broken(int x { return 0; }

int good_two(int x) {
    if (x) {
        return 1;
    }
    return 0;
}
`
	a := New(Options{})
	file, err := a.AnalyzeSource(context.Background(), "mixed.c", src)
	require.NoError(t, err)
	require.Len(t, file.Entries, 3)

	one := entryFor(t, file, "good_one")
	assert.Equal(t, report.KindFunction, one.Kind)
	assert.Equal(t, 0, one.Index)

	bad := entryFor(t, file, "broken")
	assert.Equal(t, report.KindExtraction, bad.Kind)
	assert.Equal(t, 1, bad.Index)
	assert.Contains(t, bad.Error, "parameter list")

	two := entryFor(t, file, "good_two")
	assert.Equal(t, report.KindFunction, two.Kind)
	assert.Equal(t, 2, two.Index)
	assert.Equal(t, 2, two.Metrics.Cyclomatic)
}

func TestAnalyzeSource_MalformedBody(t *testing.T) {
	src := `
void broken_flow() {
    else;
}
`
	a := New(Options{})
	file, err := a.AnalyzeSource(context.Background(), "bad.c", src)
	require.NoError(t, err)
	require.Len(t, file.Entries, 1)

	e := file.Entries[0]
	assert.Equal(t, report.KindMalformed, e.Kind)
	assert.Contains(t, e.Error, "else without matching if")
	assert.Nil(t, e.Metrics)
}

func TestAnalyzeSource_Anomalies(t *testing.T) {
	src := "int f() { return 1; }\nchar *s = \"unterminated;\n"
	a := New(Options{})
	file, err := a.AnalyzeSource(context.Background(), "odd.c", src)
	require.NoError(t, err)

	require.Len(t, file.Anomalies, 1)
	assert.Contains(t, file.Anomalies[0].Message, "unterminated")

	e := entryFor(t, file, "f")
	assert.Equal(t, report.KindFunction, e.Kind)
}

func TestAnalyzeSource_ShortCircuitOption(t *testing.T) {
	src := `
int multiply(int x, int y) {
    if (x == 0 || y == 0) {
        return 0;
    }
    return x * y;
}
`
	plain := New(Options{})
	file, err := plain.AnalyzeSource(context.Background(), "m.c", src)
	require.NoError(t, err)
	assert.Equal(t, 2, entryFor(t, file, "multiply").Metrics.Cyclomatic)

	counting := New(Options{Metrics: metrics.Options{CountShortCircuit: true}})
	file, err = counting.AnalyzeSource(context.Background(), "m.c", src)
	require.NoError(t, err)
	assert.Equal(t, 3, entryFor(t, file, "multiply").Metrics.Cyclomatic)
}

func TestAnalyzeSource_DeterministicAcrossWorkerCounts(t *testing.T) {
	serial := New(Options{Jobs: 1})
	parallel := New(Options{Jobs: 8})

	a, err := serial.AnalyzeSource(context.Background(), "fixture.c", fixture)
	require.NoError(t, err)
	b, err := parallel.AnalyzeSource(context.Background(), "fixture.c", fixture)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRun_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.c")
	require.NoError(t, os.WriteFile(good, []byte(fixture), 0o644))
	empty := filepath.Join(dir, "empty.c")
	require.NoError(t, os.WriteFile(empty, []byte("// nothing here\n"), 0o644))
	missing := filepath.Join(dir, "missing.c")

	a := New(Options{Thresholds: report.Thresholds{MaxComplexity: 3}})
	rep, err := a.Run(context.Background(), []string{good, missing, empty})
	require.NoError(t, err)

	require.Len(t, rep.Files, 3)
	assert.Equal(t, empty, rep.Files[0].Path)
	assert.Equal(t, good, rep.Files[1].Path)
	assert.Equal(t, missing, rep.Files[2].Path)
	assert.NotEmpty(t, rep.Files[2].ReadError)

	assert.Equal(t, 4, rep.Summary.Functions)
	assert.Equal(t, 1, rep.Summary.Errors)
	assert.Equal(t, 4, rep.Summary.MaxComplexity)
	assert.Equal(t, "complex_function", rep.Summary.MaxFunction)

	require.Len(t, rep.Violations, 1)
	assert.Equal(t, "complex_function", rep.Violations[0].Function)
}

func TestRun_Canceled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(Options{})
	_, err := a.Run(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGraphs(t *testing.T) {
	a := New(Options{})
	graphs, errs := a.Graphs(fixture)
	assert.Empty(t, errs)
	require.Len(t, graphs, 4)
	assert.Equal(t, "simple_function", graphs[0].FunctionName)
	assert.True(t, graphs[3].Recursive)
}
