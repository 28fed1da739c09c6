package cfg

import (
	"errors"
	"reflect"
	"testing"

	"github.com/l3aro/go-complexity/pkg/function"
	"github.com/l3aro/go-complexity/pkg/token"
)

func buildFromSource(t *testing.T, src, name string) (*Graph, error) {
	t.Helper()
	toks, _ := token.Tokenize(src)
	units, errs := function.Extract(src, toks)
	if len(errs) != 0 {
		t.Fatalf("extraction errors: %v", errs)
	}
	for i := range units {
		if units[i].Name == name || units[i].Qualified == name {
			return Build(&units[i])
		}
	}
	t.Fatalf("function %s not found", name)
	return nil, nil
}

func mustBuild(t *testing.T, src, name string) *Graph {
	t.Helper()
	g, err := buildFromSource(t, src, name)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func countEdges(g *Graph, edgeType EdgeType) int {
	n := 0
	for _, e := range g.Edges {
		if e.Type == edgeType {
			n++
		}
	}
	return n
}

func TestBuildLinearBody(t *testing.T) {
	g := mustBuild(t, `
int simple_function() {
    int x = 5;
    int y = 10;
    return x + y;
}
`, "simple_function")

	if len(g.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(g.Blocks))
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(g.Edges))
	}
	if g.Blocks[0].Type != BlockTypeEntry {
		t.Errorf("expected entry block first, got %s", g.Blocks[0].Type)
	}
	if g.Blocks[0].ID != g.EntryID {
		t.Errorf("entry id mismatch: %s vs %s", g.Blocks[0].ID, g.EntryID)
	}
	last := g.Blocks[len(g.Blocks)-1]
	if last.Type != BlockTypeExit || last.ID != g.ExitID {
		t.Errorf("expected exit block last, got %s (%s)", last.ID, last.Type)
	}
	if g.MaxDepth != 0 {
		t.Errorf("expected depth 0, got %d", g.MaxDepth)
	}
	if g.Recursive {
		t.Error("straight line code must not be recursive")
	}
	// Statement text keeps the original spacing.
	found := false
	for _, s := range g.Blocks[0].Statements {
		if s == "int x = 5" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected statement text in entry block, got %v", g.Blocks[0].Statements)
	}
}

func TestBuildIfElseBothReturn(t *testing.T) {
	g := mustBuild(t, `
int function_with_if(int x) {
    if (x > 0) {
        return 1;
    } else {
        return 0;
    }
}
`, "function_with_if")

	if len(g.Blocks) != 7 {
		t.Fatalf("expected 7 blocks, got %d", len(g.Blocks))
	}
	if len(g.Edges) != 7 {
		t.Fatalf("expected 7 edges, got %d", len(g.Edges))
	}
	// Both arms return, so no merge block may exist.
	for _, blk := range g.Blocks {
		if blk.Type == BlockTypeMerge {
			t.Errorf("unexpected merge block %s", blk.ID)
		}
	}
	if countEdges(g, EdgeTypeTrue) != 1 || countEdges(g, EdgeTypeFalse) != 1 {
		t.Error("expected one true and one false edge")
	}
	exit := g.BlockByID(g.ExitID)
	if len(exit.Predecessors) != 2 {
		t.Errorf("expected 2 exit predecessors, got %v", exit.Predecessors)
	}
	if g.MaxDepth != 1 {
		t.Errorf("expected depth 1, got %d", g.MaxDepth)
	}
}

func TestBuildIfWithoutElse(t *testing.T) {
	g := mustBuild(t, `
int clamp(int x) {
    if (x < 0) {
        x = 0;
    }
    return x;
}
`, "clamp")

	if len(g.Blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(g.Blocks))
	}
	if len(g.Edges) != 6 {
		t.Fatalf("expected 6 edges, got %d", len(g.Edges))
	}

	// The false edge goes directly from the condition to the merge block.
	var cond, merge string
	for _, blk := range g.Blocks {
		switch blk.Type {
		case BlockTypeBranch:
			cond = blk.ID
		case BlockTypeMerge:
			merge = blk.ID
		}
	}
	if cond == "" || merge == "" {
		t.Fatal("expected a branch and a merge block")
	}
	found := false
	for _, e := range g.Edges {
		if e.SourceID == cond && e.TargetID == merge && e.Type == EdgeTypeFalse {
			found = true
		}
	}
	if !found {
		t.Error("expected false edge from condition to merge")
	}
}

func TestBuildMergeAfterLiveArms(t *testing.T) {
	g := mustBuild(t, `
void route(int x) {
    if (x) {
        left();
    } else {
        right();
    }
    done();
}
`, "route")

	var merge *Block
	for i := range g.Blocks {
		if g.Blocks[i].Type == BlockTypeMerge {
			merge = &g.Blocks[i]
		}
	}
	if merge == nil {
		t.Fatal("expected a merge block")
	}
	if len(merge.Predecessors) != 2 {
		t.Errorf("expected 2 merge predecessors, got %v", merge.Predecessors)
	}
	if len(merge.Statements) != 1 || merge.Statements[0] != "done()" {
		t.Errorf("expected done() to land in the merge block, got %v", merge.Statements)
	}
}

func TestBuildNestedDepth(t *testing.T) {
	g := mustBuild(t, `
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
`, "complex_function")

	if g.MaxDepth != 2 {
		t.Errorf("expected depth 2, got %d", g.MaxDepth)
	}
	if len(g.Blocks) != 15 {
		t.Errorf("expected 15 blocks, got %d", len(g.Blocks))
	}
	if len(g.Edges) != 17 {
		t.Errorf("expected 17 edges, got %d", len(g.Edges))
	}
}

func TestBuildElseIfChainsAtSameDepth(t *testing.T) {
	g := mustBuild(t, `
int classify(int x) {
    if (x == 1) {
        return 1;
    } else if (x == 2) {
        return 2;
    } else {
        return 3;
    }
}
`, "classify")

	if g.MaxDepth != 1 {
		t.Errorf("expected else-if chain at depth 1, got %d", g.MaxDepth)
	}
}

func TestBuildWhileLoop(t *testing.T) {
	g := mustBuild(t, `
int sum(int n) {
    int total = 0;
    while (n > 0) {
        total += n;
        n--;
    }
    return total;
}
`, "sum")

	if len(g.Blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(g.Blocks))
	}
	if len(g.Edges) != 6 {
		t.Fatalf("expected 6 edges, got %d", len(g.Edges))
	}
	if countEdges(g, EdgeTypeBack) != 1 {
		t.Error("expected one back edge")
	}
	if g.MaxDepth != 1 {
		t.Errorf("expected depth 1, got %d", g.MaxDepth)
	}
	var header *Block
	for i := range g.Blocks {
		if g.Blocks[i].Type == BlockTypeBranch {
			header = &g.Blocks[i]
		}
	}
	if header == nil || header.Statements[0] != "while (n > 0)" {
		t.Errorf("unexpected loop header: %+v", header)
	}
}

func TestBuildForLoopHeaderText(t *testing.T) {
	g := mustBuild(t, `
int count(int n) {
    int c = 0;
    for (int i = 0; i < n; i++) {
        c++;
    }
    return c;
}
`, "count")

	found := false
	for _, blk := range g.Blocks {
		for _, s := range blk.Statements {
			if s == "for (int i = 0; i < n; i++)" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected the for header as a statement")
	}
	if countEdges(g, EdgeTypeBack) != 1 {
		t.Error("expected one back edge")
	}
}

func TestBuildBreakContinue(t *testing.T) {
	g := mustBuild(t, `
void drain(int n) {
    while (n) {
        if (n == 1) {
            break;
        }
        continue;
    }
    done();
}
`, "drain")

	if countEdges(g, EdgeTypeBreak) != 1 {
		t.Error("expected one break edge")
	}
	if countEdges(g, EdgeTypeContinue) != 1 {
		t.Error("expected one continue edge")
	}
	if len(g.Blocks) != 8 {
		t.Errorf("expected 8 blocks, got %d", len(g.Blocks))
	}
	if len(g.Edges) != 9 {
		t.Errorf("expected 9 edges, got %d", len(g.Edges))
	}
}

func TestBuildDoWhile(t *testing.T) {
	g := mustBuild(t, `
int once(int n) {
    do {
        n--;
    } while (n > 0);
    return n;
}
`, "once")

	if countEdges(g, EdgeTypeBack) != 1 {
		t.Error("expected one back edge")
	}
	found := false
	for _, blk := range g.Blocks {
		for _, s := range blk.Statements {
			if s == "do-while (n > 0)" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected do-while header statement")
	}
}

func TestBuildSwitch(t *testing.T) {
	g := mustBuild(t, `
int pick(int x) {
    switch (x) {
    case 1:
        return 1;
    case 2:
        break;
    default:
        x = 3;
    }
    return x;
}
`, "pick")

	if len(g.Blocks) != 9 {
		t.Errorf("expected 9 blocks, got %d", len(g.Blocks))
	}
	if len(g.Edges) != 10 {
		t.Errorf("expected 10 edges, got %d", len(g.Edges))
	}
	if countEdges(g, EdgeTypeTrue) != 3 {
		t.Errorf("expected 3 case edges, got %d", countEdges(g, EdgeTypeTrue))
	}
	if countEdges(g, EdgeTypeBreak) != 1 {
		t.Error("expected one break edge")
	}
	// A default exists, so the switch cannot skip past every case.
	if countEdges(g, EdgeTypeFalse) != 0 {
		t.Error("expected no skip edge with a default case")
	}
}

func TestBuildSwitchWithoutDefault(t *testing.T) {
	g := mustBuild(t, `
void act(int x) {
    switch (x) {
    case 1:
        one();
        break;
    }
    after();
}
`, "act")

	if countEdges(g, EdgeTypeFalse) != 1 {
		t.Error("expected a skip edge when no default is present")
	}
}

func TestBuildRecursion(t *testing.T) {
	g := mustBuild(t, `
int factorial(int n) {
    if (n <= 1) {
        return 1;
    }
    return n * factorial(n - 1);
}
`, "factorial")

	if !g.Recursive {
		t.Error("expected factorial to be recursive")
	}
	if countEdges(g, EdgeTypeCall) != 1 {
		t.Errorf("expected one call edge, got %d", countEdges(g, EdgeTypeCall))
	}
	for _, e := range g.Edges {
		if e.Type == EdgeTypeCall && e.TargetID != g.EntryID {
			t.Errorf("call edge must target the entry block, got %s", e.TargetID)
		}
	}
	// Call edges are annotations, not control flow.
	if g.ControlEdges() != len(g.Edges)-1 {
		t.Errorf("expected %d control edges, got %d", len(g.Edges)-1, g.ControlEdges())
	}
}

func TestBuildCallingOthersIsNotRecursive(t *testing.T) {
	g := mustBuild(t, `
int delegate(int n) {
    return helper(n) + other(n);
}
`, "delegate")

	if g.Recursive {
		t.Error("calling other functions must not set the recursion flag")
	}
	if countEdges(g, EdgeTypeCall) != 0 {
		t.Error("expected no call edges")
	}
}

func TestBuildRecursionInCondition(t *testing.T) {
	g := mustBuild(t, `
int weird(int n) {
    if (weird(n - 1) > 0) {
        return 1;
    }
    return 0;
}
`, "weird")

	if !g.Recursive {
		t.Error("expected a self call in the condition to set the flag")
	}
}

func TestBuildShortCircuitCount(t *testing.T) {
	g := mustBuild(t, `
int multiply(int x, int y) {
    if (x == 0 || y == 0) {
        return 0;
    }
    return x * y;
}
`, "multiply")

	if g.ShortCircuits != 1 {
		t.Errorf("expected 1 short circuit operator, got %d", g.ShortCircuits)
	}

	g = mustBuild(t, `
int all(int a, int b, int c) {
    if (a && b && c) {
        return 1;
    }
    return 0;
}
`, "all")

	if g.ShortCircuits != 2 {
		t.Errorf("expected 2 short circuit operators, got %d", g.ShortCircuits)
	}
}

func TestBuildDeadCodeStaysInGraph(t *testing.T) {
	g := mustBuild(t, `
int leftover() {
    return 1;
    int dead = 2;
}
`, "leftover")

	if len(g.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(g.Blocks))
	}
	var dead *Block
	for i := range g.Blocks {
		if len(g.Blocks[i].Predecessors) == 0 && g.Blocks[i].Type == BlockTypePlain {
			dead = &g.Blocks[i]
		}
	}
	if dead == nil {
		t.Fatal("expected the dead statement to keep its block")
	}
	if dead.Statements[0] != "int dead = 2" {
		t.Errorf("unexpected dead block statements: %v", dead.Statements)
	}
}

func TestBuildMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
	}{
		{
			name: "stray else",
			src:  "void f() { else; }",
			fn:   "f",
		},
		{
			name: "if without condition",
			src:  "void f(int x) { if x { return; } }",
			fn:   "f",
		},
		{
			name: "unbalanced condition",
			src:  "void f(int x) { if (x { return; } }",
			fn:   "f",
		},
		{
			name: "do without while",
			src:  "void f() { do { g(); } }",
			fn:   "f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildFromSource(t, tt.src, tt.fn)
			if err == nil {
				t.Fatal("expected an error")
			}
			var mErr *MalformedError
			if !errors.As(err, &mErr) {
				t.Fatalf("expected MalformedError, got %T", err)
			}
			if mErr.Function != tt.fn {
				t.Errorf("expected error for %s, got %s", tt.fn, mErr.Function)
			}
		})
	}
}

func TestBuildEmptyBody(t *testing.T) {
	g := mustBuild(t, "void noop() {}", "noop")
	if len(g.Blocks) != 2 {
		t.Fatalf("expected entry and exit only, got %d blocks", len(g.Blocks))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected one edge, got %d", len(g.Edges))
	}
}

func TestBuildDeterministic(t *testing.T) {
	src := `
int factorial(int n) {
    if (n <= 1) {
        return 1;
    }
    return n * factorial(n - 1);
}
`
	a := mustBuild(t, src, "factorial")
	b := mustBuild(t, src, "factorial")
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical graphs from identical input")
	}
}

func TestBuildMemberFunction(t *testing.T) {
	g := mustBuild(t, `
class Calculator {
public:
    int multiply(int x, int y) {
        if (x == 0 || y == 0) {
            return 0;
        }
        return x * y;
    }
};
`, "Calculator::multiply")

	if g.FunctionName != "Calculator::multiply" {
		t.Errorf("expected qualified name, got %s", g.FunctionName)
	}
	if g.MaxDepth != 1 {
		t.Errorf("expected depth 1, got %d", g.MaxDepth)
	}
}
