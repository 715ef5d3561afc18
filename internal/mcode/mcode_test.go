package mcode

import (
	"reflect"
	"testing"
)

func TestStepsPreserveDeclarationOrder(t *testing.T) {
	got := Steps("let\n a = 1,\n b = a + 2\nin b")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected steps %v, got %v", want, got)
	}
}

func TestStepsSkipCommentsAndDequote(t *testing.T) {
	code := `let
    // load the raw table
    Source = Sql.Database("srv", "db"),
    /* typed */
    #"Changed Type" = Table.TransformColumnTypes(Source, {{"Amount", type number}}),

    Filtered = Table.SelectRows(#"Changed Type", each [Amount] > 0)
in
    Filtered`

	got := Steps(code)
	want := []string{"Source", "Changed Type", "Filtered"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected steps %v, got %v", want, got)
	}
}

func TestStepsIgnoreContinuationLines(t *testing.T) {
	code := `let
    Renamed =
        Table.RenameColumns(Source, {{"a", "b"}}),
    Fn = (x) => x + 1,
    Check = if a == b then 1 else 0
in
    Renamed`

	got := Steps(code)
	want := []string{"Renamed", "Fn", "Check"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected steps %v, got %v", want, got)
	}
}

func TestStepsSkipQuotedNamesContainingEquals(t *testing.T) {
	got := Steps("let\n #\"a=b\" = 1,\n c = 2\nin c")
	want := []string{"c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected steps %v, got %v", want, got)
	}
}

func TestStepsKeepDuplicates(t *testing.T) {
	got := Steps("let\n x = 1,\n x = 2\nin x")
	want := []string{"x", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected duplicate steps %v, got %v", want, got)
	}
}

func TestStepsWithoutLetBlock(t *testing.T) {
	if got := Steps(`"literal value" meta [IsParameterQuery=true]`); len(got) != 0 {
		t.Fatalf("expected no steps, got %v", got)
	}
	if got := Steps(""); len(got) != 0 {
		t.Fatalf("expected no steps for empty text, got %v", got)
	}
}

func TestLocalNames(t *testing.T) {
	code := "let\n Source = Orders,\n #\"Added Index\" = Table.AddIndexColumn(Source, \"Index\", 1, 1),\n Result = #\"Added Index\"\nin Result"

	local := LocalNames(code)
	for _, name := range []string{"Source", "Added Index", "Result"} {
		if !IsLocal(local, name) {
			t.Fatalf("expected %q in local names %v", name, local)
		}
	}
	if IsLocal(local, "Orders") {
		t.Fatalf("did not expect referenced name Orders to be local")
	}
}

func TestLocalNamesNaiveCommaSplit(t *testing.T) {
	// Nested call arguments are split too; an "=" inside them yields an extra name.
	code := "let\n Merged = Table.NestedJoin(A, {\"k\"}, B, {\"k\"}, \"B\", JoinKind.LeftOuter),\n Opt = f(x, y = 2)\nin Merged"

	local := LocalNames(code)
	if !IsLocal(local, "Merged") || !IsLocal(local, "Opt") {
		t.Fatalf("expected Merged and Opt in local names, got %v", local)
	}
	if !IsLocal(local, "y") {
		t.Fatalf("expected naive split to surface y, got %v", local)
	}
}

func TestLocalNamesWithoutLetBlock(t *testing.T) {
	if got := LocalNames("Orders"); len(got) != 0 {
		t.Fatalf("expected empty local scope, got %v", got)
	}
}

func TestLetBlockIsCaseInsensitive(t *testing.T) {
	block, ok := LetBlock("LET\n  A = 1\nIN\n  A")
	if !ok {
		t.Fatalf("expected upper-case LET ... IN to be found")
	}
	if block != "A = 1" {
		t.Fatalf("unexpected block %q", block)
	}
}

func TestDequote(t *testing.T) {
	if got := Dequote(`#"My Query"`); got != "My Query" {
		t.Fatalf("expected dequoted name, got %q", got)
	}
	if got := Dequote("Plain"); got != "Plain" {
		t.Fatalf("expected plain name untouched, got %q", got)
	}
	if got := Dequote(`#"`); got != `#"` {
		t.Fatalf("expected malformed quote untouched, got %q", got)
	}
}
