package diff_test

import (
	"testing"

	"github.com/critique-dev/critique/internal/diff"
)

const simplePatch = "@@ -1,3 +1,4 @@\n package main\n+import \"fmt\"\n \n func main() {"

const multiHunkPatch = `@@ -10,4 +10,5 @@
 context ten
-removed eleven
+added eleven
+added twelve
 context thirteen
@@ -40,3 +41,3 @@
 context forty-one
-old forty-two
+new forty-two
 context forty-three`

func TestParseEmptyPatch(t *testing.T) {
	p := diff.Parse("")
	if len(p.Hunks) != 0 {
		t.Errorf("hunks = %d, want 0", len(p.Hunks))
	}
	if p.ContainsAfterLine(1) {
		t.Error("empty patch must anchor nothing")
	}
}

func TestParseSimplePatch(t *testing.T) {
	p := diff.Parse(simplePatch)

	if len(p.Hunks) != 1 {
		t.Fatalf("hunks = %d, want 1", len(p.Hunks))
	}
	hunk := p.Hunks[0]
	if hunk.NewStart != 1 || hunk.NewLines != 4 {
		t.Errorf("new range = %d,%d, want 1,4", hunk.NewStart, hunk.NewLines)
	}

	// Lines 1-4 are visible on the after side.
	for n := 1; n <= 4; n++ {
		if !p.ContainsAfterLine(n) {
			t.Errorf("line %d should be addressable", n)
		}
	}
	if p.ContainsAfterLine(5) {
		t.Error("line 5 is outside the hunk")
	}
}

func TestParseMultiHunk(t *testing.T) {
	p := diff.Parse(multiHunkPatch)

	if len(p.Hunks) != 2 {
		t.Fatalf("hunks = %d, want 2", len(p.Hunks))
	}

	tests := []struct {
		line int
		want bool
	}{
		{10, true},  // context
		{11, true},  // addition
		{12, true},  // addition
		{13, true},  // context
		{14, false}, // between hunks
		{40, false}, // before second hunk's after range
		{41, true},
		{42, true},
		{43, true},
		{44, false},
	}
	for _, tt := range tests {
		if got := p.ContainsAfterLine(tt.line); got != tt.want {
			t.Errorf("ContainsAfterLine(%d) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestDeletionsAreNotAddressable(t *testing.T) {
	patch := `@@ -1,2 +1,1 @@
-gone
 kept`
	p := diff.Parse(patch)

	if !p.ContainsAfterLine(1) {
		t.Error("context line 1 should be addressable")
	}
	if p.ContainsAfterLine(2) {
		t.Error("deleted line must not map to the after side")
	}
}

func TestContainsAfterRange(t *testing.T) {
	p := diff.Parse(multiHunkPatch)

	if !p.ContainsAfterRange(10, 13) {
		t.Error("range 10-13 should be fully addressable")
	}
	if p.ContainsAfterRange(12, 15) {
		t.Error("range 12-15 crosses hunk boundary")
	}
	if p.ContainsAfterRange(0, 3) {
		t.Error("range with non-positive start is invalid")
	}
	if p.ContainsAfterRange(12, 11) {
		t.Error("inverted range is invalid")
	}
}

func TestParseSkipsGitHeaders(t *testing.T) {
	patch := `diff --git a/a.go b/a.go
index 123..456 100644
--- a/a.go
+++ b/a.go
@@ -1,1 +1,2 @@
 existing
+added`
	p := diff.Parse(patch)

	if len(p.Hunks) != 1 {
		t.Fatalf("hunks = %d, want 1", len(p.Hunks))
	}
	if !p.ContainsAfterLine(2) {
		t.Error("added line 2 should be addressable")
	}
}

func TestParseMalformedHunkHeader(t *testing.T) {
	p := diff.Parse("@@ garbage @@\n+orphan")
	// Zero NewStart means the hunk's lines resolve to line numbers that can
	// never match a real finding; nothing anchors, nothing panics.
	if p.ContainsAfterLine(1) {
		t.Error("malformed hunk must not anchor line 1")
	}
}

func TestAfterLines(t *testing.T) {
	p := diff.Parse(simplePatch)
	got := p.AfterLines()
	want := []int{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("AfterLines() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AfterLines() = %v, want %v", got, want)
		}
	}
}
