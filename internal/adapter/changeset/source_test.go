package changeset

import (
	"strings"
	"testing"

	"github.com/critique-dev/critique/internal/domain"
)

func TestExcludedFile(t *testing.T) {
	tests := []struct {
		file string
		want bool
	}{
		{"main.go", false},
		{"go.sum", true},
		{"frontend/package-lock.json", true},
		{"assets/logo.png", true},
		{"api/service.pb.go", true},
		{"models/user.generated.ts", true},
		{"app.min.js", true},
		{"minjs.go", false},
		{"release.tar.gz", true},
		{"internal/server.go", false},
	}
	for _, tt := range tests {
		if got := ExcludedFile(tt.file); got != tt.want {
			t.Errorf("ExcludedFile(%q) = %v, want %v", tt.file, got, tt.want)
		}
	}
}

func TestDropExcluded(t *testing.T) {
	files := []domain.ChangesetFile{
		{Filename: "main.go"},
		{Filename: "go.sum"},
		{Filename: "web/app.min.js"},
		{Filename: "handler.go"},
	}
	kept := dropExcluded(files)
	if len(kept) != 2 || kept[0].Filename != "main.go" || kept[1].Filename != "handler.go" {
		t.Errorf("kept = %+v", kept)
	}
}

func TestSplitPerFile(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
index 111..222 100644
--- a/main.go
+++ b/main.go
@@ -1,1 +1,2 @@
 package main
+var x int
diff --git a/newfile.go b/newfile.go
new file mode 100644
index 000..333
--- /dev/null
+++ b/newfile.go
@@ -0,0 +1,1 @@
+package other
diff --git a/gone.go b/gone.go
deleted file mode 100644
index 444..000
--- a/gone.go
+++ /dev/null
@@ -1,1 +0,0 @@
-package gone
`

	files := splitPerFile(diff)
	if len(files) != 3 {
		t.Fatalf("files = %d, want 3", len(files))
	}

	if files[0].Filename != "main.go" || files[0].Status != "modified" {
		t.Errorf("first = %+v", files[0])
	}
	if files[1].Filename != "newfile.go" || files[1].Status != "added" {
		t.Errorf("second = %+v", files[1])
	}
	if files[2].Filename != "gone.go" || files[2].Status != "removed" {
		t.Errorf("third = %+v", files[2])
	}

	// Each per-file patch must still parse down to its own hunks.
	if !strings.Contains(files[0].Patch, "+var x int") || strings.Contains(files[0].Patch, "package other") {
		t.Errorf("first patch mis-split:\n%s", files[0].Patch)
	}
}
