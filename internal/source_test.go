package internal

import (
	"bytes"
	"go/format"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/caskdeck/caskdeck/internal/"

// projectRoot returns the repository root whether tests run from internal/
// or from the root itself.
func projectRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if filepath.Base(wd) == "internal" {
		return filepath.Dir(wd)
	}
	return wd
}

// goFiles calls fn for every Go file under internal/ and cmd/.
func goFiles(t *testing.T, fn func(rel string, content []byte)) {
	t.Helper()
	root := projectRoot(t)
	for _, dir := range []string{"internal", "cmd"} {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "vendor" || strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".go") {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			fn(filepath.ToSlash(rel), content)
			return nil
		})
		if err != nil {
			t.Fatalf("Failed to walk %s: %v", dir, err)
		}
	}
}

// TestGofmtCompliance verifies that all Go source files are gofmt-clean.
// If this test fails, run: gofmt -w ./internal/ ./cmd/
func TestGofmtCompliance(t *testing.T) {
	var unformatted []string
	goFiles(t, func(rel string, content []byte) {
		formatted, err := format.Source(content)
		if err != nil {
			t.Errorf("%s does not parse: %v", rel, err)
			return
		}
		if !bytes.Equal(content, formatted) {
			unformatted = append(unformatted, rel)
		}
	})
	for _, f := range unformatted {
		t.Errorf("not gofmt-formatted: %s", f)
	}
}

// TestPackageLayering keeps the engine packages independent of their
// front ends: only internal/cmd wires everything together.
func TestPackageLayering(t *testing.T) {
	forbidden := map[string][]string{
		"internal/task":       {"status", "runner", "taskqueue", "server", "tui", "cmd"},
		"internal/taskqueue":  {"runner", "server", "tui", "cmd"},
		"internal/runner":     {"status", "server", "tui", "cmd"},
		"internal/status":     {"runner", "server", "tui", "cmd"},
		"internal/escalation": {"runner", "status", "server", "tui", "cmd"},
		"internal/tui":        {"runner", "server", "cmd"},
		"internal/server":     {"runner", "tui", "cmd"},
	}

	goFiles(t, func(rel string, content []byte) {
		if strings.HasSuffix(rel, "_test.go") {
			return
		}
		pkg := filepath.ToSlash(filepath.Dir(rel))
		var banned []string
		for prefix, list := range forbidden {
			if pkg == prefix || strings.HasPrefix(pkg, prefix+"/") {
				banned = list
			}
		}
		if banned == nil {
			return
		}

		f, err := parser.ParseFile(token.NewFileSet(), rel, content, parser.ImportsOnly)
		if err != nil {
			t.Errorf("%s: %v", rel, err)
			return
		}
		for _, imp := range f.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			if !strings.HasPrefix(path, modulePath) {
				continue
			}
			target := strings.SplitN(strings.TrimPrefix(path, modulePath), "/", 2)[0]
			for _, b := range banned {
				if target == b {
					t.Errorf("%s imports %s", rel, path)
				}
			}
		}
	})
}
