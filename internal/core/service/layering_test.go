package service

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Core packages must not reach into the HTTP layer.
func TestCoreDoesNotImportAPI(t *testing.T) {
	const apiPrefix = "github.com/photosync/photosync/internal/api"

	for _, dir := range []string{".", "../domain", "../ports"} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read %s: %v", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
				continue
			}
			path := filepath.Join(dir, e.Name())
			f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", path, err)
			}
			for _, imp := range f.Imports {
				p, _ := strconv.Unquote(imp.Path.Value)
				if strings.HasPrefix(p, apiPrefix) {
					t.Errorf("%s imports %s", path, p)
				}
			}
		}
	}
}
