package internal_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/davidleathers/aire-backend/"

// packageImports maps each package directory under root to the imports of
// its non-test files.
func packageImports(t *testing.T, root string) map[string][]string {
	t.Helper()

	out := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		dir := filepath.ToSlash(filepath.Dir(path))
		for _, imp := range file.Imports {
			p, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return err
			}
			out[dir] = append(out[dir], p)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

// TestDomainNotDependOnInfrastructure ensures the domain layer stays free of
// storage, transport and logging concerns.
func TestDomainNotDependOnInfrastructure(t *testing.T) {
	forbidden := []string{
		modulePath + "internal/infrastructure",
		modulePath + "internal/service",
		modulePath + "internal/metrics",
		"database/sql",
		"net/http",
		"github.com/lib/pq",
		"github.com/jackc/pgx",
		"github.com/redis/go-redis",
		"go.uber.org/zap",
	}

	imports := packageImports(t, "domain")
	require.NotEmpty(t, imports)

	for dir, imps := range imports {
		for _, imp := range imps {
			for _, f := range forbidden {
				if strings.HasPrefix(imp, f) {
					t.Errorf("domain package %s imports %s", dir, imp)
				}
			}
		}
	}
}

// TestInfrastructureNotDependOnServices keeps adapters usable from any service.
func TestInfrastructureNotDependOnServices(t *testing.T) {
	for _, root := range []string{"infrastructure", "metrics"} {
		for dir, imps := range packageImports(t, root) {
			for _, imp := range imps {
				if strings.HasPrefix(imp, modulePath+"internal/service") {
					t.Errorf("package %s imports service %s", dir, imp)
				}
			}
		}
	}
}

// TestOnlyCommandsUsePipeline ensures the pipeline remains the outermost
// service: no other service may depend on it.
func TestOnlyCommandsUsePipeline(t *testing.T) {
	pipeline := modulePath + "internal/service/pipeline"

	for dir, imps := range packageImports(t, "service") {
		if dir == "service/pipeline" {
			continue
		}
		for _, imp := range imps {
			if imp == pipeline {
				t.Errorf("service %s imports the pipeline", dir)
			}
		}
	}
}

// TestProductionCodeNotDependOnTestutil keeps test helpers out of binaries.
func TestProductionCodeNotDependOnTestutil(t *testing.T) {
	for _, root := range []string{"domain", "infrastructure", "metrics", "service"} {
		for dir, imps := range packageImports(t, root) {
			for _, imp := range imps {
				if strings.HasPrefix(imp, modulePath+"internal/testutil") {
					t.Errorf("package %s imports %s", dir, imp)
				}
			}
		}
	}
}
