//go:build mage

// Package main contains Mage build targets for paper-desk developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "paper-desk"
	cmdPkg  = "./cmd/paper-desk"
)

// projectDirs lists the working directories a paper-desk checkout expects.
var projectDirs = []string{
	".secrets",
	"exports",
	"results",
}

// Init creates the working directories and a starter config file.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat("paper-desk.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("paper-desk.yaml", []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing paper-desk.yaml: %w", err)
		}
		fmt.Println("   paper-desk.yaml")
	}
	fmt.Println("Project directories initialized. Put API keys in .secrets/<provider>-api-key.")
	return nil
}

const starterConfig = `search:
  max_results: 40
  request_interval: 3s
translation:
  provider: siliconflow
  target_language: Simplified Chinese
export:
  dir: exports
logging:
  level: info
  format: console
`

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", ldflags(), "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs vet and the unit tests.
func Test() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return fmt.Errorf("go vet: %w", err)
	}
	return sh.RunV("go", "test", "-race", "./...")
}

// Install builds and copies the binary into GOBIN.
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "-ldflags", ldflags(), cmdPkg)
}

// ldflags stamps the version from $VERSION, "dev" when unset.
func ldflags() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return "-X main.version=" + version
}

// skipDir reports whether a walk should not descend into path: hidden
// directories and underscore-prefixed reference trees.
func skipDir(path string) bool {
	name := filepath.Base(path)
	return path != "." && (name[0] == '.' || name[0] == '_')
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// pkgStats is the per-directory tally printed by Stats.
type pkgStats struct {
	files     int
	prodLines int
	testLines int
	tests     int
}

// Stats prints, per package directory, the Go file count, non-blank
// production and test lines, and the number of Test functions.
func Stats() error {
	stats := map[string]*pkgStats{}
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		dir := filepath.Dir(path)
		st := stats[dir]
		if st == nil {
			st = &pkgStats{}
			stats[dir] = st
		}
		st.files++
		return tallyFile(path, strings.HasSuffix(path, "_test.go"), st)
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(stats))
	for dir := range stats {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var total pkgStats
	fmt.Printf("%-28s %5s %7s %7s %6s\n", "package", "files", "prod", "test", "tests")
	for _, dir := range dirs {
		st := stats[dir]
		fmt.Printf("%-28s %5d %7d %7d %6d\n", dir, st.files, st.prodLines, st.testLines, st.tests)
		total.files += st.files
		total.prodLines += st.prodLines
		total.testLines += st.testLines
		total.tests += st.tests
	}
	fmt.Printf("%-28s %5d %7d %7d %6d\n", "total", total.files, total.prodLines, total.testLines, total.tests)
	return nil
}

// tallyFile adds path's non-blank lines, and for test files its Test
// functions, to st.
func tallyFile(path string, isTest bool, st *pkgStats) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !isTest {
			st.prodLines++
			continue
		}
		st.testLines++
		if strings.HasPrefix(line, "func Test") && strings.Contains(line, "(t *testing.T)") {
			st.tests++
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
