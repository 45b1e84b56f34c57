package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMakefile = `all: app docs
app: lib
lib:
docs:
`

// fakeMake writes a build tool that records the target it was asked to build.
func fakeMake(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-make")
	script := "#!/bin/sh\necho \"$3\" >> " + filepath.Join(dir, "built.txt") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o700))
	return path
}

func TestRun(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	tests := []struct {
		name         string
		makefile     string
		args         []string
		expectedExit int
		expectBuilt  []string
	}{
		{
			name:         "print graph",
			makefile:     testMakefile,
			args:         []string{"--print-graph"},
			expectedExit: 0,
		},
		{
			name:         "builds the default target",
			makefile:     testMakefile,
			args:         []string{"-o", "linear", "--make", "{make}"},
			expectedExit: 0,
			expectBuilt:  []string{"all", "app", "docs", "lib"},
		},
		{
			name:         "builds the requested target only",
			makefile:     testMakefile,
			args:         []string{"-o", "linear", "--make", "{make}", "-t", "app", "--no-journal"},
			expectedExit: 0,
			expectBuilt:  []string{"app", "lib"},
		},
		{
			name:         "unknown target",
			makefile:     testMakefile,
			args:         []string{"-o", "linear", "--make", "{make}", "-t", "nope"},
			expectedExit: 1,
		},
		{
			name:         "missing makefile",
			args:         []string{"-f", "nope.mk"},
			expectedExit: 1,
		},
		{
			name:         "parse error",
			makefile:     "this is not a rule\n",
			args:         []string{"--print-graph"},
			expectedExit: 1,
		},
		{
			name:         "cycle rejected",
			makefile:     "a: b\nb: a\n",
			args:         []string{"-o", "linear", "--make", "{make}", "--check-cycles"},
			expectedExit: 1,
		},
		{
			name:         "empty graph",
			makefile:     "# nothing here\n",
			args:         []string{"-o", "linear", "--make", "{make}"},
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if tt.makefile != "" {
				require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "Makefile"), []byte(tt.makefile), 0o600))
			}
			tool := fakeMake(t, tmpDir)

			originalWd, _ := os.Getwd()
			require.NoError(t, os.Chdir(tmpDir))
			defer func() {
				_ = os.Chdir(originalWd)
			}()

			args := make([]string, 0, len(tt.args)+1)
			args = append(args, "smake")
			for _, a := range tt.args {
				args = append(args, strings.ReplaceAll(a, "{make}", tool))
			}
			os.Args = args

			exitCode := run()
			assert.Equal(t, tt.expectedExit, exitCode)

			built := readBuilt(t, tmpDir)
			assert.Equal(t, tt.expectBuilt, built)
		})
	}
}

func TestRun_WritesJournal(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "Makefile"), []byte(testMakefile), 0o600))
	tool := fakeMake(t, tmpDir)

	originalWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	os.Args = []string{"smake", "-o", "linear", "--make", tool}
	require.Equal(t, 0, run())

	data, err := os.ReadFile(filepath.Join(tmpDir, ".smake", "journal.json"))
	require.NoError(t, err)
	for _, target := range []string{"all", "app", "docs", "lib"} {
		assert.Contains(t, string(data), `"target": "`+target+`"`)
	}

	os.Args = []string{"smake", "history"}
	assert.Equal(t, 0, run())
}

func readBuilt(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "built.txt"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	built := strings.Fields(string(data))
	sort.Strings(built)
	return built
}
