package main

import (
	"bytes"
	"strings"
	"testing"

	"classicphotos/internal/testsupport"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	catalogPath string
	logDir      string
}

func setupCLITestEnv(t *testing.T, entries map[string]string) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CLASSICPHOTOS_CATALOG", "")

	cfg := testsupport.NewConfig(t)
	testsupport.WriteCatalog(t, cfg.Catalog.Path, entries)
	return &cliTestEnv{
		baseDir:     testsupport.BaseDir(cfg),
		configPath:  testsupport.WriteConfig(t, cfg),
		catalogPath: cfg.Catalog.Path,
		logDir:      cfg.Paths.LogDir,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
