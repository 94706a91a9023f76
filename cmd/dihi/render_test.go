package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("Archive", statusOK, "manifest present", false)
	if !strings.Contains(line, "Archive:") || !strings.Contains(line, "[OK] manifest present") {
		t.Fatalf("line = %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("unexpected color codes: %q", line)
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("Archive", statusError, "missing", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("line = %q", line)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Metric", "Count"}, [][]string{
		{"Total", "10"},
		{"Completed", "7"},
	})
	if !strings.Contains(out, "Metric") || !strings.Contains(out, "Completed") {
		t.Fatalf("table = %q", out)
	}
	if !strings.Contains(out, "7") {
		t.Fatalf("missing cell value: %q", out)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	want := []string{"health", "check", "fetch", "fetch-collection", "status", "config"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}
