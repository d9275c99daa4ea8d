// CLI integration tests.
// These tests verify the reftax commands work correctly end-to-end.
package integration

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// reftaxBinary locates a prebuilt reftax binary, or skips the test when
// none is available.
func reftaxBinary(t *testing.T) string {
	t.Helper()

	for _, candidate := range []string{
		"../../cmd/reftax/reftax",
		"./cmd/reftax/reftax",
		"reftax",
	} {
		if _, err := os.Stat(candidate); err == nil {
			abs, _ := filepath.Abs(candidate)
			return abs
		}
	}
	if path, err := exec.LookPath("reftax"); err == nil {
		return path
	}

	t.Skip("reftax binary not found - run 'go build ./cmd/reftax' first")
	return ""
}

// runReftax invokes the CLI and returns stdout, stderr, and the exit code.
func runReftax(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(reftaxBinary(t), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var exitErr *exec.ExitError
	switch err := cmd.Run(); {
	case err == nil:
		return stdout.String(), stderr.String(), 0
	case errors.As(err, &exitErr):
		return stdout.String(), stderr.String(), exitErr.ExitCode()
	default:
		t.Fatalf("failed to run reftax: %v", err)
		return "", "", -1
	}
}

// runOK invokes the CLI, fails the test on a non-zero exit, and returns
// stdout.
func runOK(t *testing.T, args ...string) string {
	t.Helper()

	stdout, stderr, exitCode := runReftax(t, args...)
	if exitCode != 0 {
		t.Fatalf("reftax %s exited %d, want 0\nstderr: %s",
			strings.Join(args, " "), exitCode, stderr)
	}
	return stdout
}

// savedRunID extracts the run id from "snapshot save" output.
func savedRunID(t *testing.T, stdout string) string {
	t.Helper()

	firstLine, _, _ := strings.Cut(stdout, "\n")
	id, ok := strings.CutPrefix(firstLine, "Saved run:")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		t.Fatalf("snapshot save output missing run id: %q", stdout)
	}
	return id
}

// writeTaxonomyTable writes a small taxonomy table for CLI tests.
func writeTaxonomyTable(t *testing.T) string {
	t.Helper()

	lines := []string{
		"SEQ1\tBacteria;Firmicutes;Clostridia",
		"SEQ2\tBacteria;Firmicutes;Bacilli",
		"SEQ3\tBacteria;Proteobacteria;Gammaproteobacteria",
		"SEQ4\tArchaea;Euryarchaeota;Methanococci",
	}
	path := filepath.Join(t.TempDir(), "taxonomy.tsv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("failed to write taxonomy table: %v", err)
	}
	return path
}

func TestCLIVersion(t *testing.T) {
	stdout := runOK(t, "version")

	for _, want := range []string{"reftax", "sqlite driver"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("version output missing %q: %q", want, stdout)
		}
	}
}

func TestCLIFormatList(t *testing.T) {
	stdout := runOK(t, "format", "list")

	for _, want := range []string{"tsv", "fasta", "newick", "phyloxml"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("format list missing %q: %q", want, stdout)
		}
	}
}

func TestCLITaxStats(t *testing.T) {
	stdout := runOK(t, "taxonomy", "stats", writeTaxonomyTable(t))

	if !strings.Contains(stdout, "Sequences: 4") {
		t.Errorf("tax stats missing sequence count: %q", stdout)
	}
	if !strings.Contains(stdout, "Rank groups:") {
		t.Errorf("tax stats missing rank groups: %q", stdout)
	}
}

func TestCLITreeBuild(t *testing.T) {
	table := writeTaxonomyTable(t)
	out := filepath.Join(t.TempDir(), "tree.nwk")

	stdout := runOK(t, "tree", "build", table, "--out", out)
	if !strings.Contains(stdout, "Built:") {
		t.Errorf("tree build output missing confirmation: %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("tree file not written: %v", err)
	}
	tree := strings.TrimSpace(string(data))
	if !strings.HasSuffix(tree, ";") {
		t.Errorf("output is not a Newick tree: %q", tree)
	}
}

func TestCLITreeBuildPhyloXML(t *testing.T) {
	table := writeTaxonomyTable(t)
	out := filepath.Join(t.TempDir(), "tree.xml")

	runOK(t, "tree", "build", table, "--out", out, "--format", "phyloxml")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("tree file not written: %v", err)
	}
	if !strings.Contains(string(data), "<phyloxml") {
		t.Errorf("output is not phyloXML: %q", string(data))
	}

	// The written tree must round-trip through tree stats.
	stdout := runOK(t, "tree", "stats", out)
	if !strings.Contains(stdout, "Leaves: 4") {
		t.Errorf("tree stats missing leaf count: %q", stdout)
	}
}

func TestCLISnapshotRoundTrip(t *testing.T) {
	table := writeTaxonomyTable(t)
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout := runOK(t, "snapshot", "save", table, "--db", db)
	if !strings.Contains(stdout, "Saved run:") {
		t.Fatalf("snapshot save output missing run id: %q", stdout)
	}

	stdout = runOK(t, "snapshot", "list", "--db", db)
	if !strings.Contains(stdout, "seqs=4") {
		t.Errorf("snapshot list missing saved run: %q", stdout)
	}
}

func TestCLISnapshotArchiveRecovery(t *testing.T) {
	table := writeTaxonomyTable(t)
	db := filepath.Join(t.TempDir(), "runs.db")

	runID := savedRunID(t, runOK(t, "snapshot", "save", table, "--db", db, "--archive"))

	stdout := runOK(t, "snapshot", "show", runID, "--db", db)
	if !strings.Contains(stdout, "Archived: true") {
		t.Errorf("snapshot show missing archive status: %q", stdout)
	}

	out := filepath.Join(t.TempDir(), "recovered.tsv")
	stdout = runOK(t, "snapshot", "source", runID, "--db", db, "--out", out)
	if !strings.Contains(stdout, "Recovered:") {
		t.Errorf("snapshot source output missing confirmation: %q", stdout)
	}

	want, err := os.ReadFile(table)
	if err != nil {
		t.Fatalf("failed to read original table: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("recovered table not written: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("recovered table differs from original:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestCLISnapshotSourceWithoutArchive(t *testing.T) {
	table := writeTaxonomyTable(t)
	db := filepath.Join(t.TempDir(), "runs.db")

	runID := savedRunID(t, runOK(t, "snapshot", "save", table, "--db", db))

	out := filepath.Join(t.TempDir(), "recovered.tsv")
	_, stderr, exitCode := runReftax(t, "snapshot", "source", runID, "--db", db, "--out", out)
	if exitCode == 0 {
		t.Error("snapshot source should fail when no archive exists")
	}
	if !strings.Contains(stderr, "not found") {
		t.Errorf("snapshot source error should mention the missing archive: %q", stderr)
	}
}

func TestCLIUnknownCommand(t *testing.T) {
	_, _, exitCode := runReftax(t, "definitely-not-a-command")

	if exitCode == 0 {
		t.Error("unknown command should exit non-zero")
	}
}

func TestCLITaxNormalize(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "messy.tsv")
	lines := []string{
		"SEQ 1\tBacteria;Firmi cutes;Clostridia",
		"SEQ2\tBacteria;Firmicutes;Bacilli",
	}
	if err := os.WriteFile(table, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("failed to write taxonomy table: %v", err)
	}
	out := filepath.Join(dir, "clean.tsv")

	stdout := runOK(t, "taxonomy", "normalize", table, "--out", out)
	if !strings.Contains(stdout, "Normalized:") {
		t.Errorf("normalize output missing confirmation: %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("normalized table not written: %v", err)
	}
	if strings.Contains(string(data), "SEQ 1") {
		t.Errorf("sequence id not normalized: %q", string(data))
	}
}
