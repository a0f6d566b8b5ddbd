// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/parc/lib/archive"
	"github.com/bureau-foundation/parc/lib/config"
	"github.com/bureau-foundation/parc/lib/container"
	"github.com/bureau-foundation/parc/lib/encoder"
	"github.com/bureau-foundation/parc/lib/process"
	"github.com/bureau-foundation/parc/lib/testutil"
)

var sampleTree = map[string]string{
	"notes.txt":       strings.Repeat("the quick brown fox ", 200),
	"logs/app.log":    strings.Repeat("level=info msg=started\n", 500),
	"logs/empty.log":  "",
	"data/table.csv":  "id,name\n1,alpha\n2,beta\n",
	"data/nested/x.y": "x",
}

// Walk order for sampleTree.
var sampleNames = []string{
	"data/nested/x.y",
	"data/table.csv",
	"logs/app.log",
	"logs/empty.log",
	"notes.txt",
}

// Methods recorded for sampleTree under zstd. Inputs that are empty
// or too small to shrink are stored.
var sampleMethods = map[string]encoder.Method{
	"data/nested/x.y": encoder.MethodStore,
	"data/table.csv":  encoder.MethodStore,
	"logs/app.log":    encoder.MethodZstd,
	"logs/empty.log":  encoder.MethodStore,
	"notes.txt":       encoder.MethodZstd,
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	var stdout bytes.Buffer
	root := Root(&App{Stdout: &stdout})
	root.HelpOutput = &stdout
	err := root.Execute(context.Background(), args, nil)
	return stdout.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	output, err := execute(t, args...)
	if err != nil {
		t.Fatalf("parc %s: %v\n%s", strings.Join(args, " "), err, output)
	}
	return output
}

func createSample(t *testing.T, extra ...string) (input, archivePath string) {
	t.Helper()
	directory := t.TempDir()
	input = filepath.Join(directory, "input")
	testutil.WriteTree(t, input, sampleTree)
	archivePath = filepath.Join(directory, "sample.parc")
	args := append([]string{"create", "-o", archivePath}, extra...)
	mustExecute(t, append(args, input)...)
	return input, archivePath
}

func exitCode(err error) int {
	var exitError *process.ExitError
	if errors.As(err, &exitError) {
		return exitError.Code
	}
	return -1
}

func TestCreateExtractRoundTrip(t *testing.T) {
	_, archivePath := createSample(t, "--threads", "4")

	reader, file, err := container.OpenFile(archivePath)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()
	entries := reader.Entries()
	if len(entries) != len(sampleNames) {
		t.Fatalf("archive has %d entries, want %d", len(entries), len(sampleNames))
	}
	for i, entry := range entries {
		if entry.Name != sampleNames[i] {
			t.Errorf("entry %d is %q, want %q", i, entry.Name, sampleNames[i])
		}
		if want := sampleMethods[entry.Name]; entry.Method != want {
			t.Errorf("entry %s method = %s, want %s", entry.Name, entry.Method, want)
		}
	}

	restore := filepath.Join(t.TempDir(), "restore")
	output := mustExecute(t, "extract", "-C", restore, archivePath)
	if !strings.Contains(output, "extracted 5 entries") {
		t.Errorf("extract output = %q", output)
	}
	for name, want := range sampleTree {
		got, err := os.ReadFile(filepath.Join(restore, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("reading extracted %s: %v", name, err)
			continue
		}
		if string(got) != want {
			t.Errorf("extracted %s differs from the original (%d bytes, want %d)", name, len(got), len(want))
		}
	}
}

func TestCreateSameArchiveForAnyThreadCount(t *testing.T) {
	directory := t.TempDir()
	input := filepath.Join(directory, "input")
	testutil.WriteTree(t, input, sampleTree)

	var archives [][]byte
	for _, threads := range []string{"1", "3", "auto"} {
		path := filepath.Join(directory, "threads-"+threads+".parc")
		mustExecute(t, "create", "-o", path, "--threads", threads, input)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		archives = append(archives, data)
	}
	for i := 1; i < len(archives); i++ {
		if !bytes.Equal(archives[0], archives[i]) {
			t.Errorf("archive %d differs from the single-threaded archive", i)
		}
	}
}

func TestCreateFlagsOverrideConfig(t *testing.T) {
	directory := t.TempDir()
	configPath := filepath.Join(directory, "parc.yaml")
	testutil.WriteTree(t, directory, map[string]string{
		"parc.yaml":   "method: lz4\nthreads: 2\n",
		"input/a.txt": strings.Repeat("alpha ", 200),
	})

	fromConfig := filepath.Join(directory, "config.parc")
	mustExecute(t, "create", "--config", configPath, "-o", fromConfig, filepath.Join(directory, "input"))
	overridden := filepath.Join(directory, "flag.parc")
	mustExecute(t, "create", "--config", configPath, "--method", "store", "-o", overridden, filepath.Join(directory, "input"))

	for path, want := range map[string]encoder.Method{fromConfig: encoder.MethodLZ4, overridden: encoder.MethodStore} {
		reader, file, err := container.OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile(%s): %v", path, err)
		}
		if got := reader.Entries()[0].Method; got != want {
			t.Errorf("%s: method = %s, want %s", filepath.Base(path), got, want)
		}
		file.Close()
	}
}

func TestCreatePartialFailure(t *testing.T) {
	directory := t.TempDir()
	testutil.WriteTree(t, directory, map[string]string{
		"input/big.bin":   strings.Repeat("b", 4096),
		"input/small.txt": "small",
	})
	archivePath := filepath.Join(directory, "partial.parc")

	output, err := execute(t, "create", "-o", archivePath, "--max-job-size", "1KiB", filepath.Join(directory, "input"))
	if code := exitCode(err); code != exitPartial {
		t.Fatalf("exit code = %d (err %v), want %d", code, err, exitPartial)
	}
	if !strings.Contains(output, "failed:") || !strings.Contains(output, "big.bin") {
		t.Errorf("output does not report the failed input:\n%s", output)
	}

	reader, file, err := container.OpenFile(archivePath)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()
	entries := reader.Entries()
	if len(entries) != 1 || entries[0].Name != "small.txt" {
		t.Errorf("entries = %+v, want only small.txt", entries)
	}
}

func TestCreateAllFailedWritesNothing(t *testing.T) {
	directory := t.TempDir()
	testutil.WriteTree(t, directory, map[string]string{
		"input/one.bin": strings.Repeat("1", 4096),
		"input/two.bin": strings.Repeat("2", 4096),
	})
	archivePath := filepath.Join(directory, "none.parc")

	_, err := execute(t, "create", "-o", archivePath, "--max-job-size", "1KiB", filepath.Join(directory, "input"))
	if !errors.Is(err, archive.ErrAllFailed) {
		t.Fatalf("error = %v, want ErrAllFailed", err)
	}
	if _, err := os.Stat(archivePath); !os.IsNotExist(err) {
		t.Errorf("archive exists after a failed batch (stat error %v)", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(directory, ".none.parc.*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestCreateRejectsBadArguments(t *testing.T) {
	directory := t.TempDir()
	testutil.WriteTree(t, directory, map[string]string{"input/a.txt": "a"})
	input := filepath.Join(directory, "input")
	output := filepath.Join(directory, "out.parc")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no inputs", []string{"create", "-o", output}, "input path"},
		{"no output", []string{"create", input}, "--output"},
		{"zero threads", []string{"create", "-o", output, "--threads", "0", input}, "thread"},
		{"unknown method", []string{"create", "-o", output, "--method", "lzma", input}, "lzma"},
		{"bad size", []string{"create", "-o", output, "--max-job-size", "lots", input}, "--max-job-size"},
		{"bad recipient", []string{"create", "-o", output, "--recipient", "age1nope", input}, "age"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, test.args...)
			if err == nil {
				t.Fatal("create succeeded, want an error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %q, want it to mention %q", err, test.want)
			}
			if _, err := os.Stat(output); !os.IsNotExist(err) {
				t.Errorf("archive written despite the error")
			}
		})
	}
}

func TestList(t *testing.T) {
	_, archivePath := createSample(t)

	output := mustExecute(t, "list", archivePath)
	for _, name := range sampleNames {
		if !strings.Contains(output, name) {
			t.Errorf("list output is missing %s:\n%s", name, output)
		}
	}
	if !strings.Contains(output, "5 entries") {
		t.Errorf("list output is missing the summary:\n%s", output)
	}
	// Table rows appear in archive order.
	if strings.Index(output, "data/table.csv") > strings.Index(output, "notes.txt") {
		t.Errorf("list output is not in archive order:\n%s", output)
	}
}

func TestListRaw(t *testing.T) {
	_, archivePath := createSample(t)

	output := mustExecute(t, "list", "--raw", archivePath)
	if !strings.Contains(output, `"logs/app.log"`) {
		t.Errorf("raw listing does not contain the entry name:\n%s", output)
	}
}

func TestExtractSelectedEntries(t *testing.T) {
	_, archivePath := createSample(t)
	restore := t.TempDir()

	mustExecute(t, "extract", "-C", restore, archivePath, "data/table.csv")
	got, err := os.ReadFile(filepath.Join(restore, "data", "table.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != sampleTree["data/table.csv"] {
		t.Errorf("extracted content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(restore, "notes.txt")); !os.IsNotExist(err) {
		t.Error("unselected entry was extracted")
	}

	if _, err := execute(t, "extract", "-C", restore, archivePath, "missing.txt"); err == nil {
		t.Error("extracting a missing entry succeeded")
	}
}

func TestVerify(t *testing.T) {
	_, archivePath := createSample(t, "--method", "s2")

	output := mustExecute(t, "verify", archivePath)
	if !strings.HasPrefix(output, "ok: 5 entries") {
		t.Errorf("verify output = %q", output)
	}

	data, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	// First payload byte, just past the 8-byte header.
	data[8] ^= 0xff
	if err := os.WriteFile(archivePath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = execute(t, "verify", archivePath)
	if code := exitCode(err); code != 1 {
		t.Fatalf("verify of a damaged archive: exit code %d (err %v), want 1", code, err)
	}
	if !errors.Is(err, container.ErrChecksum) {
		t.Errorf("error = %v, want ErrChecksum", err)
	}
}

func TestSealedArchive(t *testing.T) {
	directory := t.TempDir()
	identity := filepath.Join(directory, "identity.txt")
	publicKey := strings.TrimSpace(mustExecute(t, "keygen", "-o", identity))
	if !strings.HasPrefix(publicKey, "age1") {
		t.Fatalf("keygen printed %q, want an age public key", publicKey)
	}
	info, err := os.Stat(identity)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("identity mode = %v, want 0600", info.Mode().Perm())
	}

	_, archivePath := createSample(t, "--recipient", publicKey)

	if _, err := execute(t, "list", archivePath); err == nil || !strings.Contains(err.Error(), "sealed") {
		t.Errorf("list without an identity: error = %v, want a sealed-archive error", err)
	}

	output := mustExecute(t, "list", "--identity", identity, archivePath)
	if !strings.Contains(output, "notes.txt") {
		t.Errorf("list output is missing notes.txt:\n%s", output)
	}
	mustExecute(t, "verify", "--identity", identity, archivePath)

	// The identity can also come from the configuration file.
	configPath := filepath.Join(directory, "parc.yaml")
	testutil.WriteTree(t, directory, map[string]string{"parc.yaml": "identity: " + identity + "\n"})
	restore := filepath.Join(directory, "restore")
	mustExecute(t, "extract", "--config", configPath, "-C", restore, archivePath, "notes.txt")
	got, err := os.ReadFile(filepath.Join(restore, "notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != sampleTree["notes.txt"] {
		t.Error("extracted sealed entry differs from the original")
	}
}

func TestKeygenRefusesToOverwrite(t *testing.T) {
	identity := filepath.Join(t.TempDir(), "identity.txt")
	if err := os.WriteFile(identity, []byte("keep me"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "keygen", "-o", identity); err == nil {
		t.Fatal("keygen overwrote an existing file")
	}
	data, _ := os.ReadFile(identity)
	if string(data) != "keep me" {
		t.Errorf("identity file was modified: %q", data)
	}
}

func TestVersion(t *testing.T) {
	output := mustExecute(t, "version")
	if !strings.HasPrefix(output, "parc ") {
		t.Errorf("version output = %q", output)
	}
}
