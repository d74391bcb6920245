package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"entropack/pkg/opctl"
)

func runCLI(t *testing.T, ctx context.Context, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(ctx, args, opctl.NewGate(), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCompressDecompressCommands(t *testing.T) {
	t.Setenv("ENTROPACK_PASSWORD", "")
	dir := t.TempDir()
	src := filepath.Join(dir, "input.txt")
	content := []byte(strings.Repeat("she sells sea shells ", 50))
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	for _, algo := range []string{"huffman", "shannon-fano"} {
		t.Run(algo, func(t *testing.T) {
			archivePath := filepath.Join(dir, "input-"+algo)
			if algo == "huffman" {
				archivePath += ".huff"
			} else {
				archivePath += ".shf"
			}
			code, stdout, stderr := runCLI(t, context.Background(), "", "compress", "-algo", algo, "-o", archivePath, src)
			if code != exitOK {
				t.Fatalf("compress exit %d: %s", code, stderr)
			}
			if !strings.Contains(stdout, "Compressed") {
				t.Fatalf("missing report: %q", stdout)
			}

			out := filepath.Join(dir, "out-"+algo)
			if code, _, stderr := runCLI(t, context.Background(), "", "decompress", "-o", out, archivePath); code != exitOK {
				t.Fatalf("decompress exit %d: %s", code, stderr)
			}
			got, err := os.ReadFile(filepath.Join(out, "input.txt"))
			if err != nil || !bytes.Equal(got, content) {
				t.Fatalf("round trip failed: %v", err)
			}
		})
	}
}

func TestDecompressPromptsForPassword(t *testing.T) {
	t.Setenv("ENTROPACK_PASSWORD", "")
	dir := t.TempDir()
	src := filepath.Join(dir, "s.txt")
	if err := os.WriteFile(src, []byte("top secret top secret"), 0644); err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := runCLI(t, context.Background(), "", "compress", "-password", "pw", src); code != exitOK {
		t.Fatalf("compress exit %d: %s", code, stderr)
	}

	out := filepath.Join(dir, "out")
	code, _, stderr := runCLI(t, context.Background(), "wrong\npw\n", "decompress", "-password", "nope", "-o", out, src+".huff")
	if code != exitOK {
		t.Fatalf("decompress exit %d: %s", code, stderr)
	}
	if !strings.Contains(stderr, "Wrong password") {
		t.Fatalf("re-entry prompt not shown: %q", stderr)
	}
	if got, err := os.ReadFile(filepath.Join(out, "s.txt")); err != nil || string(got) != "top secret top secret" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestFolderCommandsParallel(t *testing.T) {
	t.Setenv("ENTROPACK_PASSWORD", "")
	dir := t.TempDir()
	var folders []string
	for _, name := range []string{"one", "two"} {
		folder := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Join(folder, "nested"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(folder, "nested", "f.txt"), []byte(name+name+name), 0644); err != nil {
			t.Fatal(err)
		}
		folders = append(folders, folder)
	}

	args := append([]string{"compress-folder", "-parallel", "-algo", "sf"}, folders...)
	if code, _, stderr := runCLI(t, context.Background(), "", args...); code != exitOK {
		t.Fatalf("compress-folder exit %d: %s", code, stderr)
	}
	args = []string{"decompress-folder", "-parallel"}
	for _, f := range folders {
		args = append(args, f+".shf_archive")
	}
	if code, _, stderr := runCLI(t, context.Background(), "", args...); code != exitOK {
		t.Fatalf("decompress-folder exit %d: %s", code, stderr)
	}
	for _, name := range []string{"one", "two"} {
		got, err := os.ReadFile(filepath.Join(dir, name+"_extracted", "nested", "f.txt"))
		if err != nil || string(got) != name+name+name {
			t.Fatalf("%s: got %q, %v", name, got, err)
		}
	}
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "c.txt")
	if err := os.WriteFile(src, bytes.Repeat([]byte("compare me "), 100), 0644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := runCLI(t, context.Background(), "", "compare", src)
	if code != exitOK {
		t.Fatalf("compare exit %d: %s", code, stderr)
	}
	for _, name := range []string{"Huffman", "Shannon-Fano", "LZ4", "Zstandard"} {
		if !strings.Contains(stdout, name) {
			t.Errorf("report missing %s", name)
		}
	}
}

func TestUsageAndErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, exitUsage},
		{"unknown operation", []string{"explode", "x"}, exitUsage},
		{"no inputs", []string{"compress"}, exitUsage},
		{"bad flag", []string{"compress", "-nope", "x"}, exitUsage},
		{"parallel with output", []string{"decompress", "-parallel", "-o", dir, "a.huff", "b.huff"}, exitUsage},
		{"bad algorithm", []string{"compress", "-algo", "lzw", filepath.Join(dir, "x")}, exitFailure},
		{"missing input", []string{"compress", filepath.Join(dir, "missing")}, exitFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code, _, _ := runCLI(t, context.Background(), "", tc.args...); code != tc.want {
				t.Fatalf("exit %d, want %d", code, tc.want)
			}
		})
	}
}

func TestCancelledCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "c.txt")
	if err := os.WriteFile(src, []byte("cancel me"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, stdout, _ := runCLI(t, ctx, "", "compress", src)
	if code != exitCancelled {
		t.Fatalf("exit %d, want %d", code, exitCancelled)
	}
	if !strings.Contains(stdout, "operation cancelled") {
		t.Fatalf("stdout = %q", stdout)
	}
	if _, err := os.Stat(src + ".huff"); !os.IsNotExist(err) {
		t.Fatalf("archive written after cancellation: %v", err)
	}
}
