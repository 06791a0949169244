package source

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.pdf", "a.PDF", "notes.txt", "c.pdf")
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := ListPDFs(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a.PDF", "b.pdf", "c.pdf"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, name := range want {
		if filepath.Base(got[i]) != name {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestListPDFsSingleFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "cv.pdf")
	path := filepath.Join(dir, "cv.pdf")

	got, err := ListPDFs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != path {
		t.Fatalf("expected the file itself, got %v", got)
	}
}

func TestListPDFsMissing(t *testing.T) {
	_, err := ListPDFs(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	w := zip.NewWriter(f)
	for name, body := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := entry.Write([]byte(body)); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestUnzip(t *testing.T) {
	archive := writeZip(t, map[string]string{"ana.pdf": "a", "docs/bruno.pdf": "b"})
	dest := t.TempDir()

	written, err := Unzip(archive, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 files, got %v", written)
	}

	data, err := os.ReadFile(filepath.Join(dest, "docs", "bruno.pdf"))
	if err != nil || string(data) != "b" {
		t.Fatalf("unexpected nested file: %q, %v", data, err)
	}

	pdfs, err := ListPDFs(dest)
	if err != nil || len(pdfs) != 1 {
		t.Fatalf("expected only top level pdfs, got %v, %v", pdfs, err)
	}
}

func TestUnzipRejectsTraversal(t *testing.T) {
	archive := writeZip(t, map[string]string{"../evil.pdf": "x"})

	dest := t.TempDir()
	if _, err := Unzip(archive, dest); err == nil {
		t.Fatal("expected traversal error")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "evil.pdf")); err == nil {
		t.Fatal("entry was written outside the destination")
	}
}
