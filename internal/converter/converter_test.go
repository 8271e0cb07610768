package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"explainer.ipynb", "analysis.ipynb", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	want := []string{filepath.Join(dir, "analysis.ipynb"), filepath.Join(dir, "explainer.ipynb")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestConvertContinuesOnFailure(t *testing.T) {
	outDir := t.TempDir()
	var (
		mu    sync.Mutex
		calls [][]string
	)
	c := &Converter{
		OutputDir: outDir,
		Jobs:      2,
		Logger:    zerolog.Nop(),
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			mu.Lock()
			calls = append(calls, append([]string{name}, args...))
			mu.Unlock()
			if strings.HasSuffix(args[len(args)-1], "broken.ipynb") {
				return []byte("Traceback\nNotJSONError: not a notebook\n"), errors.New("exit status 1")
			}
			return nil, nil
		},
	}

	notebooks := []string{"nb/analysis.ipynb", "nb/broken.ipynb", "nb/explainer.ipynb"}
	results := c.Convert(context.Background(), notebooks)

	if len(calls) != 3 {
		t.Fatalf("expected 3 nbconvert runs, got %d", len(calls))
	}
	wantArgs := []string{"jupyter", "nbconvert", "--to", "html", "--output-dir", outDir}
	for _, call := range calls {
		if !reflect.DeepEqual(call[:len(wantArgs)], wantArgs) {
			t.Errorf("unexpected command %v", call)
		}
	}

	for i, r := range results {
		if r.Notebook != notebooks[i] {
			t.Errorf("result %d: expected %s, got %s", i, notebooks[i], r.Notebook)
		}
	}
	if results[0].Err != nil || results[0].HTML != filepath.Join(outDir, "analysis.html") {
		t.Errorf("unexpected result %+v", results[0])
	}
	if results[1].Err == nil || !strings.Contains(results[1].Err.Error(), "NotJSONError: not a notebook") {
		t.Errorf("expected failure with command detail, got %v", results[1].Err)
	}
	if results[1].HTML != "" {
		t.Errorf("expected no page for a failed notebook, got %s", results[1].HTML)
	}
	if results[2].Err != nil {
		t.Errorf("expected conversion after a failure, got %v", results[2].Err)
	}
}

func TestWriteIndex(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "site")
	c := &Converter{OutputDir: outDir}

	path, err := c.WriteIndex([]Result{
		{Notebook: "notebooks/analysis.ipynb", HTML: filepath.Join(outDir, "analysis.html")},
		{Notebook: "notebooks/explainer.ipynb", Err: errors.New("exit status 1")},
	})
	if err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}
	if path != filepath.Join(outDir, IndexFile) {
		t.Errorf("expected index in output dir, got %s", path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if !strings.Contains(out, `<a href="analysis.html">analysis</a>`) {
		t.Error("expected a link to the converted page")
	}
	if !strings.Contains(out, "Conversion failed: exit status 1") {
		t.Error("expected the failed notebook to be listed")
	}
}

func TestDetail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  \n", ""},
		{"single", ": single"},
		{"first\nlast\n", ": last"},
	}
	for _, tt := range tests {
		if got := detail([]byte(tt.in)); got != tt.want {
			t.Errorf("detail(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
