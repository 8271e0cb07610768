package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zachdehooge/nyc-collisions/internal/config"
)

const crashes = `CRASH DATE,CRASH TIME,BOROUGH,LATITUDE,LONGITUDE,NUMBER OF PERSONS INJURED,NUMBER OF PERSONS KILLED,VEHICLE TYPE CODE 1,VEHICLE TYPE CODE 2,CONTRIBUTING FACTOR VEHICLE 1,CONTRIBUTING FACTOR VEHICLE 2
05/01/2025,8:15,BROOKLYN,40.6782,-73.9442,1,0,Sedan,Bike,Driver Inattention/Distraction,Unspecified
05/01/2025,17:40,MANHATTAN,40.7831,-73.9712,0,1,Taxi,,Unsafe Speed,
05/02/2025,23:05,,,,0,0,Sedan,,Unspecified,
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPath, "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMapCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "crashes.csv")
	output := filepath.Join(dir, "map.html")
	if err := os.WriteFile(input, []byte(crashes), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "map", "-i", input, "-o", output, "--sample-size", "1")
	if err != nil {
		t.Fatalf("map failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Collision map saved to "+output+" (2 heatmap points, 1 markers)") {
		t.Errorf("unexpected output %q", out)
	}

	b, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "L.heatLayer([[40.6782,-73.9442],[40.7831,-73.9712]],") {
		t.Error("expected both located collisions in the heatmap")
	}
}

func TestMapCommandMissingInput(t *testing.T) {
	if _, err := execute(t, "map", "-i", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing input file")
	}
}

func TestMapCommandRejectsNonPositiveSizes(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "crashes.csv")
	output := filepath.Join(dir, "map.html")
	if err := os.WriteFile(input, []byte(crashes), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--sample-size", "0"}, "--sample-size must be positive, got 0"},
		{[]string{"--chunk-size", "-5"}, "--chunk-size must be positive, got -5"},
	}
	for _, tt := range tests {
		args := append([]string{"map", "-i", input, "-o", output}, tt.args...)
		_, err := execute(t, args...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: expected error %q, got %v", tt.args, tt.want, err)
		}
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("expected no map written for rejected flags")
	}
}

func TestSummaryCommand(t *testing.T) {
	input := filepath.Join(t.TempDir(), "crashes.csv")
	if err := os.WriteFile(input, []byte(crashes), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "summary", "-i", input)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{"Collisions: 2", "Persons killed: 1", "BROOKLYN", "MANHATTAN", "(1 without usable coordinates)",
		"Daily average: 2.0 over 1 day(s)", "Peak hours: 8AM-8AM", "Top factor: Driver Inattention/Distraction (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestNotebookCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "explainer.ipynb")
	nb := `{"cells": [{"cell_type": "code", "metadata": {}, "outputs": [], "execution_count": null, "source": ["plt.style.use('seaborn')\n"]}], "metadata": {}, "nbformat": 4, "nbformat_minor": 5}`
	if err := os.WriteFile(good, []byte(nb), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "notebook", "fix-style", filepath.Join(dir, "missing.ipynb"), good)
	if err == nil {
		t.Error("expected an error when a notebook fails")
	}
	if !strings.Contains(out, good+": 1 cell(s) updated by fix-style") {
		t.Errorf("expected the good notebook to be patched:\n%s", out)
	}
}
