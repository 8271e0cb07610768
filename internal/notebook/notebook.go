package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// Notebook is an .ipynb document. Only cells are modelled; every other field,
// at the top level and per cell, is carried through untouched.
type Notebook struct {
	fields map[string]json.RawMessage
	Cells  []*Cell
}

// Cell is a single notebook cell.
type Cell struct {
	Type string

	fields       map[string]json.RawMessage
	source       []string
	sourceString bool // source was stored as one string rather than a list
}

// Load reads and parses a notebook file.
func Load(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	nb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nb, nil
}

// Parse decodes notebook JSON.
func Parse(data []byte) (*Notebook, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	rawCells, ok := fields["cells"]
	if !ok {
		return nil, errors.New("notebook has no cells")
	}

	var cells []map[string]json.RawMessage
	if err := json.Unmarshal(rawCells, &cells); err != nil {
		return nil, fmt.Errorf("invalid cells: %w", err)
	}

	nb := &Notebook{fields: fields, Cells: make([]*Cell, 0, len(cells))}
	for i, cf := range cells {
		c, err := parseCell(cf)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		nb.Cells = append(nb.Cells, c)
	}
	return nb, nil
}

func parseCell(fields map[string]json.RawMessage) (*Cell, error) {
	c := &Cell{fields: fields}
	if raw, ok := fields["cell_type"]; ok {
		if err := json.Unmarshal(raw, &c.Type); err != nil {
			return nil, fmt.Errorf("invalid cell_type: %w", err)
		}
	}

	raw, ok := fields["source"]
	if !ok {
		return c, nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid source: %w", err)
		}
		c.source = []string{s}
		c.sourceString = true
		return c, nil
	}
	if err := json.Unmarshal(raw, &c.source); err != nil {
		return nil, fmt.Errorf("invalid source: %w", err)
	}
	return c, nil
}

// Marshal encodes the notebook with one-space indentation, as Jupyter tooling
// does, without HTML-escaping cell text.
func (nb *Notebook) Marshal() ([]byte, error) {
	cells := make([]map[string]json.RawMessage, 0, len(nb.Cells))
	for _, c := range nb.Cells {
		cf, err := c.marshalFields()
		if err != nil {
			return nil, err
		}
		cells = append(cells, cf)
	}

	fields := make(map[string]json.RawMessage, len(nb.fields))
	for k, v := range nb.fields {
		fields[k] = v
	}
	rawCells, err := encode(cells)
	if err != nil {
		return nil, err
	}
	fields["cells"] = rawCells

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save atomically replaces path with the encoded notebook.
func (nb *Notebook) Save(path string) error {
	data, err := nb.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode notebook: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CodeCells returns the code cells in document order.
func (nb *Notebook) CodeCells() []*Cell {
	var out []*Cell
	for _, c := range nb.Cells {
		if c.IsCode() {
			out = append(out, c)
		}
	}
	return out
}

// IsCode reports whether the cell holds code.
func (c *Cell) IsCode() bool {
	return c.Type == "code"
}

// Text returns the cell source as a single string.
func (c *Cell) Text() string {
	return strings.Join(c.source, "")
}

// Lines returns a copy of the source lines.
func (c *Cell) Lines() []string {
	return append([]string(nil), c.source...)
}

// SetSource replaces the source. The cell is written back in list form.
func (c *Cell) SetSource(lines []string) {
	c.source = append([]string(nil), lines...)
	c.sourceString = false
}

// ReplaceAll substitutes new for old. List sources are edited line by line,
// so a match spanning two lines is not replaced.
func (c *Cell) ReplaceAll(old, new string) bool {
	changed := false
	for i, line := range c.source {
		if strings.Contains(line, old) {
			c.source[i] = strings.ReplaceAll(line, old, new)
			changed = true
		}
	}
	return changed
}

// ClearOutputs drops outputs and the execution count from a code cell.
func (c *Cell) ClearOutputs() {
	if !c.IsCode() {
		return
	}
	c.fields["outputs"] = json.RawMessage("[]")
	c.fields["execution_count"] = json.RawMessage("null")
}

func (c *Cell) marshalFields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}

	var src interface{} = c.source
	if c.sourceString {
		src = c.Text()
	} else if c.source == nil {
		src = []string{}
	}
	raw, err := encode(src)
	if err != nil {
		return nil, err
	}
	fields["source"] = raw
	return fields, nil
}

func encode(v interface{}) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// SplitLines splits text into notebook source lines, each keeping its
// trailing newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
