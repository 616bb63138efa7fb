// Package jsonutil holds the JSON helpers shared by the Odonto commands.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Write encodes v to w with two-space indentation and a trailing newline.
func Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFile writes v to path as indented JSON.
func WriteFile(path string, v any) error {
	var buf bytes.Buffer
	if err := Write(&buf, v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Decode reads exactly one JSON value from r into v. Unknown object
// fields and trailing data are errors.
func Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// ReadFile decodes the JSON file at path into v with Decode rules.
func ReadFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Decode(f, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
