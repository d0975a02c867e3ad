package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

var (
	// ErrReadInput indicates a failure reading or decoding an input file.
	ErrReadInput = errors.New("reading input")
	// ErrWriteOutput indicates a failure writing output.
	ErrWriteOutput = errors.New("writing output")
)

// readInput returns the contents of path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %w", ErrReadInput, err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // Input path from CLI arg is expected.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return data, nil
}

// readValue reads path and decodes it as JSON or YAML.
func readValue(path string) (any, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	return decodeValue(data)
}

// decodeValue decodes JSON or YAML bytes into JSON-shaped values
// (map[string]any, []any, float64, string, bool, nil). YAML goes through a
// JSON round trip so numbers always land as float64.
func decodeValue(data []byte) (any, error) {
	jsonBytes, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	var value any

	err = json.Unmarshal(jsonBytes, &value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return value, nil
}

// writeJSON marshals value with two-space indentation and writes it to path,
// or stdout when path is "-" or empty.
func writeJSON(path string, value any) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	out = append(out, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(out)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}

		return nil
	}

	err = os.WriteFile(path, out, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}
