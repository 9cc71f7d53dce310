// Package config parses the rex command line.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/rex/internal/exit"
	"github.com/jacoelho/rex/internal/table"
)

var (
	ErrNoArguments   = errors.New("no arguments provided")
	ErrNoColumnsFile = errors.New("no columns file specified")
)

// Config represents the complete configuration for the rex tool.
type Config struct {
	ColumnsFile string
	Format      table.Format
	OutputFile  string   // empty means stdout
	RecordFiles []string // empty means stdin
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.ColumnsFile == "" {
		return ErrNoColumnsFile
	}

	if _, err := os.Stat(c.ColumnsFile); err != nil {
		return fmt.Errorf("columns file %s not found: %w", c.ColumnsFile, err)
	}

	for _, file := range c.RecordFiles {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("records file %s not found: %w", file, err)
		}
	}

	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage and error output since we handle both ourselves.
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	var (
		columnsFile = fs.String("columns", "", "Path to the columns file (YAML or JSON)")
		format      = fs.String("format", "csv", "Output format: raw, csv or pretty")
		outputFile  = fs.String("output", "", "Write output to this file instead of stdout")
	)

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Errorf("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	parsedFormat, err := table.ParseFormat(*format)
	if err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	config := &Config{
		ColumnsFile: *columnsFile,
		Format:      parsedFormat,
		OutputFile:  *outputFile,
		RecordFiles: fs.Args(),
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	return config, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `rex - extract tables from nested records

Usage: rex -columns FILE [options] [records-file ...]

Records are read from the given files, or from stdin when no files are
given. Records and columns files may be JSON or YAML.

Options:
  -columns FILE   Path to the columns file (required)
  -format FORMAT  Output format: raw, csv or pretty (default: csv)
  -output FILE    Write output to this file instead of stdout
  -h, -help       Show this help message

Examples:
  rex -columns columns.yaml records.json        # CSV to stdout
  rex -columns columns.yaml -format pretty data.yaml
  cat records.json | rex -columns columns.json -output table.csv`
}
