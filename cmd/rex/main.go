package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/rex/internal/column"
	"github.com/jacoelho/rex/internal/config"
	"github.com/jacoelho/rex/internal/record"
	"github.com/jacoelho/rex/internal/table"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, exitResult := config.Parse(os.Args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.Code
	}

	output, err := produce(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.OutputFile == "" {
		fmt.Fprint(os.Stdout, output)
		return 0
	}

	if err := os.WriteFile(cfg.OutputFile, []byte(output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", cfg.OutputFile, err)
		return 1
	}

	return 0
}

func produce(cfg *config.Config) (string, error) {
	columns, err := loadColumns(cfg.ColumnsFile)
	if err != nil {
		return "", err
	}

	records, err := loadRecords(cfg.RecordFiles)
	if err != nil {
		return "", err
	}

	return table.Produce(records, columns, cfg.Format)
}

func loadColumns(path string) (column.Columns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open columns file: %w", err)
	}
	defer f.Close()

	return column.Load(f, path)
}

func loadRecords(files []string) ([]any, error) {
	if len(files) == 0 {
		return decodeRecords(os.Stdin, "stdin")
	}

	var records []any
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open records file: %w", err)
		}

		decoded, err := decodeRecords(f, file)
		f.Close()
		if err != nil {
			return nil, err
		}
		records = append(records, decoded...)
	}

	return records, nil
}

func decodeRecords(r io.Reader, source string) ([]any, error) {
	records, err := record.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return records, nil
}
