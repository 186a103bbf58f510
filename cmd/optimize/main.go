package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fleet-route-optimizer/internal/adapters/solver"
	"fleet-route-optimizer/internal/adapters/spreadsheet"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/services"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func main() {
	var (
		backend   = flag.String("solver", "simplex", "solver backend: simplex or highs")
		timeout   = flag.Duration("timeout", 60*time.Second, "maximum solve time")
		nodeLimit = flag.Int("node-limit", 100000, "branch and bound node limit (simplex backend)")
		outPath   = flag.String("o", "", "output file (default stdout)")
		asXLSX    = flag.Bool("xlsx", false, "write the result as an xlsx workbook")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <input.json|input.yaml|input.xlsx>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	doc, err := readInput(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	newSolver, err := solver.NewFactory(solver.Options{Backend: *backend, NodeLimit: *nodeLimit, MaxDuration: *timeout})
	if err != nil {
		log.Fatal(err)
	}

	res, err := services.NewEngine(newSolver).Optimize(ctx, doc)
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if *asXLSX {
		err = spreadsheet.NewWorkbookWriter().ExportResult(&buf, res)
	} else {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := writeOutput(*outPath, buf.Bytes()); err != nil {
		log.Fatal(err)
	}
}

// readInput decodes an input document, picking the format from the file extension.
func readInput(path string) (domain.InputDocument, error) {
	var doc domain.InputDocument

	f, err := os.Open(path)
	if err != nil {
		return doc, fmt.Errorf("read input: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return spreadsheet.NewWorkbookReader().ParseInput(f)
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(f).Decode(&doc); err != nil && err != io.EOF {
			return doc, fmt.Errorf("read input: decode yaml %q: %w", path, err)
		}
	case ".json":
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return doc, fmt.Errorf("read input: decode json %q: %w", path, err)
		}
	default:
		return doc, fmt.Errorf("read input: unsupported file type %q", ext)
	}
	return doc, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
