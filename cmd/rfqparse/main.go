// Command rfqparse batch-parses RFQ comparison workbooks from the command
// line. With -db it loads the results into the store; without it the parse
// summary (or full JSON with -json) is printed and nothing is persisted.
//
//	rfqparse -db data/rfq.db St105_ME0003_AUDUBON_11-10-2025.xlsx ...
//	rfqparse -db data/rfq.db -dir incoming/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"rfqpulse/internal/files"
	"rfqpulse/internal/parsing"
	"rfqpulse/internal/store"
	"rfqpulse/internal/validation"
	"rfqpulse/pkg/contracts/domain"
)

func main() {
	var (
		dbPath   = flag.String("db", "", "load parsed workbooks into this database")
		dir      = flag.String("dir", "", "parse every workbook in this directory")
		sheet    = flag.String("sheet", "", "sheet name (default: auto-select)")
		jsonOut  = flag.Bool("json", false, "print full parse results as JSON")
		replace  = flag.Bool("replace", false, "overwrite RFQs already loaded")
		workers  = flag.Int("workers", 4, "concurrent parse workers")
		logLevel = flag.String("log-level", "warn", "log level (debug|info|warn|error)")
	)
	flag.Parse()

	paths := flag.Args()
	if *dir != "" {
		found, err := files.FindWorkbooks(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rfqparse: %v\n", err)
			os.Exit(1)
		}
		for _, f := range found {
			paths = append(paths, f.Path)
		}
	}

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: rfqparse [flags] workbook.xlsx ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(paths, *dbPath, *sheet, *jsonOut, *replace, *workers, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "rfqparse: %v\n", err)
		os.Exit(1)
	}
}

func run(paths []string, dbPath, sheet string, jsonOut, replace bool, workers int, logLevel string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var st *store.Store
	if dbPath != "" {
		var err error
		st, err = store.Open(dbPath, logger)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	failed := 0
	validator := validation.NewWorkbookValidator(logger)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	for _, path := range paths {
		g.Go(func() error {
			var result *parsing.Result
			err := validator.ValidateWorkbook(path)
			if err == nil {
				result, err = parsing.ParseFile(path, sheet, logger)
			}

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				return nil // keep parsing the rest of the batch
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				fmt.Printf("%s: format %s, %d items, %d bids, %d bidders\n",
					filepath.Base(path), result.Variant,
					len(result.Items), len(result.Bids), len(result.Bidders))
				for _, w := range result.Warnings {
					fmt.Printf("  warning: %s\n", w)
				}
			}

			if st == nil {
				return nil
			}
			return load(ctx, st, path, result, replace)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d workbooks failed to parse", failed, len(paths))
	}
	return nil
}

// load persists one parsed workbook under the identity recovered from its
// filename. Files that do not follow the naming convention fall back to the
// bare filename stem as the RFQ id.
func load(ctx context.Context, st *store.Store, path string, result *parsing.Result, replace bool) error {
	sol := domain.Solicitation{
		SourceFile: filepath.Base(path),
		SheetName:  result.Sheet,
	}

	if meta, ok := parsing.MetadataFromFilename(path); ok {
		sol.ID = meta.ID
		sol.Station = meta.Station
		sol.Creator = meta.Creator
		sol.Date = meta.Date
	} else {
		base := filepath.Base(path)
		sol.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	exists, err := st.Exists(ctx, sol.ID)
	if err != nil {
		return err
	}
	if exists && !replace {
		fmt.Fprintf(os.Stderr, "%s: RFQ %s already loaded, skipping (use -replace)\n", path, sol.ID)
		return nil
	}

	if err := st.LoadResult(ctx, sol, result); err != nil {
		return fmt.Errorf("load %s: %w", sol.ID, err)
	}
	fmt.Printf("%s: loaded as %s\n", filepath.Base(path), sol.ID)
	return nil
}
