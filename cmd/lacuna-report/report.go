//nolint:wrapcheck
package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/farcloser/lacuna"
	"github.com/farcloser/lacuna/internal/capture"
	"github.com/farcloser/lacuna/internal/output"
)

const outputFile = "lacuna-report.jsonl"

var (
	errNotDirectory = errors.New("not a directory")
	errNoCaptures   = errors.New("no .msbc, .h2 or .rtp files found")
	errReportArgs   = errors.New("expected exactly one argument: folder path")
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a folder of SCO captures and write a lacuna JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.StringFlag{
				Name:    "profile",
				Aliases: []string{"P"},
				Usage:   "Override the controller profile for all files: default, zero-fill, strict (default: auto-detect from path)",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file",
				Value:   outputFile,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errReportArgs
			}

			folder := cmd.Args().First()
			redact := cmd.Bool("redact-path")
			profileOverride := cmd.String("profile")
			workers := max(cmd.Int("workers"), 1)

			return runReport(ctx, folder, cmd.String("output"), redact, profileOverride, workers)
		},
	}
}

func runReport(ctx context.Context, folder, reportPath string, redact bool, profileOverride string, workers int) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	if profileOverride != "" {
		if _, err := lacuna.ParseProfile(profileOverride); err != nil {
			return err
		}
	}

	files, err := collectCaptures(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoCaptures)
	}

	fmt.Fprintf(os.Stderr, "Found %d captures to classify (%d workers)\n", len(files), workers)

	startTime := time.Now()
	results := make([]Record, len(files))

	var progress atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for idx, filePath := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			results[idx] = processFile(filePath, profileOverride)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	// Write results in file order.
	out, err := os.Create(reportPath) //nolint:gosec // user-chosen report path
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var frames, lost uint64

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Analysis != nil {
			if summary, ok := record.Analysis["summary"].(map[string]any); ok {
				frames += asUint(summary["frames"])
				lost += asUint(summary["lost"])
			}
		}

		if redact {
			record.File = ""
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "file", files[idx], "error", err)
		}
	}

	out.Close()

	if err := compressFile(reportPath); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)

	fmt.Fprintf(os.Stderr, "\nDone: %d captures, %d frames (%d lost) in %s (%d failed)\n",
		len(files), frames, lost, elapsed.Truncate(time.Millisecond), failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", reportPath, reportPath)

	fmt.Fprintln(os.Stderr)

	return runDigest(reportPath, "")
}

func processFile(filePath, profileOverride string) Record {
	fileStart := time.Now()
	timing := &RecordTiming{}

	format, err := capture.FormatForPath(filePath)
	if err != nil {
		return Record{File: filePath, Error: err.Error()}
	}

	profile, err := detectProfile(filePath, profileOverride)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("invalid profile: %v", err)}
	}

	readStart := time.Now()

	data, err := os.ReadFile(filePath) //nolint:gosec // CLI tool opens user-specified captures
	timing.ReadMs = durationMs(time.Since(readStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("open failed: %v", err), Timing: timing}
	}

	result, err := lacuna.Analyze(bytes.NewReader(data), lacuna.Input{Format: format.String()},
		lacuna.OptionsForProfile(profile))

	timing.TotalMs = durationMs(time.Since(fileStart))

	if err != nil {
		return Record{File: filePath, Format: format.String(), Error: fmt.Sprintf("classification failed: %v", err), Timing: timing}
	}

	analysis := output.ReportToMap(result.Report)
	analysis["capture"] = map[string]any{
		"packets":      result.Capture.Packets,
		"packets_lost": result.Capture.PacketsLost,
		"restarts":     result.Capture.Restarts,
	}

	return Record{
		File:     filePath,
		Format:   format.String(),
		Profile:  profile.String(),
		Analysis: analysis,
		Timing:   timing,
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func asUint(value any) uint64 {
	if v, ok := value.(uint64); ok {
		return v
	}

	return 0
}

func detectProfile(filePath, profileOverride string) (lacuna.Profile, error) {
	if profileOverride != "" {
		return lacuna.ParseProfile(profileOverride)
	}

	lower := strings.ToLower(filepath.Dir(filePath))

	if strings.Contains(lower, "zero-fill") {
		return lacuna.ProfileZeroFill, nil
	}

	return lacuna.ProfileDefault, nil
}

func collectCaptures(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if _, err := capture.FormatForPath(path); err == nil {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz") //nolint:gosec // next to our own output file
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}
