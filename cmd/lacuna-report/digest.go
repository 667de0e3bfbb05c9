package main

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/farcloser/primordium/fault"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/lacuna"
)

const worstSessions = 10

var errDigestArgs = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a lacuna JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "classification",
				Usage: "Show sessions affected by a specific classification (e.g., radio-conflict, controller-mute)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errDigestArgs
			}

			filter := cmd.String("classification")
			if filter != "" {
				if _, err := lacuna.ParseClassification(filter); err != nil {
					return err
				}
			}

			return runDigest(cmd.Args().First(), filter)
		},
	}
}

func runDigest(reportPath, filter string) error {
	records, err := readRecords(reportPath)
	if err != nil {
		return err
	}

	printDigest(records)

	if filter != "" {
		printClassificationDetail(records, filter)
	}

	return nil
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("%w: opening report: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	var records []digestRecord

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for line := 1; scanner.Scan(); line++ {
		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			slog.Warn("skipping record", "line", line, "error", fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err))

			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading report: %w", fault.ErrReadFailure, err)
	}

	return records, nil
}

func lossBand(percent float64) string {
	switch {
	case percent == 0:
		return "clean"
	case percent < 1:
		return "under 1%"
	case percent < 5:
		return "1-5%"
	default:
		return "over 5%"
	}
}

func printDigest(records []digestRecord) {
	failed := 0
	bands := map[string]int{}
	totals := map[string]*classificationTotal{}

	var frames, lost uint64

	analyzed := make([]digestRecord, 0, len(records))

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			failed++

			continue
		}

		analyzed = append(analyzed, rec)

		summary := rec.Analysis.Summary
		frames += summary.Frames
		lost += summary.Lost
		bands[lossBand(summary.LossPercent)]++

		for name, count := range rec.Analysis.Counts {
			if count == 0 || name == lacuna.Pass.String() {
				continue
			}

			total, ok := totals[name]
			if !ok {
				total = &classificationTotal{Classification: name}
				totals[name] = total
			}

			total.Frames += count
			total.Sessions++
		}
	}

	fmt.Println("=== Lacuna Report Digest ===")
	fmt.Println()
	fmt.Printf("Total sessions:  %d\n", len(records))
	fmt.Printf("Failed:          %d\n", failed)
	fmt.Printf("Analyzed:        %d\n", len(analyzed))
	fmt.Printf("Frames:          %d (%d lost, %.2f%%)\n", frames, lost, percentOf(lost, frames))
	fmt.Println()

	fmt.Println("--- Loss Per Session ---")

	for _, band := range []string{"clean", "under 1%", "1-5%", "over 5%"} {
		fmt.Printf("  %-9s  %d\n", band+":", bands[band])
	}

	fmt.Println()

	fmt.Println("--- Losses By Classification ---")

	breakdown := make([]*classificationTotal, 0, len(totals))
	for _, total := range totals {
		breakdown = append(breakdown, total)
	}

	slices.SortFunc(breakdown, func(a, b *classificationTotal) int {
		return cmp.Or(cmp.Compare(b.Frames, a.Frames), cmp.Compare(a.Classification, b.Classification))
	})

	for _, total := range breakdown {
		fmt.Printf("  %s\n", total.Classification)
		fmt.Printf("    frames: %d  sessions: %d\n", total.Frames, total.Sessions)
	}

	if len(analyzed) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("--- Worst Sessions ---")

	slices.SortStableFunc(analyzed, func(a, b digestRecord) int {
		return cmp.Compare(b.Analysis.Summary.LossPercent, a.Analysis.Summary.LossPercent)
	})

	for _, rec := range analyzed[:min(worstSessions, len(analyzed))] {
		summary := rec.Analysis.Summary
		fmt.Printf("  %s\n", displayName(rec.File))
		fmt.Printf("    loss: %.2f%%  frames: %d  longest burst: %d\n",
			summary.LossPercent, summary.Frames, rec.Analysis.Bursts.Longest)
	}
}

func printClassificationDetail(records []digestRecord, classification string) {
	fmt.Println()

	var affected []digestRecord

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil || rec.Analysis.Counts[classification] == 0 {
			continue
		}

		affected = append(affected, rec)
	}

	if len(affected) == 0 {
		fmt.Printf("No sessions affected by %s\n", classification)

		return
	}

	slices.SortStableFunc(affected, func(a, b digestRecord) int {
		return cmp.Compare(b.Analysis.Counts[classification], a.Analysis.Counts[classification])
	})

	fmt.Printf("=== %s: %d sessions ===\n\n", classification, len(affected))

	for _, rec := range affected {
		count := rec.Analysis.Counts[classification]
		bursts := rec.Analysis.Bursts

		fmt.Printf("  %s\n", displayName(rec.File))
		fmt.Printf("    frames: %d (%.2f%% of session)\n", count, percentOf(count, rec.Analysis.Summary.Frames))
		fmt.Printf("    bursts: %d  mean: %.1f  p95: %.0f\n", bursts.Count, bursts.Mean, bursts.P95)
		fmt.Println()
	}
}

func displayName(file string) string {
	if file == "" {
		return "(redacted)"
	}

	return file
}

func percentOf(part, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return 100 * float64(part) / float64(total)
}
