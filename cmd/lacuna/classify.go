//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/lacuna"
	"github.com/farcloser/lacuna/internal/capture"
	"github.com/farcloser/lacuna/internal/output"
	"github.com/farcloser/lacuna/internal/telemetry"
	"github.com/farcloser/lacuna/version"
)

var (
	errInvalidArgCount  = errors.New("expected exactly one argument: capture file or \"-\" for stdin")
	errInvalidPattern   = errors.New("mute pattern must be a single byte, e.g. 0x55")
	errInvalidIndex     = errors.New("burst index must be below the frame length")
	errUnknownCheckName = errors.New("unknown check")
)

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Classify every frame of an SCO capture and report packet loss",
		ArgsUsage: "<file | ->",
		Flags: []cli.Flag{
			// Capture layout.
			&cli.StringFlag{
				Name:    "input-format",
				Aliases: []string{"i"},
				Usage:   "Capture layout: auto, raw, indexed, rtp (auto: from the file extension, raw for stdin)",
				Value:   "auto",
			},
			&cli.UintFlag{
				Name:    "burst-index",
				Aliases: []string{"b"},
				Usage:   "Burst index reported for raw and rtp frames",
			},

			// Detector configuration.
			&cli.StringFlag{
				Name:    "profile",
				Aliases: []string{"P"},
				Usage:   "Controller profile: default, zero-fill, strict",
				Value:   "default",
			},
			&cli.StringFlag{
				Name:    "checks",
				Aliases: []string{"C"},
				Usage:   "Comma-separated checks or presets, overriding the profile: default, all, none, crc, padding, trailing-zero, sequence, conflict, patterns",
			},
			&cli.StringFlag{
				Name:  "mute-pattern",
				Usage: "Filler byte the controller substitutes for lost frames, overriding the profile (e.g. 0x55)",
			},
			&cli.BoolFlag{
				Name:  "sync-hacker",
				Usage: "Accept the alternate H2 sync byte",
			},

			// Output.
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown",
				Value:   "console",
			},
			&cli.BoolFlag{
				Name:  "frames",
				Usage: "List every frame that did not pass",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"D"},
				Usage:   "Include raw report data in output and enable debug logging",
			},

			// Telemetry.
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "Publish the report to this NATS server",
				Sources: cli.EnvVars("LACUNA_NATS_URL"),
			},
			&cli.StringFlag{
				Name:    "nats-subject",
				Usage:   "Subject prefix for published reports",
				Value:   telemetry.DefaultSubject,
				Sources: cli.EnvVars("LACUNA_NATS_SUBJECT"),
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			debug := cmd.Bool("debug")
			if debug {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			opts, err := parseOptions(cmd)
			if err != nil {
				return err
			}

			inputPath := cmd.Args().First()

			input, err := parseInput(cmd, inputPath)
			if err != nil {
				return err
			}

			src, cleanup, err := openInput(inputPath)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := lacuna.Analyze(src, input, opts)
			if err != nil {
				return fmt.Errorf("classification failed: %w", err)
			}

			if url := cmd.String("nats-url"); url != "" {
				if err := publish(url, cmd.String("nats-subject"), sessionName(inputPath), result); err != nil {
					return err
				}
			}

			return outputResult(inputPath, result, cmd.String("format"), debug)
		},
	}
}

func parseOptions(cmd *cli.Command) (lacuna.Options, error) {
	profile, err := lacuna.ParseProfile(cmd.String("profile"))
	if err != nil {
		return lacuna.Options{}, err
	}

	opts := lacuna.OptionsForProfile(profile)

	if cmd.IsSet("checks") {
		if opts.Checks, err = parseChecks(cmd.String("checks")); err != nil {
			return lacuna.Options{}, err
		}
	}

	if cmd.IsSet("mute-pattern") {
		if opts.MutePattern, err = parseByte(cmd.String("mute-pattern")); err != nil {
			return lacuna.Options{}, err
		}
	}

	opts.SyncHacker = cmd.Bool("sync-hacker")

	return opts, nil
}

func parseInput(cmd *cli.Command, inputPath string) (lacuna.Input, error) {
	input := lacuna.Input{
		Format:     cmd.String("input-format"),
		BurstIndex: cmd.Uint("burst-index"),
		Trace:      cmd.Bool("frames"),
	}

	if input.BurstIndex >= lacuna.FrameLength {
		return lacuna.Input{}, fmt.Errorf("%w: %d", errInvalidIndex, input.BurstIndex)
	}

	if input.Format != "auto" {
		return input, nil
	}

	if inputPath == "-" {
		input.Format = capture.FormatRaw.String()

		return input, nil
	}

	format, err := capture.FormatForPath(inputPath)
	if err != nil {
		return lacuna.Input{}, fmt.Errorf("%w (use --input-format)", err)
	}

	input.Format = format.String()

	return input, nil
}

//nolint:gochecknoglobals
var checkNames = map[string]lacuna.Check{
	"crc":           lacuna.CheckCRC,
	"padding":       lacuna.CheckPadding,
	"trailing-zero": lacuna.CheckTrailingZero,
	"sequence":      lacuna.CheckSequence,
	"conflict":      lacuna.CheckConflict,
	"patterns":      lacuna.CheckPatterns,
	// Presets.
	"default": lacuna.ChecksDefault,
	"all":     lacuna.ChecksAll,
	"none":    lacuna.ChecksNone,
}

func parseChecks(raw string) (lacuna.Check, error) {
	var result lacuna.Check

	for name := range strings.SplitSeq(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		check, ok := checkNames[name]
		if !ok {
			return 0, fmt.Errorf("%w %q", errUnknownCheckName, name)
		}

		result |= check
	}

	if result == 0 {
		return lacuna.ChecksDefault, nil
	}

	return result, nil
}

func parseByte(raw string) (byte, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidPattern, raw)
	}

	return byte(value), nil
}

func openInput(source string) (io.Reader, func(), error) {
	if source == "-" {
		return os.Stdin, func() {}, nil
	}

	file, err := os.Open(source) //nolint:gosec // CLI tool opens user-specified captures
	if err != nil {
		return nil, func() {}, fmt.Errorf("cannot access %s: %w", source, err)
	}

	return file, func() { _ = file.Close() }, nil
}

func sessionName(inputPath string) string {
	if inputPath == "-" {
		return "stdin"
	}

	return filepath.Base(inputPath)
}

func publish(url, subject, session string, result *lacuna.Result) error {
	conn, err := telemetry.Connect(url, version.Name())
	if err != nil {
		return err
	}

	reporter := telemetry.NewReporter(conn, subject)

	if err := reporter.Publish(session, output.ReportToMap(result.Report)); err != nil {
		conn.Close()

		return err
	}

	return telemetry.Close(conn)
}
