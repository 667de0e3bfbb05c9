package tests_test

import (
	"path/filepath"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/lacuna/tests/testutils"
)

func TestReportCLI(t *testing.T) {
	captures := t.TempDir()
	session := testutils.Session()

	writeFixture(t, captures, "car/session.msbc", testutils.Raw(session))
	writeFixture(t, captures, "headset/session.h2", testutils.Indexed(session))
	writeFixture(t, captures, "gateway/session.rtp", testutils.RTP(session))
	writeFixture(t, captures, "notes.txt", []byte("not a capture"))

	empty := t.TempDir()
	reportPath := filepath.Join(t.TempDir(), "lacuna-report.jsonl")

	testCase := testutils.SetupReport()

	// The digest subtests read the report written by the first one.
	testCase.NoParallel = true

	testCase.SubTests = []*test.Case{
		{
			Description: "report over a folder of captures",
			NoParallel:  true,
			Command:     test.Command("report", "--output", reportPath, "--workers", "2", captures),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("=== Lacuna Report Digest ==="),
				expectContains("Total sessions:  3"),
				expectContains("Frames:          24 (9 lost, 37.50%)"),
				expectContains("radio-conflict"),
			)),
		},
		{
			Description: "digest filtered by classification",
			NoParallel:  true,
			Command:     test.Command("digest", "--classification", "radio-conflict", reportPath),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("=== radio-conflict: 3 sessions ==="),
				expectContains("session.rtp"),
			)),
		},
		{
			Description: "digest with a classification nothing hit",
			NoParallel:  true,
			Command:     test.Command("digest", "--classification", "checksum-error", reportPath),
			Expected:    test.Expects(expect.ExitCodeSuccess, nil, expectContains("No sessions affected by checksum-error")),
		},
		{
			Description: "digest with unknown classification fails",
			Command:     test.Command("digest", "--classification", "lost", reportPath),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "report on a folder without captures fails",
			Command:     test.Command("report", "--output", filepath.Join(empty, "out.jsonl"), empty),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "report on a missing folder fails",
			Command:     test.Command("report", "/nonexistent/captures"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}
