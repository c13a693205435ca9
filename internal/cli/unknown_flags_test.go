package cli

import (
	"io"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestFlagErrors_AreUsageErrorsWithHelp(t *testing.T) {
	cases := map[string]struct {
		args     []string
		wantText string
		wantHelp string
	}{
		"unknown generate flag": {
			args:     []string{"generate", "--unknown-flag"},
			wantText: "unknown flag: --unknown-flag",
			wantHelp: "--require-api",
		},
		"unknown init flag": {
			args:     []string{"init", "--schema", "x.yaml"},
			wantText: "unknown flag: --schema",
			wantHelp: "Where to write the sample config file",
		},
		"bad boolean": {
			args:     []string{"generate", "--dry-run=maybe"},
			wantText: "invalid argument",
			wantHelp: "--no-provenance",
		},
		"unknown shorthand": {
			args:     []string{"-x"},
			wantText: "unknown shorthand flag: 'x'",
			wantHelp: "--config",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(tc.args)

			err := root.Execute()
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %T: %v", err, err)
			}
			msg := err.Error()
			if !strings.Contains(msg, tc.wantText) || !strings.Contains(msg, "Usage:") || !strings.Contains(msg, tc.wantHelp) {
				t.Fatalf("unexpected error text: %v", msg)
			}
		})
	}
}
