package cmd

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRootCommandFlags(t *testing.T) {
	if !rootCmd.SilenceErrors {
		t.Error("SilenceErrors = false, errors would print twice")
	}
	if !rootCmd.SilenceUsage {
		t.Error("SilenceUsage = false")
	}
	if rootCmd.Flags().Lookup("url") == nil {
		t.Error("missing --url flag")
	}
}

func TestRootCommandArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "none", args: nil},
		{name: "positional", args: []string{"https://www.instagram.com/reel/abc/"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rootCmd.Args(rootCmd, tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("Args(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestExecuteReportsErrorOnce(t *testing.T) {
	var logs, stderr, stdout bytes.Buffer

	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	rootCmd.SetArgs([]string{"unexpected"})
	rootCmd.SetErr(&stderr)
	rootCmd.SetOut(&stdout)
	t.Cleanup(func() {
		slog.SetDefault(previous)
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetOut(nil)
	})

	if err := Execute(); err == nil {
		t.Fatal("Execute() should fail on a positional argument")
	}

	if stderr.Len() != 0 {
		t.Errorf("cobra printed %q, want nothing", stderr.String())
	}
	if n := strings.Count(logs.String(), "Run failed"); n != 1 {
		t.Errorf("error logged %d times, want 1: %s", n, logs.String())
	}
}
