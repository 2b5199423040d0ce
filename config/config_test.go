/*
NAME
  config_test.go

DESCRIPTION
  config_test.go exercises Config.Normalize's defaulting and Mode's
  string form, plus the record-keeping behaviour (level filtering,
  message capture) of the file-backed Logger.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	got := Config{}.Normalize()
	if got.MaxDim != 4096 {
		t.Errorf("MaxDim = %d, want 4096", got.MaxDim)
	}
	if got.Redundancy != 1 {
		t.Errorf("Redundancy = %d, want 1", got.Redundancy)
	}
	if got.BitsPerSample != 16 {
		t.Errorf("BitsPerSample = %d, want 16", got.BitsPerSample)
	}
}

func TestNormalizePreservesSetFields(t *testing.T) {
	in := Config{MaxDim: 256, Redundancy: 3, BitsPerSample: 8}
	got := in.Normalize()
	if got != in {
		t.Errorf("Normalize() = %+v, want unchanged %+v", got, in)
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeAuto, "auto"},
		{ModeCompact, "compact"},
		{ModeExpanded, "expanded"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestFileLoggerFiltersByLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pxf.log")
	l := NewFileLogger(path)
	l.SetLevel(Warning)
	l.Log(Debug, "should not appear")
	l.Log(Error, "should appear", 42)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	got := string(data)
	if strings.Contains(got, "should not appear") {
		t.Errorf("log file contains a below-threshold message: %q", got)
	}
	if !strings.Contains(got, "should appear") {
		t.Errorf("log file missing the logged message: %q", got)
	}
}
