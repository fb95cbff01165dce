package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/ChrisWangg/help-session-to-ics/internal/ics"
)

const testAllocations = `[
  {"course": "COMP101", "allocation": {"class": {"consult": [
    {"instructors": ["z1111111"], "weeks": "1,3-4", "day": "Mon",
     "start": "10:00", "end": "11:00", "mode": "Online"}
  ]}}}
]`

const testTutors = `{"z1111111": "Ada Lovelace", "z2222222": "Alan Turing"}`

// setupData writes tutors/allocations fixtures and returns base args.
func setupData(t *testing.T) (string, []string) {
	t.Helper()
	color.NoColor = true

	dir := t.TempDir()
	tutors := filepath.Join(dir, "tutors.json")
	allocations := filepath.Join(dir, "allocations.json")
	require.NoError(t, os.WriteFile(tutors, []byte(testTutors), 0o600))
	require.NoError(t, os.WriteFile(allocations, []byte(testAllocations), 0o600))

	args := []string{
		"-config", filepath.Join(dir, "helpcal.yaml"),
		"-tutors", tutors,
		"-allocations", allocations,
		"-term-start", "2024-09-09",
	}
	return dir, args
}

func TestRun_InteractiveWritesCalendar(t *testing.T) {
	dir, args := setupData(t)
	outPath := filepath.Join(dir, "out", "my_allocations.ics")
	args = append(args, "-out", outPath, "-verify")

	out := &bytes.Buffer{}
	err := run(context.Background(), args, strings.NewReader("z1111111\ny\n"), out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "generated successfully at: "+outPath)

	events, err := ics.ParseFile(outPath)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "20240930T100000", events[2].Start)
}

func TestRun_NoAllocations(t *testing.T) {
	dir, args := setupData(t)
	outPath := filepath.Join(dir, "my_allocations.ics")
	args = append(args, "-out", outPath, "-zid", "z2222222")

	out := &bytes.Buffer{}
	err := run(context.Background(), args, strings.NewReader(""), out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "No allocations found for zID: z2222222")

	_, err = os.Stat(outPath)
	require.True(t, os.IsNotExist(err))
}

func TestRun_UnknownPresetZID(t *testing.T) {
	_, args := setupData(t)
	args = append(args, "-zid", "z0000000")

	err := run(context.Background(), args, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
}

func TestRun_InvalidTermStart(t *testing.T) {
	_, args := setupData(t)
	args = append(args, "-term-start", "soon", "-zid", "z1111111")

	err := run(context.Background(), args, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
}

func TestRun_Help(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(context.Background(), []string{"-h"}, strings.NewReader(""), out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "-term-start")
}
