package identity

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

var testDir = Directory{
	"z1111111": "Ada Lovelace",
	"z2222222": "Alan Turing",
}

func TestLoadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutors.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"z1111111": "Ada Lovelace"}`), 0o600))

	dir, err := LoadDirectory(path)
	require.NoError(t, err)

	name, err := dir.Lookup("z1111111")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	_, err = dir.Lookup("z9999999")
	assert.True(t, errors.Is(err, ErrUnknownZID))
}

func TestLoadDirectory_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutors.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "a", "map"]`), 0o600))

	_, err := LoadDirectory(path)
	require.Error(t, err)
}

func TestConfirm_Accepts(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewPrompter(strings.NewReader(" z1111111 \nyes\n"), out)

	zid, err := p.Confirm(testDir)
	require.NoError(t, err)
	assert.Equal(t, "z1111111", zid)
	assert.Contains(t, out.String(), "Verify this is your name: Ada Lovelace [Y/N]")
}

func TestConfirm_RetriesUnknownAndRejected(t *testing.T) {
	out := &bytes.Buffer{}
	input := strings.Join([]string{
		"z0000000", // unknown
		"z1111111",
		"maybe", // invalid answer, asked again
		"N",     // rejected, back to zID prompt
		"z2222222",
		"Y",
	}, "\n") + "\n"
	p := NewPrompter(strings.NewReader(input), out)

	zid, err := p.Confirm(testDir)
	require.NoError(t, err)
	assert.Equal(t, "z2222222", zid)

	s := out.String()
	assert.Contains(t, s, "No tutor found with zID: z0000000")
	assert.Contains(t, s, "Invalid response. Please enter Y or N.")
	assert.Contains(t, s, "Please re-enter your zID.")
	assert.Equal(t, 3, strings.Count(s, "Enter your zID: "))
}

func TestConfirm_AnswerWithoutTrailingNewline(t *testing.T) {
	p := NewPrompter(strings.NewReader("z1111111\ny"), &bytes.Buffer{})

	zid, err := p.Confirm(testDir)
	require.NoError(t, err)
	assert.Equal(t, "z1111111", zid)
}

func TestConfirm_EOF(t *testing.T) {
	p := NewPrompter(strings.NewReader("z1111111\n"), &bytes.Buffer{})

	_, err := p.Confirm(testDir)
	assert.True(t, errors.Is(err, ErrAborted))
}
