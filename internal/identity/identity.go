package identity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

var (
	// ErrUnknownZID is returned when a zID is not in the directory.
	ErrUnknownZID = errors.New("no tutor found with zID")
	// ErrAborted is returned when input ends before a zID is confirmed.
	ErrAborted = errors.New("identity confirmation aborted")
)

// Directory maps tutor zIDs to display names.
type Directory map[string]string

// LoadDirectory reads a tutors JSON document ({"z1234567": "Name", ...}).
func LoadDirectory(path string) (Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tutors: %w", err)
	}
	var dir Directory
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("parse tutors: %w", err)
	}
	return dir, nil
}

// Lookup returns the name registered for zid.
func (d Directory) Lookup(zid string) (string, error) {
	name, ok := d[zid]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownZID, zid)
	}
	return name, nil
}

// Prompter asks a human to enter and confirm their zID.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	ask  *color.Color
	warn *color.Color
	fail *color.Color
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:   bufio.NewReader(in),
		out:  out,
		ask:  color.New(color.FgBlue),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
	}
}

// Confirm loops until the user enters a zID present in dir and confirms
// the matching name. It returns ErrAborted when input is exhausted.
func (p *Prompter) Confirm(dir Directory) (string, error) {
	for {
		p.ask.Fprint(p.out, "Enter your zID: ")
		zid, err := p.readLine()
		if err != nil {
			return "", err
		}

		name, err := dir.Lookup(zid)
		if err != nil {
			p.fail.Fprintf(p.out, "No tutor found with zID: %s\n", zid)
			p.fail.Fprintln(p.out, "Please check your zID and try again.")
			continue
		}

		ok, err := p.verify(name)
		if err != nil {
			return "", err
		}
		if ok {
			return zid, nil
		}
		p.fail.Fprintln(p.out, "Please re-enter your zID.")
	}
}

// verify asks the yes/no question until it gets a recognizable answer.
func (p *Prompter) verify(name string) (bool, error) {
	for {
		p.warn.Fprintf(p.out, "Verify this is your name: %s [Y/N] ", name)
		resp, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(resp) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			p.fail.Fprintln(p.out, "Invalid response. Please enter Y or N.")
		}
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
