package manual

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/tutils/tdice/rng"
)

// DefaultPrompt is shown before each entry.
const DefaultPrompt = "Enter dice: "

// ErrBadEntry is returned by ParseDice for malformed input.
var ErrBadEntry = errors.New("manual: enter two dice between 1 and 6")

// ParseDice parses an entry such as "3 5", "3,5" or "35".
func ParseDice(s string) (rng.Roll, error) {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '/'
	})
	if len(fields) == 1 && len(fields[0]) == 2 {
		fields = []string{fields[0][:1], fields[0][1:]}
	}
	if len(fields) != 2 {
		return rng.Roll{}, fmt.Errorf("%w: %q", ErrBadEntry, s)
	}
	var r rng.Roll
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > 6 {
			return rng.Roll{}, fmt.Errorf("%w: %q", ErrBadEntry, s)
		}
		r[i] = n
	}
	return r, nil
}

var _ Prompter = (*LinePrompter)(nil)

// LinePrompter reads one entry per line, asking again after bad input.
type LinePrompter struct {
	r      *bufio.Reader
	w      io.Writer
	prompt string
}

// NewLinePrompter reads entries from r and writes prompts to w. A nil w
// disables prompting.
func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(r), w: w, prompt: DefaultPrompt}
}

func (p *LinePrompter) Dice() (rng.Roll, error) {
	for {
		if p.w != nil {
			fmt.Fprint(p.w, p.prompt)
		}
		line, err := p.r.ReadString('\n')
		if line == "" && err != nil {
			return rng.Roll{}, fmt.Errorf("manual: read dice: %w", err)
		}
		r, perr := ParseDice(line)
		if perr == nil {
			return r, nil
		}
		if err != nil {
			return rng.Roll{}, perr
		}
		if p.w != nil {
			fmt.Fprintln(p.w, perr)
		}
	}
}

type readWriter struct {
	io.Reader
	io.Writer
}

// TerminalPrompter reads entries from an interactive terminal with line
// editing.
type TerminalPrompter struct {
	in     *os.File
	out    io.Writer
	prompt string
}

func (p *TerminalPrompter) Dice() (rng.Roll, error) {
	fd := int(p.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return rng.Roll{}, fmt.Errorf("manual: raw terminal: %w", err)
	}
	defer term.Restore(fd, state)

	t := term.NewTerminal(readWriter{p.in, p.out}, p.prompt)
	for {
		line, err := t.ReadLine()
		if err != nil {
			return rng.Roll{}, fmt.Errorf("manual: read dice: %w", err)
		}
		r, perr := ParseDice(line)
		if perr == nil {
			return r, nil
		}
		fmt.Fprintf(t, "%v\r\n", perr)
	}
}

// NewPrompter returns a TerminalPrompter when in is a terminal and a
// LinePrompter otherwise.
func NewPrompter(in *os.File, out io.Writer) Prompter {
	if term.IsTerminal(int(in.Fd())) {
		return &TerminalPrompter{in: in, out: out, prompt: DefaultPrompt}
	}
	return NewLinePrompter(in, nil)
}
