package analysis

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Prompter waits for the user before each step of the guided flow
type Prompter interface {
	// Await shows prompt and blocks until the user confirms it or ctx is done
	Await(ctx context.Context, prompt string) error
}

// ConsolePrompter asks for Enter on a line-oriented input such as stdin
type ConsolePrompter struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan struct{}
	err   error
}

// NewConsolePrompter reads confirmations from in and writes prompts to out
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: in, out: out, lines: make(chan struct{})}
}

// Await writes the prompt and waits for a line of input
func (p *ConsolePrompter) Await(ctx context.Context, prompt string) error {
	p.once.Do(func() { go p.readLines() })

	// Enter pressed while no prompt was shown does not confirm this one
	if err := p.discardPending(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(p.out, "%s [press Enter] ", prompt); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return ctx.Err()
	case _, ok := <-p.lines:
		if !ok {
			return p.err
		}
		return nil
	}
}

func (p *ConsolePrompter) discardPending() error {
	for {
		select {
		case _, ok := <-p.lines:
			if !ok {
				return p.err
			}
		default:
			return nil
		}
	}
}

// readLines owns the reader for the lifetime of the process; a blocked read on a
// terminal cannot be interrupted.
func (p *ConsolePrompter) readLines() {
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- struct{}{}
	}
	p.err = scanner.Err()
	if p.err == nil {
		p.err = io.EOF
	}
	close(p.lines)
}

// AutoPrompter confirms every prompt after a fixed delay, for unattended runs
// such as replaying recorded frames.
type AutoPrompter struct {
	Delay time.Duration
}

// Await waits Delay and confirms
func (a AutoPrompter) Await(ctx context.Context, _ string) error {
	if a.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(a.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
