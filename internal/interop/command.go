package interop

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

// CommandBinder runs an external command once per target. Each argument
// is a text/template over Target, Platform, Arch, Version, BinaryDir
// and HeaderDir.
type CommandBinder struct {
	Args []string
	Dir  string

	// Output receives the command's combined output, each line prefixed
	// with the target. Nil discards it.
	Output io.Writer

	mu sync.Mutex
}

// RenderArgs expands the argument templates for a binding.
func (c *CommandBinder) RenderArgs(b Binding) ([]string, error) {
	if len(c.Args) == 0 {
		return nil, fmt.Errorf("no command configured")
	}
	data := newTemplateData(b)
	out := make([]string, len(c.Args))
	for i, arg := range c.Args {
		tmpl, err := template.New("").Option("missingkey=error").Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("parsing argument %d %q: %w", i, arg, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing argument %d %q: %w", i, arg, err)
		}
		out[i] = buf.String()
	}
	if strings.TrimSpace(out[0]) == "" {
		return nil, fmt.Errorf("command program renders empty")
	}
	return out, nil
}

// Bind runs the command for b.
func (c *CommandBinder) Bind(ctx context.Context, b Binding) error {
	args, err := c.RenderArgs(b)
	if err != nil {
		return &Error{Target: b.Target, Err: err}
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	c.writeOutput(b.Target.String(), out.Bytes())
	if runErr != nil {
		return &Error{
			Target: b.Target,
			Err:    fmt.Errorf("%s: %w: %s", args[0], runErr, strings.TrimSpace(tail(out.String(), 512))),
		}
	}
	return nil
}

// writeOutput copies one command's output as a single block, so binds
// running in parallel do not interleave.
func (c *CommandBinder) writeOutput(target string, out []byte) {
	if c.Output == nil || len(out) == 0 {
		return
	}
	var buf bytes.Buffer
	for _, line := range strings.SplitAfter(string(out), "\n") {
		if line == "" {
			continue
		}
		buf.WriteString("[" + target + "] " + line)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		buf.WriteByte('\n')
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.Output.Write(buf.Bytes())
}

// tail returns roughly the last n bytes of s, starting on a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return "..." + s[i:]
}
