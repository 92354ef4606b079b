package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
)

// CommandKind is the adapter kind that runs an external process per evaluation.
const CommandKind = "command"

// stderrTail bounds how much child stderr ends up in error messages.
const stderrTail = 2048

// Command drives an external simulation through its command line.
//
// Argument templates may contain {x}, {variable} and {file}. When InputFile
// is set, Prepare writes "<variable> <x>" into it before the run. The
// objective is read from OutputFile when set, otherwise from the last
// non-empty line of stdout.
type Command struct {
	name       string
	command    string
	args       []string
	workDir    string
	env        []string
	inputFile  string
	outputFile string
}

type commandInput struct {
	args []string
}

// NewCommand builds a command adapter from explicit settings. The
// environment of the child is the parent's plus settings.Env.
func NewCommand(settings config.ModelSettings) (ForwardModel, error) {
	if settings.Command == "" {
		return nil, errors.New("command is required")
	}
	c := &Command{
		name:       settings.Name,
		command:    settings.Command,
		args:       append([]string(nil), settings.Args...),
		workDir:    settings.WorkDir,
		inputFile:  settings.InputFile,
		outputFile: settings.OutputFile,
	}
	if len(settings.Env) > 0 {
		keys := make([]string, 0, len(settings.Env))
		for k := range settings.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.env = append(c.env, k+"="+settings.Env[k])
		}
	}
	return c, nil
}

func (c *Command) Prepare(_ context.Context, ev *Eval) error {
	x := strconv.FormatFloat(ev.X, 'g', -1, 64)
	r := strings.NewReplacer("{x}", x, "{variable}", ev.Variable, "{file}", ev.File)
	in := commandInput{args: make([]string, len(c.args))}
	for i, a := range c.args {
		in.args[i] = r.Replace(a)
	}
	if c.inputFile != "" {
		if err := os.WriteFile(c.path(c.inputFile), []byte(ev.Variable+" "+x+"\n"), 0o644); err != nil {
			return fmt.Errorf("write input file: %w", err)
		}
	}
	ev.Input = in
	return nil
}

func (c *Command) Evaluate(ctx context.Context, ev *Eval) error {
	in, ok := ev.Input.(commandInput)
	if !ok {
		return fmt.Errorf("command model expects prepared input, got %T", ev.Input)
	}

	cmd := exec.CommandContext(ctx, c.command, in.args...)
	cmd.Dir = c.workDir
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w (%v)", c.command, ctxErr, err)
		}
		return fmt.Errorf("%s: %w: %s", c.command, err, tail(stderr.String(), stderrTail))
	}

	if c.outputFile != "" {
		data, err := os.ReadFile(c.path(c.outputFile))
		if err != nil {
			return fmt.Errorf("read output file: %w", err)
		}
		ev.Output = string(data)
		return nil
	}
	ev.Output = stdout.String()
	return nil
}

func (c *Command) Reduce(ev *Eval) (float64, error) {
	out, ok := ev.Output.(string)
	if !ok {
		return 0, fmt.Errorf("command model produced %T, want string", ev.Output)
	}
	line := lastLine(out)
	if line == "" {
		return 0, errors.New("model produced no output")
	}
	f, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, fmt.Errorf("objective %q is not a number", line)
	}
	return f, nil
}

func (c *Command) path(p string) string {
	if filepath.IsAbs(p) || c.workDir == "" {
		return p
	}
	return filepath.Join(c.workDir, p)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return "..." + s[cut:]
}
