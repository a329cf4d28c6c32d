// Package runner executes an agent command and feeds its output
// through the update pipeline as it streams, so process state stays
// current while the agent is still running.
package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/domain"
	"github.com/Hysas/procside/internal/parser"
)

// Options configures one agent run.
type Options struct {
	// Command is passed to the shell verbatim.
	Command string
	// OnOutput observes raw agent output as it arrives, stdout and
	// stderr interleaved.
	OnOutput func(string)
	// OnUpdate observes each decoded update after it is applied.
	OnUpdate func(domain.Update)
}

// Result summarizes a finished run.
type Result struct {
	ExitCode int
	Updates  []domain.Update
	Output   string
}

// Runner drives agent commands through the update pipeline.
type Runner struct {
	svc    *app.Service
	logger *log.Logger
}

// New returns a runner over the given service.
func New(svc *app.Service, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{svc: svc, logger: logger}
}

// Run spawns the command and applies every complete update block the
// agent emits, as soon as its end marker arrives. Update blocks split
// across write boundaries are handled by buffering: a block is only
// consumed once both markers are present. The command's exit code is
// reported in the result, not as an error.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return Result{}, errors.New("agent command is required")
	}
	r.logger.Info("running agent command", "command", opts.Command)

	cmd := exec.CommandContext(ctx, "sh", "-c", opts.Command)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, err
	}
	if err := cmd.Start(); err != nil {
		return Result{}, err
	}

	var (
		mu     sync.Mutex
		output strings.Builder
	)
	record := func(text string) {
		mu.Lock()
		output.WriteString(text)
		mu.Unlock()
		if opts.OnOutput != nil {
			opts.OnOutput(text)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			record(scanner.Text() + "\n")
		}
	}()

	result := Result{}
	var pending strings.Builder
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text() + "\n"
		record(line)
		pending.WriteString(line)

		buffered := pending.String()
		if !strings.Contains(buffered, parser.EndMarker) {
			continue
		}

		report, err := r.svc.ApplyText(ctx, buffered)
		if err != nil {
			_ = cmd.Process.Kill()
			wg.Wait()
			_ = cmd.Wait()
			return Result{}, err
		}
		for _, u := range report.Applied {
			r.logger.Info("process update received", "action", u.Action)
			result.Updates = append(result.Updates, u)
			if opts.OnUpdate != nil {
				opts.OnUpdate(u)
			}
		}

		pending.Reset()
		// Text after the last consumed block may open the next one.
		tail := buffered[strings.LastIndex(buffered, parser.EndMarker)+len(parser.EndMarker):]
		pending.WriteString(tail)
	}
	scanErr := scanner.Err()

	wg.Wait()
	waitErr := cmd.Wait()
	if scanErr != nil {
		return Result{}, scanErr
	}

	switch {
	case waitErr == nil:
	default:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return Result{}, waitErr
		}
		result.ExitCode = exitErr.ExitCode()
	}

	result.Output = output.String()
	r.logger.Info("agent command completed",
		"exitCode", result.ExitCode, "updates", len(result.Updates))
	return result, nil
}
