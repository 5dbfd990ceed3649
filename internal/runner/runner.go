// Package runner execs the installed shape binary, forwarding
// arguments, environment and exit status.
package runner

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/shape-cli/shape-launcher/pkg/logger"
)

// interruptExitCode is reported when the child is terminated by an
// interrupt signal, matching shell convention.
const interruptExitCode = 130

type Runner struct {
	log *logger.Logger
}

func New() *Runner {
	return &Runner{log: logger.NewLogger("runner")}
}

// Run spawns the binary with the given argument vector, inheriting
// stdio and environment, and returns its exit code. SIGINT/SIGTERM are
// forwarded to the child; if the child dies from one, 130 is returned.
func (r *Runner) Run(binaryPath string, args []string) (int, error) {
	cmd := exec.Command(binaryPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := cmd.Start(); err != nil {
		return 1, err
	}

	r.log.WithFields(logger.Fields{
		"binary": binaryPath,
		"args":   args,
	}).Debug("Started shape binary")

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	interrupted := false
	for {
		select {
		case sig := <-sigChan:
			interrupted = true
			// Forward and let the child decide how to shut down
			if err := cmd.Process.Signal(sig); err != nil {
				r.log.WithError(err).Debug("Failed to forward signal")
			}

		case err := <-done:
			if err == nil {
				return 0, nil
			}

			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return 1, err
			}

			code := exitErr.ExitCode()
			if code < 0 {
				// Killed by a signal
				if interrupted {
					return interruptExitCode, nil
				}
				return 1, nil
			}
			return code, nil
		}
	}
}
