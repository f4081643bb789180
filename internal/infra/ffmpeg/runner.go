package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/port"
	"go.uber.org/zap"
)

// CommandRunner invokes external tools with a structured argument list.
// No shell is involved, so arguments are never re-interpreted.
type CommandRunner struct {
	logger *zap.Logger
}

func NewCommandRunner(logger *zap.Logger) *CommandRunner {
	return &CommandRunner{logger: logger}
}

// Run blocks until the process exits. A non-zero exit is not an error:
// the caller inspects RunResult.ExitCode. The returned error only covers
// failures to start or wait on the process.
func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) (port.RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running external process",
		zap.String("command", name),
		zap.Strings("args", args),
	)

	err := cmd.Run()
	res := port.RunResult{
		ExitCode: 0,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}
