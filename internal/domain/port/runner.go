package port

import "context"

// RunResult carries the exit status and captured streams of one external
// process. Output is opaque bytes kept for diagnostics only.
type RunResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// ProcessRunner spawns an external tool with a structured argument list.
// A non-zero exit is reported through RunResult, not through the error;
// the error is reserved for failures to spawn or to wait on the process.
type ProcessRunner interface {
	Run(ctx context.Context, name string, args ...string) (RunResult, error)
}
