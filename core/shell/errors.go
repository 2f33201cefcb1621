package shell

import "fmt"

// SyntaxError reports a malformed line: bad quoting or pipe structure.
// The pipeline is never run and no processes are spawned.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Msg)
}

// SetupError reports a pipe-creation or process-spawn failure. The whole
// pipeline invocation is aborted after cleanup; descriptors opened so far
// are closed and already-spawned children are waited on.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("pipeline setup: %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// ExitRequest is returned by the exit builtin running in the shell's own
// process. The read loop treats it as the signal to stop; everything else
// propagates it upward.
type ExitRequest struct {
	Code int
}

func (e *ExitRequest) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}
