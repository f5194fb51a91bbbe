// Package extool runs the external collaborator processes the patcher
// depends on (EDK2 build tools, the system xz) and turns their failures into
// a single error type carrying the captured output for diagnosis.
package extool

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// ExternalToolError reports a collaborator process that could not run or
// exited non-zero. Output holds whatever the tool wrote to stderr/stdout.
type ExternalToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("external tool %q failed: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// Run executes tool with args and returns its stdout. stdin may be nil.
func Run(tool string, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(tool, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &ExternalToolError{
			Tool:   tool,
			Args:   args,
			Output: stderr.String(),
			Err:    err,
		}
	}
	return out, nil
}
