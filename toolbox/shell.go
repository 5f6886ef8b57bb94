package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/martinemde/convoy/agent"
	"github.com/martinemde/convoy/llm"
)

const (
	defaultShellTimeout = 10 * time.Second
	maxShellTimeout     = 10 * time.Minute
)

type shellInput struct {
	Command   string `json:"command" jsonschema:"description=The shell command to run"`
	TimeoutMs int    `json:"timeout_ms,omitempty" jsonschema:"description=Override the default command timeout in milliseconds"`
}

// ShellTool executes shell commands in the workspace root.
type ShellTool struct {
	ws             *Workspace
	defaultTimeout time.Duration
	maxTimeout     time.Duration
}

// NewShellTool creates a shell tool over the workspace with default timeouts.
func NewShellTool(ws *Workspace) *ShellTool {
	return &ShellTool{
		ws:             ws,
		defaultTimeout: defaultShellTimeout,
		maxTimeout:     maxShellTimeout,
	}
}

// NewShellToolWithTimeouts creates a shell tool with explicit timeouts.
func NewShellToolWithTimeouts(ws *Workspace, defaultTimeout, maxTimeout time.Duration) *ShellTool {
	return &ShellTool{
		ws:             ws,
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
	}
}

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: "Execute a shell command in the workspace. Returns stdout, stderr, and a non-zero exit code when the command fails.",
		Parameters:  agent.SchemaFor[shellInput](),
	}
}

func (t *ShellTool) Capabilities() []agent.Capability {
	return []agent.Capability{agent.CapExec}
}

func (t *ShellTool) Invoke(ctx context.Context, args json.RawMessage) agent.Outcome {
	var in shellInput
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorOutcome(ToolError{Code: "ERR_BAD_ARGS", Message: err.Error()}.Error())
	}
	if in.Command == "" {
		return agent.ErrorOutcome("command is required")
	}

	timeout := t.defaultTimeout
	if in.TimeoutMs > 0 {
		timeout = time.Duration(in.TimeoutMs) * time.Millisecond
	}
	if timeout > t.maxTimeout {
		timeout = t.maxTimeout
	}

	result, err := t.ws.Exec(ctx, in.Command, timeout)
	if err != nil {
		return agent.ErrorOutcome(err.Error())
	}

	var sb strings.Builder
	sb.WriteString(result.Output())

	if result.TimedOut {
		fmt.Fprintf(&sb, "\n\n[ERROR: Command timed out after %s. Partial output is shown above. "+
			"You can retry with a longer timeout by setting the timeout_ms parameter.]", timeout)
		return agent.Outcome{Content: sb.String(), IsError: true}
	}

	if result.ExitCode != 0 {
		fmt.Fprintf(&sb, "\n\n[Exit code: %d]", result.ExitCode)
		return agent.Outcome{Content: sb.String(), IsError: true}
	}

	return agent.Outcome{Content: sb.String()}
}

// Tools returns the full default toolset over a workspace, in the order
// they are presented to the model.
func Tools(ws *Workspace) []agent.Tool {
	return []agent.Tool{
		NewReadFileTool(ws),
		NewWriteFileTool(ws),
		NewEditFileTool(ws),
		NewListDirTool(ws),
		NewShellTool(ws),
	}
}
