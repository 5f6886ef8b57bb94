package toolbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/martinemde/convoy/agent"
	"github.com/martinemde/convoy/llm"
)

type writeFileInput struct {
	Path    string `json:"path" jsonschema:"description=Workspace-relative path to write to"`
	Content string `json:"content" jsonschema:"description=The full file content to write"`
}

// WriteFileTool creates or overwrites files in the workspace.
type WriteFileTool struct {
	ws *Workspace
}

// NewWriteFileTool creates a write_file tool over the workspace.
func NewWriteFileTool(ws *Workspace) *WriteFileTool {
	return &WriteFileTool{ws: ws}
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: "Write content to a file in the workspace. Creates the file and parent directories if needed; overwrites existing content.",
		Parameters:  agent.SchemaFor[writeFileInput](),
	}
}

func (t *WriteFileTool) Capabilities() []agent.Capability {
	return []agent.Capability{agent.CapFileWrite}
}

func (t *WriteFileTool) Invoke(ctx context.Context, args json.RawMessage) agent.Outcome {
	var in writeFileInput
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorOutcome(ToolError{Code: "ERR_BAD_ARGS", Message: err.Error()}.Error())
	}

	if err := t.ws.WriteFile(in.Path, in.Content); err != nil {
		return agent.ErrorOutcome(err.Error())
	}
	return agent.Outcome{Content: fmt.Sprintf("Successfully wrote %d bytes to %s", len(in.Content), in.Path)}
}
