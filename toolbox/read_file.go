package toolbox

import (
	"context"
	"encoding/json"

	"github.com/martinemde/convoy/agent"
	"github.com/martinemde/convoy/llm"
)

type readFileInput struct {
	Path   string `json:"path" jsonschema:"description=Workspace-relative path of the file to read"`
	Offset int    `json:"offset,omitempty" jsonschema:"description=1-based line number to start reading from"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of lines to read. Default: 2000"`
}

// ReadFileTool reads files from the workspace with line-numbered output.
type ReadFileTool struct {
	ws *Workspace
}

// NewReadFileTool creates a read_file tool over the workspace.
func NewReadFileTool(ws *Workspace) *ReadFileTool {
	return &ReadFileTool{ws: ws}
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: "Read a file from the workspace. Returns line-numbered content. Use offset and limit to page through large files.",
		Parameters:  agent.SchemaFor[readFileInput](),
	}
}

func (t *ReadFileTool) Capabilities() []agent.Capability {
	return []agent.Capability{agent.CapFileRead}
}

func (t *ReadFileTool) Invoke(ctx context.Context, args json.RawMessage) agent.Outcome {
	var in readFileInput
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorOutcome(ToolError{Code: "ERR_BAD_ARGS", Message: err.Error()}.Error())
	}
	if in.Limit == 0 {
		in.Limit = 2000
	}

	content, err := t.ws.ReadFile(in.Path, in.Offset, in.Limit)
	if err != nil {
		return agent.ErrorOutcome(err.Error())
	}
	return agent.Outcome{Content: content}
}
