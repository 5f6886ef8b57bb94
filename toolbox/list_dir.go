package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/martinemde/convoy/agent"
	"github.com/martinemde/convoy/llm"
)

type listDirInput struct {
	Path string `json:"path,omitempty" jsonschema:"description=Workspace-relative directory to list. Default: workspace root"`
}

// ListDirTool lists directory contents in the workspace.
type ListDirTool struct {
	ws *Workspace
}

// NewListDirTool creates a list_dir tool over the workspace.
func NewListDirTool(ws *Workspace) *ListDirTool {
	return &ListDirTool{ws: ws}
}

func (t *ListDirTool) Name() string { return "list_dir" }

func (t *ListDirTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: "List the contents of a workspace directory. Directories are marked with a trailing slash.",
		Parameters:  agent.SchemaFor[listDirInput](),
	}
}

func (t *ListDirTool) Capabilities() []agent.Capability {
	return []agent.Capability{agent.CapFileRead}
}

func (t *ListDirTool) Invoke(ctx context.Context, args json.RawMessage) agent.Outcome {
	var in listDirInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return agent.ErrorOutcome(ToolError{Code: "ERR_BAD_ARGS", Message: err.Error()}.Error())
		}
	}
	if in.Path == "" {
		in.Path = "."
	}

	entries, err := t.ws.ListDir(in.Path)
	if err != nil {
		return agent.ErrorOutcome(err.Error())
	}
	if len(entries) == 0 {
		return agent.Outcome{Content: "(empty directory)"}
	}

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir {
			fmt.Fprintf(&sb, "%s/\n", entry.Name)
		} else {
			fmt.Fprintf(&sb, "%s (%d bytes)\n", entry.Name, entry.Size)
		}
	}
	return agent.Outcome{Content: sb.String()}
}
