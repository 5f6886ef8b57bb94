package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/martinemde/convoy/agent"
	"github.com/martinemde/convoy/llm"
)

type editFileInput struct {
	Path       string `json:"path" jsonschema:"description=Workspace-relative path of the file to edit"`
	OldString  string `json:"old_string" jsonschema:"description=Exact text to find in the file"`
	NewString  string `json:"new_string" jsonschema:"description=Replacement text"`
	ReplaceAll bool   `json:"replace_all,omitempty" jsonschema:"description=Replace all occurrences. Default: false"`
}

// EditFileTool replaces exact string occurrences in workspace files.
type EditFileTool struct {
	ws *Workspace
}

// NewEditFileTool creates an edit_file tool over the workspace.
func NewEditFileTool(ws *Workspace) *EditFileTool {
	return &EditFileTool{ws: ws}
}

func (t *EditFileTool) Name() string { return "edit_file" }

func (t *EditFileTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name(),
		Description: "Replace an exact string occurrence in a file. The old_string must be unique in the file unless replace_all is true.",
		Parameters:  agent.SchemaFor[editFileInput](),
	}
}

func (t *EditFileTool) Capabilities() []agent.Capability {
	return []agent.Capability{agent.CapFileRead, agent.CapFileWrite}
}

func (t *EditFileTool) Invoke(ctx context.Context, args json.RawMessage) agent.Outcome {
	var in editFileInput
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorOutcome(ToolError{Code: "ERR_BAD_ARGS", Message: err.Error()}.Error())
	}
	if in.OldString == in.NewString {
		return agent.ErrorOutcome("old_string and new_string are identical")
	}

	content, err := t.ws.ReadFileRaw(in.Path)
	if err != nil {
		return agent.ErrorOutcome(err.Error())
	}

	count := strings.Count(content, in.OldString)
	if count == 0 {
		return agent.ErrorOutcome(fmt.Sprintf("old_string not found in %s", in.Path))
	}
	if count > 1 && !in.ReplaceAll {
		return agent.ErrorOutcome(fmt.Sprintf("old_string found %d times in %s. Provide more context to make it unique, or set replace_all=true", count, in.Path))
	}

	var newContent string
	replacements := 1
	if in.ReplaceAll {
		newContent = strings.ReplaceAll(content, in.OldString, in.NewString)
		replacements = count
	} else {
		newContent = strings.Replace(content, in.OldString, in.NewString, 1)
	}

	if err := t.ws.WriteFile(in.Path, newContent); err != nil {
		return agent.ErrorOutcome(err.Error())
	}
	return agent.Outcome{Content: fmt.Sprintf("Successfully replaced %d occurrence(s) in %s", replacements, in.Path)}
}
