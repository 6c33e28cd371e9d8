package ai

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ImplementPromptData holds data for rendering a phase prompt.
type ImplementPromptData struct {
	// Instructions is the slash command body, or the built-in instructions
	// when no command file is available.
	Instructions string
	PlanPath     string
	PhaseIndex   int
	PhaseName    string
}

// CreatePromptData holds data for rendering a plan-creation prompt.
type CreatePromptData struct {
	SlashCommand string
	Description  string
}

// builtinInstructions stand in for a missing implement_plan command file.
const builtinInstructions = `You are implementing one phase of a technical plan written in Markdown.

1. Read the plan file in full and find the phase named below.
2. Implement every change that phase describes. Do not start later phases.
3. Run each command under "Automated Verification" for the phase and fix
   failures until they pass.
4. In the plan file, change "- [ ]" to "- [x]" for every automated
   verification item that now passes, and print one line per item:
   CHECKED: <item description>
5. Do not tick any "Manual Verification" items; a human will do that.
6. When all automated checks pass, finish with the line:
   Phase <number> Complete - Ready for Manual Verification`

const implementPromptTemplate = `{{.Instructions}}

Plan: {{.PlanPath}}
Phase: {{.PhaseIndex}}{{if .PhaseName}} ({{.PhaseName}}){{end}}
`

const createPromptTemplate = `/{{.SlashCommand}} {{.Description}}`

var (
	implementTmpl = template.Must(template.New("implement").Parse(implementPromptTemplate))
	createTmpl    = template.Must(template.New("create").Parse(createPromptTemplate))
)

// RenderImplementPrompt renders the prompt for one phase. An empty
// Instructions field is replaced by the built-in instructions.
func RenderImplementPrompt(data ImplementPromptData) (string, error) {
	if strings.TrimSpace(data.Instructions) == "" {
		data.Instructions = builtinInstructions
	}
	var buf bytes.Buffer
	if err := implementTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render implement prompt: %w", err)
	}
	return buf.String(), nil
}

// RenderCreatePrompt renders the slash-command invocation that writes a
// new plan.
func RenderCreatePrompt(data CreatePromptData) (string, error) {
	data.SlashCommand = strings.TrimPrefix(data.SlashCommand, "/")
	data.Description = strings.TrimSpace(data.Description)
	if data.Description == "" {
		return "", errors.New("plan description is empty")
	}
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render create prompt: %w", err)
	}
	return buf.String(), nil
}
