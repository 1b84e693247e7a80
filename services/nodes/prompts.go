package nodes

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

func templateBase(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(sprig.FuncMap()).Parse(text)
}

func templateExecute(t *template.Template, data any) (string, error) {
	prompt := bytes.NewBuffer([]byte{})
	if err := t.Execute(prompt, data); err != nil {
		return "", err
	}
	return prompt.String(), nil
}

func render(name, text string, data any) (string, error) {
	t, err := templateBase(name, text)
	if err != nil {
		return "", err
	}
	return templateExecute(t, data)
}

const decisionPrompt = `You are a data analysis assistant.
Conversation summary so far:
{{ .Summary | default "none" }}

Answer the user's question directly and concisely.

Question: {{ .Question }}`

const subtasksPrompt = `You are planning how to answer a data analysis question.
Dataset: {{ .DatasetSummary | default "unknown" }}
Conversation summary so far:
{{ .Summary | default "none" }}
{{- if .TaskLabels }}
The question touches these analysis tasks: {{ join ", " .TaskLabels }}
{{- end }}

Break the question into the smallest ordered list of independent subtasks.
Each subtask must be solvable with one snippet of code over the dataset.

Question: {{ .Question }}`

const executionPlanPrompt = `You are preparing one step of a data analysis.
Dataset: {{ .DatasetSummary | default "unknown" }}
Code written so far (summary):
{{ .CodeSummary | default "none" }}

Describe, in a short numbered plan, how to solve exactly this subtask:
{{ .Subtask }}`

const codePrompt = `Write a Go snippet that performs the plan below.
Define exactly:

func Run(vars map[string]interface{}) (string, map[string]interface{}, error)

Rules:
- vars["df"] is the dataset as map[string][]string (column name to values).
- Return a short textual result and any new bindings to keep.
- Only import from: {{ join ", " .Packages }}.
- Do not read files or the network.

Dataset: {{ .DatasetSummary | default "unknown" }}
Available bindings: {{ join ", " .Variables }}
Code written so far (summary):
{{ .CodeSummary | default "none" }}

Plan:
{{ .Plan }}`

const visualizationPrompt = `Write a Go snippet that renders the plan below as an image.
Define exactly:

func Run(vars map[string]interface{}) (string, map[string]interface{}, error)

Rules:
- vars["df"] is the dataset as map[string][]string (column name to values).
- Put the rendered image, base64 encoded PNG, under the "image" key of the
  returned bindings.
- Only import from: {{ join ", " .Packages }}.
- Do not read files or the network.

Dataset: {{ .DatasetSummary | default "unknown" }}
Available bindings: {{ join ", " .Variables }}

Plan:
{{ .Plan }}`

const debugPrompt = `The snippet below failed. Fix it and return the full corrected snippet,
keeping the same Run signature and rules.

Error:
{{ .Error }}

Dataset: {{ .DatasetSummary | default "unknown" }}
Available bindings: {{ join ", " .Variables }}
Allowed imports: {{ join ", " .Packages }}

Snippet:
{{ .Code }}`

const conversationSummaryPrompt = `Merge the report below into the running conversation summary.
Keep it under 200 words, keep only facts useful for future turns.

Current summary:
{{ .Summary | default "none" }}

New report:
{{ .Report }}`

const codeSummaryPrompt = `Merge the snippet below into the running code history summary.
Keep it short: what was computed and which bindings exist ({{ join ", " .Variables }}).

Current summary:
{{ .Summary | default "none" }}

New snippet:
{{ .Code }}`

const suggestionPrompt = `Given the conversation summary below, suggest one short follow-up
analysis the user could ask for next. One sentence.

{{ .Summary | default "none" }}`
