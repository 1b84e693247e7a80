package classifier

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/llm"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Example is one few-shot demonstration embedded in the classification prompt.
type Example struct {
	Question string
	Labels   []types.Label
}

// BatchItem is one independent (question, task) pair of a batched
// classification.
type BatchItem struct {
	Question string
	Task     string
}

// Classifier maps free text onto a closed label vocabulary through a single
// structured LLM call. Unknown tokens resolve to types.Other, never an error.
type Classifier struct {
	client llm.Client
	model  string
}

func New(client llm.Client, model string) *Classifier {
	return &Classifier{client: client, model: model}
}

const promptTemplate = `Classify the question below into zero or more of these labels:
{{ join ", " .Labels }}

Reply with the matching labels as a comma separated list, nothing else.
{{- if .Examples }}

Examples:
{{- range .Examples }}
Question: {{ .Question }}
Labels: {{ range $i, $l := .Labels }}{{ if $i }}, {{ end }}{{ $l }}{{ end }}
{{- end }}
{{- end }}
{{- if .Task }}

Task context: {{ .Task }}
{{- end }}

Question: {{ .Question }}`

var prompt = template.Must(template.New("classify").Funcs(sprig.FuncMap()).Parse(promptTemplate))

func renderPrompt(question, task string, set types.LabelSet, examples []Example) (string, error) {
	buf := bytes.NewBuffer(nil)
	err := prompt.Execute(buf, struct {
		Question string
		Task     string
		Labels   []string
		Examples []Example
	}{
		Question: question,
		Task:     task,
		Labels:   set.Strings(),
		Examples: examples,
	})
	return buf.String(), err
}

// Classify returns the labels the model assigns to the question, each
// normalized against the set.
func (c *Classifier) Classify(ctx context.Context, question string, set types.LabelSet, examples []Example) ([]types.Label, error) {
	return c.classify(ctx, question, "", set, examples)
}

func (c *Classifier) classify(ctx context.Context, question, task string, set types.LabelSet, examples []Example) ([]types.Label, error) {
	guidance, err := renderPrompt(question, task, set, examples)
	if err != nil {
		return nil, err
	}

	var out struct {
		Labels string `json:"labels"`
	}
	err = llm.GenerateTypedJSON(ctx, c.client, guidance, c.model, jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"labels": {
				Type:        jsonschema.String,
				Description: "Comma separated list of matching labels",
			},
		},
		Required: []string{"labels"},
	}, &out)
	if err != nil {
		return nil, err
	}

	labels := []types.Label{}
	for _, token := range strings.Split(out.Labels, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		labels = append(labels, set.Normalize(token))
	}
	xlog.Debug("Classified", "question", question, "labels", labels)
	return labels, nil
}

// ClassifyOne returns exactly one label; empty model output degrades to Other.
func (c *Classifier) ClassifyOne(ctx context.Context, question string, set types.LabelSet, examples []Example) (types.Label, error) {
	labels, err := c.Classify(ctx, question, set, examples)
	if err != nil {
		return types.Other, err
	}
	if len(labels) == 0 {
		return types.Other, nil
	}
	return labels[0], nil
}

// ClassifyBatch classifies each item independently and flattens the results,
// preserving per-item order.
func (c *Classifier) ClassifyBatch(ctx context.Context, items []BatchItem, set types.LabelSet, examples []Example) ([]types.Label, error) {
	combined := []types.Label{}
	for _, item := range items {
		labels, err := c.classify(ctx, item.Question, item.Task, set, examples)
		if err != nil {
			return nil, err
		}
		combined = append(combined, labels...)
	}
	return combined, nil
}
