package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harunnryd/chatlab/internal/model"
	"github.com/harunnryd/chatlab/internal/model/contract"

	"github.com/hashicorp/go-multierror"
)

const (
	jsonPrefill = "```json"
	codePrefill = "```code"
	fence       = "```"
)

const datasetPrompt = `Generate an evaluation dataset for a prompt evaluation. The dataset will be used to evaluate prompts
that generate Python, JSON, or Regex specifically for %s-related tasks. Generate an array of JSON objects,
each representing a task that requires Python, JSON, or a Regex to complete.

Example output:
` + "```json" + `
[
    {
        "task": "Description of task",
        "format": "python" or "json" or "regex"
    },
    ...additional
]
` + "```" + `

* Focus on tasks that can be solved by writing a single Python function, a single JSON object, or a single Regex pattern.
* Focus on tasks that do not require writing much code.

Please generate %d objects.`

const taskPrompt = `Please solve the following task:
%s

* Respond only with Python, JSON, or plain Regex.
* Do not add any comments or commentary or explanation`

const gradePrompt = `You are an expert %s code reviewer. Your task is to evaluate the following AI-generated solution.

Original Task:
<task>
%s
</task>

Solution to Evaluate:
<solution>
%s
</solution>

Output Format
Provide your evaluation as a structured JSON object with the following fields, in this specific order:
- "strengths": An array of 1-3 key strengths
- "weaknesses": An array of 1-3 key areas for improvement
- "reasoning": A concise explanation of your overall assessment
- "score": A number between 1-10

Respond with JSON. Keep your response concise and direct.
Example response shape:
{
    "strengths": string[],
    "weaknesses": string[],
    "reasoning": string,
    "score": number
}`

const repairPrompt = "Your previous reply could not be used: %v. Reply again with only the JSON, nothing else."

// callOptions are the request fields shared by every eval call.
type callOptions struct {
	Model     string
	MaxTokens int
}

// prefilledCall sends prompt with the assistant turn seeded by prefill and
// generation cut at the closing fence.
func prefilledCall(ctx context.Context, invoker model.Invoker, opts callOptions, messages []contract.Message, prefill string) (string, error) {
	messages = append(contract.CloneMessages(messages), contract.AssistantText(prefill))
	resp, err := invoker.Chat(ctx, contract.CompletionRequest{
		Model:         opts.Model,
		Messages:      messages,
		Temperature:   contract.Float(0),
		MaxTokens:     opts.MaxTokens,
		StopSequences: []string{fence},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// askJSON asks for a fenced JSON reply and hands it to parse. A reply parse
// rejects is shown back to the model with the reason, up to retries more
// times. Remote failures are returned at once.
func askJSON(ctx context.Context, invoker model.Invoker, opts callOptions, prompt string, retries int, parse func(text string) error) error {
	messages := []contract.Message{contract.UserText(prompt)}
	var cumErr *multierror.Error

	for attempt := 0; attempt <= retries; attempt++ {
		text, err := prefilledCall(ctx, invoker, opts, messages, jsonPrefill)
		if err != nil {
			return err
		}

		parseErr := parse(strings.TrimSpace(text))
		if parseErr == nil {
			return nil
		}

		slog.Debug("Model reply rejected", "attempt", attempt+1, "error", parseErr)
		cumErr = multierror.Append(cumErr, fmt.Errorf("attempt %d: %w", attempt+1, parseErr))
		messages = append(messages,
			contract.AssistantText(jsonPrefill+text+fence),
			contract.UserText(fmt.Sprintf(repairPrompt, parseErr)),
		)
	}

	return cumErr.ErrorOrNil()
}
