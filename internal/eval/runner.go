package eval

import (
	"context"
	"fmt"
	"strings"

	"github.com/harunnryd/chatlab/internal/model"
	"github.com/harunnryd/chatlab/internal/model/contract"
)

// Runner produces the candidate output for a test case.
type Runner struct {
	invoker model.Invoker
	opts    callOptions
}

func NewRunner(invoker model.Invoker, modelName string, maxTokens int) *Runner {
	return &Runner{invoker: invoker, opts: callOptions{Model: modelName, MaxTokens: maxTokens}}
}

func (r *Runner) Run(ctx context.Context, tc TestCase) (string, error) {
	messages := []contract.Message{contract.UserText(fmt.Sprintf(taskPrompt, tc.Task))}
	text, err := prefilledCall(ctx, r.invoker, r.opts, messages, codePrefill)
	if err != nil {
		return "", fmt.Errorf("run test case: %w", err)
	}
	return CleanOutput(text), nil
}

var languageTags = map[string]bool{
	"python": true, "py": true, "json": true, "regex": true, "regexp": true, "code": true,
}

// CleanOutput trims the reply and drops a leading line holding only a
// language tag, which models tend to echo after the code fence.
func CleanOutput(text string) string {
	text = strings.TrimSpace(text)
	first, rest, found := strings.Cut(text, "\n")
	if found && languageTags[strings.ToLower(strings.TrimSpace(first))] {
		text = strings.TrimSpace(rest)
	}
	return text
}
