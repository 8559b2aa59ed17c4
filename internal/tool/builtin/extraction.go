package builtin

import (
	"context"
	"encoding/json"
	"strings"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	toolcore "github.com/harunnryd/chatlab/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("article_summary", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &ArticleSummaryTool{}, nil
	})
	toolcore.RegisterBuiltin("analyze_financial_statement", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &FinancialAnalysisTool{}, nil
	})
}

// ArticleSummary is what the model fills in when forced to call article_summary.
type ArticleSummary struct {
	Title       string   `json:"title" jsonschema:"description=The title of the article being summarized."`
	Author      string   `json:"author" jsonschema:"description=The name of the author who wrote the article."`
	KeyInsights []string `json:"key_insights" jsonschema:"description=The most important takeaways from the article. Each insight should be a complete and concise statement."`
}

// ArticleSummaryTool is an extraction sink: the value of the call is its
// input, which is checked and echoed back.
type ArticleSummaryTool struct{}

func (t *ArticleSummaryTool) Name() string {
	return "article_summary"
}

func (t *ArticleSummaryTool) Description() string {
	return "Creates a summary of an article with its key insights. Use this tool when you need to generate a structured summary " +
		"of an article, research paper, or any textual content. The tool requires the article's title, author name, " +
		"and a list of the most important insights or takeaways from the content. Each insight should be a concise statement " +
		"capturing a significant point from the article."
}

func (t *ArticleSummaryTool) ToolMetadata() toolcore.ToolMetadata {
	return toolcore.ToolMetadata{Source: "builtin", Capabilities: []string{"extract.summary"}, Risk: toolcore.RiskLow}
}

func (t *ArticleSummaryTool) Parameters() map[string]interface{} {
	return toolcore.ReflectSchema[ArticleSummary]()
}

func (t *ArticleSummaryTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	_ = ctx

	var summary ArticleSummary
	if err := decodeInput(input, &summary); err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary.Title) == "" {
		return nil, chatErrors.InvalidInput("title must not be empty")
	}
	if len(summary.KeyInsights) == 0 {
		return nil, chatErrors.InvalidInput("key_insights must list at least one insight")
	}
	return json.Marshal(summary)
}

type FinancialAnalysis struct {
	Balance     int      `json:"balance,omitempty" jsonschema:"description=The current balance."`
	KeyInsights []string `json:"key_insights,omitempty" jsonschema:"description=A list of key insights derived from the financial statement."`
}

type FinancialAnalysisTool struct{}

func (t *FinancialAnalysisTool) Name() string {
	return "analyze_financial_statement"
}

func (t *FinancialAnalysisTool) Description() string {
	return "Analyzes a financial statement to provide insights."
}

func (t *FinancialAnalysisTool) ToolMetadata() toolcore.ToolMetadata {
	return toolcore.ToolMetadata{Source: "builtin", Capabilities: []string{"extract.finance"}, Risk: toolcore.RiskLow}
}

func (t *FinancialAnalysisTool) Parameters() map[string]interface{} {
	return toolcore.ReflectSchema[FinancialAnalysis]()
}

func (t *FinancialAnalysisTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	_ = ctx

	var analysis FinancialAnalysis
	if err := decodeInput(input, &analysis); err != nil {
		return nil, err
	}
	return json.Marshal(analysis)
}
