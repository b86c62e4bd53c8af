package report

import (
	"context"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/folioscope/folioscope/pkg/config"
	"github.com/folioscope/folioscope/pkg/logger"
)

// OpenAINarrator generates report commentary with the OpenAI chat API.
// Commentary failures never fail report generation: every error path
// returns a readable fallback string instead.
type OpenAINarrator struct {
	cli    oa.Client
	model  string
	apiKey string
	logger *logger.Logger
}

// NewOpenAINarrator creates an OpenAI-backed narrator.
func NewOpenAINarrator(cfg config.OpenAIConfig, log *logger.Logger) *OpenAINarrator {
	return &OpenAINarrator{
		cli:    oa.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		logger: log.WithField("module", "commentary"),
	}
}

// Narrate produces a 200-300 word portfolio analysis for the report data.
func (n *OpenAINarrator) Narrate(ctx context.Context, data *Data) string {
	if n.apiKey == "" {
		return "Commentary generation failed: Missing OpenAI API key."
	}

	resp, err := n.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: n.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage("You are a professional investment analyst specializing in portfolio analysis for educational purposes."),
			oa.UserMessage(buildPrompt(data)),
		},
		MaxTokens:   oa.Int(500),
		Temperature: oa.Float(0.7),
	})
	if err != nil {
		n.logger.WithError(err).Error("Commentary generation failed")
		return fmt.Sprintf("Commentary generation failed: %s", err.Error())
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "Commentary generation failed."
	}
	return resp.Choices[0].Message.Content
}

func buildPrompt(data *Data) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Please provide a 200-300 word analysis of the following investment portfolio performance data:\n\n")
	fmt.Fprintf(&b, "Date: %s\n", data.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Portfolio Value: $%.2f\n\n", data.PortfolioValue)

	fmt.Fprintf(&b, "Monthly Performance:\n")
	fmt.Fprintf(&b, "- Portfolio: %.2f%%\n", data.MonthlyPerformance.Portfolio)
	fmt.Fprintf(&b, "- Benchmark: %.2f%%\n", data.MonthlyPerformance.Benchmark)
	fmt.Fprintf(&b, "- Difference: %.2f%%\n\n", data.MonthlyPerformance.Portfolio-data.MonthlyPerformance.Benchmark)

	fmt.Fprintf(&b, "Year-to-Date Performance:\n")
	fmt.Fprintf(&b, "- Portfolio: %.2f%%\n", data.YTDPerformance.Portfolio)
	fmt.Fprintf(&b, "- Benchmark: %.2f%%\n", data.YTDPerformance.Benchmark)
	fmt.Fprintf(&b, "- Difference: %.2f%%\n\n", data.YTDPerformance.Portfolio-data.YTDPerformance.Benchmark)

	fmt.Fprintf(&b, "Top Gainers:\n")
	for _, g := range data.TopGainers {
		fmt.Fprintf(&b, "- %s (%s): %.2f%%\n", g.CompanyName, g.Ticker, g.GainLossPercent)
	}
	fmt.Fprintf(&b, "\nTop Losers:\n")
	for _, l := range data.TopLosers {
		fmt.Fprintf(&b, "- %s (%s): %.2f%%\n", l.CompanyName, l.Ticker, l.GainLossPercent)
	}

	fmt.Fprintf(&b, "\nSector Allocation:\n")
	for _, s := range data.SectorAllocation {
		fmt.Fprintf(&b, "- %s: %.2f%%\n", s.Sector, s.Weight)
	}

	fmt.Fprintf(&b, "\nRisk Metrics:\n")
	if data.RiskMetrics.SharpeRatio != nil {
		fmt.Fprintf(&b, "- Sharpe Ratio: %.2f\n", *data.RiskMetrics.SharpeRatio)
	}
	if data.RiskMetrics.Beta != nil {
		fmt.Fprintf(&b, "- Beta: %.2f\n", *data.RiskMetrics.Beta)
	}
	if data.RiskMetrics.Volatility != nil {
		fmt.Fprintf(&b, "- Standard Deviation: %.2f%%\n", *data.RiskMetrics.Volatility)
	}
	if data.RiskMetrics.MaxDrawdown != nil {
		fmt.Fprintf(&b, "- Maximum Drawdown: %.2f%%\n", *data.RiskMetrics.MaxDrawdown*100)
	}

	fmt.Fprintf(&b, "\nPlease focus on:\n")
	fmt.Fprintf(&b, "1. Overall portfolio performance vs. benchmark\n")
	fmt.Fprintf(&b, "2. Key contributors to performance (sectors and individual positions)\n")
	fmt.Fprintf(&b, "3. Risk-adjusted return assessment\n")
	fmt.Fprintf(&b, "4. Brief outlook based on current positioning\n")

	return b.String()
}
