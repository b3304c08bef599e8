package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
	"reaplex/pkg/models"
)

// Planner turns a natural-language mission goal into a search plan.
type Planner interface {
	Plan(ctx context.Context, goal string) (models.Plan, error)
}

// AnthropicPlanner drives the Anthropic Messages API with a single-turn
// prompt asking for a JSON plan, grounded in the teacher's
// internal/llm/providers/claude.go ExtractJobData flow.
type AnthropicPlanner struct {
	client anthropic.Client
	cfg    *config.Config
	logger *logrus.Logger
}

// NewAnthropicPlanner builds a planner from config.Planner.
func NewAnthropicPlanner(cfg *config.Config) *AnthropicPlanner {
	client := anthropic.NewClient(option.WithAPIKey(cfg.Planner.APIKey))
	return &AnthropicPlanner{client: client, cfg: cfg, logger: logrus.StandardLogger()}
}

// Plan asks Claude to interpret a mission goal into search queries, a
// target description, and whether discovered pages likely need a
// JavaScript-capable fetch.
func (p *AnthropicPlanner) Plan(ctx context.Context, goal string) (models.Plan, error) {
	prompt := p.buildPlanningPrompt(goal)

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.cfg.Planner.Model),
		MaxTokens:   int64(p.cfg.Planner.MaxTokens),
		Temperature: anthropic.Float(float64(p.cfg.Planner.Temperature)),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return models.Plan{}, fmt.Errorf("failed to call planner API: %w", err)
	}

	plan, err := p.parsePlanResponse(response)
	if err != nil {
		return models.Plan{}, fmt.Errorf("failed to parse planner response: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"goal":           goal,
		"queries":        len(plan.SearchQueries),
		"force_js":       plan.ForceJS,
	}).Info("mission plan produced")

	return plan, nil
}

func (p *AnthropicPlanner) buildPlanningPrompt(goal string) string {
	return fmt.Sprintf(`You are a web research planner. Given a mission goal, produce a JSON plan for discovering relevant pages via a search engine.

Return ONLY a valid JSON object with exactly these fields:

{
  "interpretation": "string - your one-sentence interpretation of the goal",
  "search_queries": ["array of strings - 2-5 search engine queries that would surface relevant pages"],
  "target_description": "string - a short description of what a matching page looks like",
  "force_js": boolean - true if matching pages are likely JavaScript-rendered single-page apps
}

MISSION GOAL:
%s`, goal)
}

func (p *AnthropicPlanner) parsePlanResponse(response *anthropic.Message) (models.Plan, error) {
	if len(response.Content) == 0 {
		return models.Plan{}, fmt.Errorf("empty response from planner")
	}

	var responseText string
	for _, content := range response.Content {
		textContent := content.AsText()
		responseText = textContent.Text
		break
	}
	if responseText == "" {
		return models.Plan{}, fmt.Errorf("no text content in planner response")
	}

	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var plan models.Plan
	if err := json.Unmarshal([]byte(responseText), &plan); err != nil {
		return models.Plan{}, fmt.Errorf("invalid plan JSON: %w", err)
	}
	return plan, nil
}
