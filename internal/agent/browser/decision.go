package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"go-browserpilot/pkg/data"
	"go-browserpilot/pkg/llm"
	"go-browserpilot/pkg/prompts"
	"go-browserpilot/pkg/template"
)

const (
	actionNavigate = "navigate"
	actionClick    = "click"
	actionType     = "type"
	actionScroll   = "scroll"
	actionExtract  = "extract"
	actionDone     = "done"
)

type decision struct {
	Goal       string `json:"goal"`
	Action     string `json:"action"`
	Argument   string `json:"argument"`
	Evaluation string `json:"evaluation"`
}

// actionRecord is one entry of the history the prompt replays so the model
// remembers what it already tried and how it went.
type actionRecord struct {
	Goal     string `json:"goal"`
	Action   string `json:"action"`
	Argument string `json:"argument"`
	Result   string `json:"result"`
}

func decide(ctx context.Context, client llm.Client, instruction string, obs observation, history []actionRecord) (decision, error) {
	hist, err := json.Marshal(history)
	if err != nil {
		return decision{}, fmt.Errorf("marshal history: %w", err)
	}

	prompt, err := template.Parse(prompts.BrowserNextAction, map[string]any{
		"Task":     instruction,
		"URL":      obs.URL,
		"Title":    obs.Title,
		"PageText": obs.PageText,
		"History":  string(hist),
	})
	if err != nil {
		return decision{}, fmt.Errorf("build prompt: %w", err)
	}

	answer, err := client.Complete(ctx, prompt)
	if err != nil {
		return decision{}, fmt.Errorf("model decision: %w", err)
	}

	return parseDecision(answer)
}

func parseDecision(answer string) (decision, error) {
	match, err := data.SanitizeAnswer(answer)
	if err != nil {
		return decision{}, fmt.Errorf("sanitize decision: %w", err)
	}

	var dec decision
	if err := json.Unmarshal([]byte(match), &dec); err != nil {
		return decision{}, fmt.Errorf("unmarshal decision: %w", err)
	}
	if dec.Action == "" {
		return decision{}, errors.New("decision has no action")
	}
	return dec, nil
}

func describe(dec decision) string {
	if dec.Argument == "" {
		return dec.Action
	}
	return fmt.Sprintf("%s(%s)", dec.Action, dec.Argument)
}

// apply executes one decided action against the live page. The returned
// string is what the history records as the result, which for extract is the
// text the model asked for.
func apply(ctx context.Context, opts Options, dec decision) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, opts.StepTimeout)
	defer cancel()

	switch dec.Action {
	case actionNavigate:
		return "ok", chromedp.Run(tctx, chromedp.Navigate(dec.Argument))
	case actionClick:
		return "ok", chromedp.Run(tctx, chromedp.Click(dec.Argument, chromedp.ByQuery))
	case actionType:
		sel, text, ok := strings.Cut(dec.Argument, "||")
		if !ok {
			return "", fmt.Errorf("type argument %q is not selector||text", dec.Argument)
		}
		return "ok", chromedp.Run(tctx, chromedp.SendKeys(sel, text+"\n", chromedp.ByQuery))
	case actionScroll:
		js := `window.scrollBy(0, window.innerHeight)`
		if dec.Argument == "up" {
			js = `window.scrollBy(0, -window.innerHeight)`
		}
		return "ok", chromedp.Run(tctx, chromedp.Evaluate(js, nil))
	case actionExtract:
		var out string
		if err := chromedp.Run(tctx, chromedp.Text(dec.Argument, &out, chromedp.ByQuery)); err != nil {
			return "", err
		}
		return out, nil
	default:
		return "", fmt.Errorf("unknown action: %q", dec.Action)
	}
}
