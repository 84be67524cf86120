// Package bot dispatches host message events to command handlers and
// implements the caption and help commands.
package bot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/haoyuedashi/meme-text-bot/internal/models"
)

// HandlerFunc handles one matched command. args is the text after the
// matched prefix or command name, already trimmed.
type HandlerFunc func(ctx context.Context, event *models.MessageEvent, args string)

type ruleKind int

const (
	rulePrefix ruleKind = iota
	ruleCommand
)

// Rule is one dispatch rule: either a prefix match (caption command)
// or an exact command name (help).
type Rule struct {
	kind    ruleKind
	token   string
	handler HandlerFunc
}

func PrefixRule(prefix string, handler HandlerFunc) Rule {
	return Rule{kind: rulePrefix, token: prefix, handler: handler}
}

func CommandRule(name string, handler HandlerFunc) Rule {
	return Rule{kind: ruleCommand, token: name, handler: handler}
}

func (r Rule) match(text string) (string, bool) {
	switch r.kind {
	case rulePrefix:
		if strings.HasPrefix(text, r.token) {
			return strings.TrimSpace(strings.TrimPrefix(text, r.token)), true
		}
	case ruleCommand:
		if text == r.token {
			return "", true
		}
		if strings.HasPrefix(text, r.token+" ") {
			return strings.TrimSpace(strings.TrimPrefix(text, r.token)), true
		}
	}
	return "", false
}

// Router routes message events to the first rule matching their plain
// text. Non-matching messages are ignored entirely.
type Router struct {
	rules  []Rule
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{logger: logger}
}

func (r *Router) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Dispatch extracts the event's plain text and invokes the first
// matching handler, if any.
func (r *Router) Dispatch(ctx context.Context, event *models.MessageEvent) {
	text := event.PlainText()
	if text == "" {
		return
	}
	for _, rule := range r.rules {
		if args, ok := rule.match(text); ok {
			rule.handler(ctx, event, args)
			return
		}
	}
}
