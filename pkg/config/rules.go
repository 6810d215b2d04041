package config

import (
	"context"
	"fmt"

	"github.com/rendis/addonkit/internal/expressions"
	"github.com/rendis/addonkit/pkg/schema"
	"github.com/robfig/cron/v3"
)

const (
	langCEL   = "cel"
	langExpr  = "expr"
	langJQ    = "jq"
	langCheck = "check"
)

// Rule is a cross-field constraint evaluated against the decoded configuration
// document. Expression rules must yield a bool; false reports Message.
type Rule struct {
	Lang    string
	Expr    string
	Message string

	check func(doc map[string]any) error
}

// CEL returns a rule written in CEL. The document is bound to self.
func CEL(expression, message string) Rule {
	return Rule{Lang: langCEL, Expr: expression, Message: message}
}

// Expr returns a rule written in expr. Document fields are top-level
// variables.
func Expr(expression, message string) Rule {
	return Rule{Lang: langExpr, Expr: expression, Message: message}
}

// JQ returns a rule written in jq. The document is the input.
func JQ(expression, message string) Rule {
	return Rule{Lang: langJQ, Expr: expression, Message: message}
}

// Check returns a rule backed by a Go function. A non-nil error is the
// violation message.
func Check(name string, fn func(doc map[string]any) error) Rule {
	return Rule{Lang: langCheck, Expr: name, check: fn}
}

// CronSchedule checks that field, when set, holds a standard five-field cron
// expression.
func CronSchedule(field string) Rule {
	return Check(field+" is a cron schedule", func(doc map[string]any) error {
		s, _ := doc[field].(string)
		if s == "" {
			return nil
		}
		if _, err := cron.ParseStandard(s); err != nil {
			return fmt.Errorf("%s must be a valid cron schedule: %w", field, err)
		}
		return nil
	})
}

func (r Rule) String() string {
	return r.Lang + ": " + r.Expr
}

// compiledRule is a Rule bound to one configuration type.
type compiledRule struct {
	Rule
	prg expressions.Program
}

// compile binds r to the documents of shape.Type. Check rules need no engine.
func (r Rule) compile(engines map[string]expressions.Engine, shape expressions.Shape) (compiledRule, error) {
	details := map[string]any{"rule": r.String()}

	if r.Lang == langCheck {
		if r.check == nil {
			return compiledRule{}, schema.NewErrorf(schema.ErrCodeValidation, "rule %q has no check", r.Expr).WithDetails(details)
		}
		return compiledRule{Rule: r}, nil
	}

	engine, ok := engines[r.Lang]
	if !ok {
		return compiledRule{}, schema.NewErrorf(schema.ErrCodeValidation, "unknown rule language %q", r.Lang).WithDetails(details)
	}
	prg, err := engine.Compile(r.Expr, shape)
	if err != nil {
		return compiledRule{}, schema.NewErrorf(schema.ErrCodeValidation, "rule %q does not compile for %s: %s", r.Expr, shape.Type, err.Error()).
			WithCause(err).
			WithDetails(details)
	}
	return compiledRule{Rule: r, prg: prg}, nil
}

// evaluate returns nil when the rule holds, ErrCodeRuleViolation when it does
// not and ErrCodeValidation when it cannot be evaluated.
func (c compiledRule) evaluate(ctx context.Context, doc map[string]any) error {
	details := map[string]any{"rule": c.String()}

	if c.prg == nil {
		if err := c.check(doc); err != nil {
			return schema.NewError(schema.ErrCodeRuleViolation, err.Error()).WithCause(err).WithDetails(details)
		}
		return nil
	}

	holds, err := c.prg.Eval(ctx, doc)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "rule %q failed: %s", c.Expr, err.Error()).
			WithCause(err).
			WithDetails(details)
	}
	if !holds {
		return schema.NewError(schema.ErrCodeRuleViolation, c.Message).WithDetails(details)
	}
	return nil
}
