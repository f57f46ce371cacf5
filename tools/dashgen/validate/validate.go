// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and reference only known metrics.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/deal-finder/tools/dashgen/rules"
)

// histogramSuffixes are the series a histogram exposes beyond its base name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects validation findings. Errors fail generation; warnings
// are reported but do not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Expr parses expr and returns the metric names it selects.
func Expr(expr string) ([]string, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, err
	}

	var names []string
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		if vs, ok := n.(*parser.VectorSelector); ok && vs.Name != "" {
			names = append(names, vs.Name)
		}
		return nil
	})
	return names, nil
}

// Known reports whether name, or its histogram base name, is in known.
func Known(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

func (r *Result) checkExpr(where, expr string, known map[string]bool) {
	names, err := Expr(expr)
	if err != nil {
		r.errorf("%s: invalid PromQL %q: %v", where, expr, err)
		return
	}
	for _, name := range names {
		if !Known(name, known) {
			r.errorf("%s: unknown metric %q", where, name)
		}
	}
}

// Dashboard validates every Prometheus target of every panel in d,
// including panels nested in rows.
func Dashboard(d dashboard.Dashboard, known map[string]bool) Result {
	var r Result
	for _, p := range d.Panels {
		switch {
		case p.Panel != nil:
			r.checkPanel(p.Panel, known)
		case p.RowPanel != nil:
			for i := range p.RowPanel.Panels {
				r.checkPanel(&p.RowPanel.Panels[i], known)
			}
		}
	}
	return r
}

func (r *Result) checkPanel(p *dashboard.Panel, known map[string]bool) {
	title := "untitled panel"
	if p.Title != nil {
		title = *p.Title
	}
	if len(p.Targets) == 0 {
		r.warnf("panel %q has no targets", title)
		return
	}
	for _, t := range p.Targets {
		expr, err := targetExpr(t)
		if err != nil {
			r.errorf("panel %q: %v", title, err)
			continue
		}
		if expr == "" {
			r.warnf("panel %q: skipping target without expr", title)
			continue
		}
		r.checkExpr(fmt.Sprintf("panel %q", title), expr, known)
	}
}

// targetExpr reads the PromQL expression from a query target through its
// JSON form, which is stable across dataquery variants.
func targetExpr(t any) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding target: %w", err)
	}
	var q struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return "", fmt.Errorf("decoding target: %w", err)
	}
	return q.Expr, nil
}

// Rules validates rule expressions. Names recorded by the rules count as
// known for the rules that follow them.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var r Result
	seen := make(map[string]bool, len(known))
	for k, v := range known {
		seen[k] = v
	}

	for _, g := range cr.Spec.Groups {
		for _, rule := range g.Rules {
			name := rule.Record
			if name == "" {
				name = rule.Alert
			}
			if name == "" {
				r.errorf("group %s: rule without record or alert name", g.Name)
				continue
			}
			r.checkExpr(fmt.Sprintf("rule %s", name), rule.Expr, seen)
			if rule.Record != "" {
				seen[rule.Record] = true
			}
			if rule.Alert != "" && rule.Labels["severity"] == "" {
				r.warnf("alert %s has no severity label", rule.Alert)
			}
		}
	}
	return r
}
