// Package validate checks generated dashboards and rules against the set of
// metrics the service actually exports.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/collection-watcher/tools/dashgen/rules"
)

// histogramSuffixes are the series a histogram or summary exposes beyond its
// base name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects validation problems. Errors make the artifact unusable;
// warnings flag suspicious but valid content.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Expr parses a PromQL expression and checks every selected metric is known.
func Expr(where, expr string, known map[string]bool) Result {
	var res Result

	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: invalid PromQL %q: %v", where, expr, err))
		return res
	}

	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !isKnown(vs.Name, known) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown metric %q", where, vs.Name))
		}
		return nil
	})

	return res
}

func isKnown(name string, known map[string]bool) bool {
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

// Dashboard validates every Prometheus target in the dashboard, including
// panels nested in rows.
func Dashboard(d dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	for _, p := range d.Panels {
		switch {
		case p.Panel != nil:
			res.merge(panel(p.Panel, known))
		case p.RowPanel != nil:
			if len(p.RowPanel.Panels) == 0 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("row %q has no panels", rowTitle(p.RowPanel)))
			}
			for i := range p.RowPanel.Panels {
				res.merge(panel(&p.RowPanel.Panels[i], known))
			}
		}
	}

	return res
}

func panel(p *dashboard.Panel, known map[string]bool) Result {
	var res Result

	title := ""
	if p.Title != nil {
		title = *p.Title
	}
	if len(p.Targets) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no targets", title))
	}

	for _, t := range p.Targets {
		expr, err := targetExpr(t)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("panel %q: %v", title, err))
			continue
		}
		res.merge(Expr("panel "+title, expr, known))
	}

	return res
}

// targetExpr extracts the PromQL expression from a query target through its
// JSON form, which is stable across SDK variant types.
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
	if q.Expr == "" {
		return "", fmt.Errorf("target %T has no PromQL expression", t)
	}
	return q.Expr, nil
}

func rowTitle(r *dashboard.RowPanel) string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// Rules validates every rule expression. Recording rule names become known
// to later rules in the same call.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result

	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Record
			if name == "" {
				name = r.Alert
			}
			if name == "" {
				res.Errors = append(res.Errors, fmt.Sprintf("group %s: rule without record or alert name", g.Name))
				continue
			}
			if r.Alert != "" && r.Labels["severity"] == "" {
				res.Warnings = append(res.Warnings, fmt.Sprintf("alert %s has no severity", r.Alert))
			}
			res.merge(Expr("rule "+name, r.Expr, known))
		}
	}

	return res
}
