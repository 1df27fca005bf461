package cmd

import (
	"strings"

	"github.com/cuinixam/pypeline/internal/pipeline"
	"github.com/cuinixam/pypeline/internal/styles"
	"github.com/cuinixam/pypeline/internal/util"
)

const descriptionWidth = 60

// renderPlan lists the selected steps grouped as declared.
func renderPlan(cfg pipeline.Config) string {
	var names []string
	for _, d := range cfg.Steps() {
		names = append(names, d.Step)
	}
	width := util.MaxWidth(names)

	var b strings.Builder
	b.WriteString(styles.Title.Render("Selected " + util.Plural(cfg.Len(), "step")))
	b.WriteString("\n")
	for _, g := range cfg.Groups() {
		indent := ""
		if cfg.IsGrouped() {
			b.WriteString(styles.GroupHeader.Render(g.Name))
			b.WriteString("\n")
			indent = "  "
		}
		for _, d := range g.Steps {
			b.WriteString(indent)
			b.WriteString(styles.StepName.Render(util.PadRight(d.Step, width)))
			b.WriteString("  ")
			b.WriteString(styles.SourceLabel(d.Source()))
			if d.Description != "" {
				b.WriteString("  ")
				b.WriteString(styles.Muted.Render(util.Truncate(d.Description, descriptionWidth)))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
