package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuinixam/pypeline/internal/step"
	"github.com/cuinixam/pypeline/internal/styles"

	// Built-in steps register themselves with step.Default.
	_ "github.com/cuinixam/pypeline/internal/steps/buildtrigger"
	_ "github.com/cuinixam/pypeline/internal/steps/createvenv"
	_ "github.com/cuinixam/pypeline/internal/steps/envsetup"
	_ "github.com/cuinixam/pypeline/internal/steps/loadenv"
	_ "github.com/cuinixam/pypeline/internal/steps/westinstall"
)

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the built-in steps",
		Long: `List the built-in steps by module. Reference them in pypeline.yaml with

  - step: CreateVEnv
    module: pypeline.steps.create_venv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), renderRegistry(step.Default))
			return err
		},
	}
}

func renderRegistry(r *step.Registry) string {
	var b strings.Builder
	for _, module := range r.Modules() {
		b.WriteString(styles.GroupHeader.Render(module))
		b.WriteString("\n")
		for _, name := range r.Steps(module) {
			b.WriteString("  ")
			b.WriteString(styles.StepName.Render(name))
			b.WriteString("\n")
		}
	}
	return b.String()
}
