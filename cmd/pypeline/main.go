// Command pypeline runs the development pipeline of a project.
package main

import (
	"fmt"
	"os"

	"github.com/cuinixam/pypeline/internal/cmd"
	"github.com/cuinixam/pypeline/internal/styles"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorPrefix.Render("error:"), err)
		os.Exit(1)
	}
}
