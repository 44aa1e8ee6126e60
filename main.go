package main

import (
	"fmt"
	"os"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the esg-audit command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
