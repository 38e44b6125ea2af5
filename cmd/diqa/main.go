// Command diqa runs replication flow scenarios against a Data Intelligence
// cluster.
//
// Usage:
//
//	diqa validate scenarios/abap_to_hana.yaml
//	diqa run scenarios/
//	diqa history
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()

	// Commands report their own failures; anything else is a usage error from cobra.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
