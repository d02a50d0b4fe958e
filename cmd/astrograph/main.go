// Command astrograph is the scriptable CLI surface over the analysis
// engine. Command tree shape grounded on demo/cmd/main.go's
// rootCmd/runCmd/listCmd cobra wiring; unlike the demo, astrograph has no
// color output (spec §6's report format is fixed plain UTF-8 text) and
// registers real language plugins instead of transformation providers.
package main

import (
	"fmt"
	"os"

	"github.com/oxhq/astrograph/internal/config"
)

func main() {
	cfg := config.Load()
	root := newRootCmd(cfg)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
