package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/leehee16/monitoring-task-automation/internal/di"
	"github.com/leehee16/monitoring-task-automation/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to configuration file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "mirror logs to stderr")
	flag.BoolVar(&flags.Once, "once", false, "execute a single collection run and exit")
	flag.BoolVar(&flags.Report, "report", false, "write the history report and exit")
	flag.StringVar(&flags.Classifications, "classifications", "", "apply a classification feed (CSV) and exit")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
