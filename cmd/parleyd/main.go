package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/parley/internal/daemon"
	"github.com/matheus3301/parley/internal/instance"
	"go.uber.org/fx"
)

func main() {
	instanceFlag := flag.String("instance", "", "instance name (overrides config default)")
	consoleFlag := flag.Bool("console", false, "also log to stderr")
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{InstanceName: name, Console: *consoleFlag}),
	)

	app.Run()
}
