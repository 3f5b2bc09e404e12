package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/parley/internal/instance"
	"github.com/matheus3301/parley/internal/tui"
	"go.uber.org/fx"
)

func main() {
	instanceFlag := flag.String("instance", "", "instance name (overrides config default)")
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(tui.Module(tui.Params{InstanceName: name}))
	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	app.Run()
}
