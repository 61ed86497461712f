// toolctl lists the registered tools, prints their manifest
// and invokes a tool by name.
//
// Usage:
//
//	toolctl [-config toolbelt.yaml] [-v] list
//	toolctl [-config toolbelt.yaml] manifest [-format json|yaml]
//	toolctl [-config toolbelt.yaml] [-v] call <name> '<json args>'
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/effective-security/toolbelt/callbacks"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/config"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/toolbelt/toolset"
	"github.com/effective-security/toolbelt/utils"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "toolctl")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("toolctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to the config file")
	verbose := fs.Bool("v", false, "Print tool events to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: toolctl [flags] list|manifest|call")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var opts []tools.RegistryOption
	if *verbose {
		opts = append(opts, tools.WithCallback(callbacks.NewFanout(
			callbacks.NewPrinter(stderr, callbacks.ModeVerbose),
			callbacks.NewPackageLogger(logger),
		)))
	}

	registry, err := toolset.New(cfg, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cmdArgs := fs.Args()[1:]
	switch fs.Arg(0) {
	case "list":
		return list(registry, stdout)
	case "manifest":
		return manifest(registry, cmdArgs, stdout, stderr)
	case "call":
		return call(ctx, registry, cmdArgs, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Error: unknown command: %s\n", fs.Arg(0))
		fs.Usage()
		return 2
	}
}

func list(registry *tools.Registry, stdout io.Writer) int {
	for _, tool := range registry.Tools() {
		fmt.Fprintf(stdout, "%s\t%s\n", tool.Name(), tool.Description())
	}
	return 0
}

func manifest(registry *tools.Registry, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("manifest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "json", "Output format: json|yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	defs := registry.Manifest()
	switch *format {
	case "json":
		fmt.Fprintln(stdout, utils.ToJSONIndent(defs))
	case "yaml":
		y, err := utils.JSONToYAML([]byte(utils.ToJSON(defs)))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprint(stdout, y)
	default:
		fmt.Fprintf(stderr, "Error: unsupported format: %s\n", *format)
		return 2
	}
	return 0
}

func call(ctx context.Context, registry *tools.Registry, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: toolctl call <name> '<json args>'")
		return 2
	}
	name := args[0]
	input := "{}"
	if len(args) > 1 {
		input = args[1]
	}

	chatCtx := chatmodel.NewChatContext("", nil, "", nil)
	ctx = chatmodel.WithChatContext(ctx, chatCtx)

	out, err := registry.Invoke(ctx, name, chatCtx, input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, out)
	return 0
}
