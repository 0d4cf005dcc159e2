package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/danmuck/gridctl/internal/config"
	"github.com/danmuck/gridctl/internal/grid"
	"github.com/danmuck/gridctl/internal/logging"
	"github.com/danmuck/gridctl/internal/observability"
	"github.com/danmuck/gridctl/internal/transport"
)

const usage = `usage: gridctl [-config file] [-addr host:port] <command> [args]

commands:
  info <name>           describe the named array
  str <name>            print the named array
  repr <name>           print the developer rendering of the named array
  reduce <op> <name>    run a reduction (sum, min, max, mean, ...) and print the result
  rm <name>             delete the named array on the server
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gridctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("gridctl", flag.ExitOnError)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	configPath := flags.String("config", "", "path to gridctl.toml")
	addr := flags.String("addr", "", "grid server address (overrides the config file)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		flags.Usage()
		return fmt.Errorf("missing command")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Transport.Addr = *addr
	}
	if cfg.Transport.Addr == "" {
		return fmt.Errorf("no server address: pass -addr or set addr in the config file")
	}

	logging.ConfigureRuntime()
	observability.InitLogger("gridctl")
	// the file-level setting yields to a GRIDCTL_LOG_LEVEL override
	if _, ok := logging.ParseLevel(os.Getenv(logging.EnvLogLevel)); !ok {
		if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
			zerolog.SetGlobalLevel(lvl)
		}
	}

	ctx := context.Background()
	tp, err := transport.Dial(ctx, cfg.Transport)
	if err != nil {
		return err
	}
	client := grid.NewClient(tp, cfg.Session)
	defer client.Close()

	return dispatch(ctx, client, flags.Args())
}

func dispatch(ctx context.Context, client *grid.Client, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "info":
		if len(rest) != 1 {
			return fmt.Errorf("usage: gridctl info <name>")
		}
		return printReply(client.Info(ctx, rest[0]))
	case "str":
		if len(rest) != 1 {
			return fmt.Errorf("usage: gridctl str <name>")
		}
		return printReply(client.Str(ctx, rest[0]))
	case "repr":
		if len(rest) != 1 {
			return fmt.Errorf("usage: gridctl repr <name>")
		}
		return printReply(client.Repr(ctx, rest[0]))
	case "reduce":
		if len(rest) != 2 {
			return fmt.Errorf("usage: gridctl reduce <op> <name>")
		}
		return reduce(ctx, client, rest[0], rest[1])
	case "rm":
		if len(rest) != 1 {
			return fmt.Errorf("usage: gridctl rm <name>")
		}
		return client.Remove(ctx, rest[0])
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// reduce works from a raw name, so it first asks the server for the
// array's descriptor and then runs the named reduction against it.
func reduce(ctx context.Context, client *grid.Client, op, name string) error {
	reply, err := client.Info(ctx, name)
	if err != nil {
		return err
	}
	arr, err := client.ArrayFromReply(reply)
	if err != nil {
		return err
	}
	v, err := arr.Reduce(ctx, op)
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func printReply(reply string, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}
