package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fluxweld/gatewing/internal/authhook"
	"github.com/fluxweld/gatewing/internal/blueprint"
	"github.com/fluxweld/gatewing/internal/cachestore"
	"github.com/fluxweld/gatewing/internal/config"
	"github.com/fluxweld/gatewing/internal/dispatch/graphqldisp"
	"github.com/fluxweld/gatewing/internal/dispatch/grpcdisp"
	"github.com/fluxweld/gatewing/internal/dispatch/httpdisp"
	"github.com/fluxweld/gatewing/internal/eventbus"
	"github.com/fluxweld/gatewing/internal/logging"
	"github.com/fluxweld/gatewing/internal/metrics"
	"github.com/fluxweld/gatewing/internal/otel"
	"github.com/fluxweld/gatewing/internal/procconfig"
	"github.com/fluxweld/gatewing/internal/protodesc"
	"github.com/fluxweld/gatewing/internal/server"
	"github.com/fluxweld/gatewing/internal/transform"
)

const rootUsage = `gatewing — declarative REST/gRPC/GraphQL gateway

USAGE:
  gatewing <command> [flags]

COMMANDS:
  serve            Run the HTTP gateway against one or more config files
  check            Compile config file(s) into a Blueprint and report errors
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <path>            Source config file, YAML. Repeatable; types with
                             the same name are merged field by field, and
                             a conflicting merge is reported as an error
  -proc-config <path>       Gateway process configuration file (optional)
  -addr <addr>              HTTP listen address (default from proc config)
`

const checkUsage = `check FLAGS:
  -config <path>  Source config file, YAML. Repeatable
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("gatewing", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	switch cmd, cmdArgs := remaining[0], remaining[1:]; cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "check":
		return cmdCheck(cmdArgs)
	case "help":
		fmt.Print(rootUsage)
		return nil
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }
func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdCheck(args []string) error {
	var configPaths stringListFlag
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&configPaths, "config", "Source config file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkUsage)
		return err
	}
	if len(configPaths) == 0 {
		fmt.Fprint(os.Stderr, checkUsage)
		return fmt.Errorf("-config is required (repeatable)")
	}

	c, err := config.LoadAll(configPaths)
	if err != nil {
		return err
	}
	result := blueprint.Compile(c, blueprint.Requesters{}, transform.EntityResolver)
	if !result.OK() {
		for _, cause := range result.Causes() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", strings.Join(cause.Path, "."), cause.Message)
		}
		return fmt.Errorf("check: %d error(s)", len(result.Causes()))
	}
	fmt.Println("ok")
	return nil
}

func cmdServe(args []string) error {
	var configPaths stringListFlag
	procConfigPath := ""
	addrOverride := ""

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&configPaths, "config", "Source config file")
	fs.StringVar(&procConfigPath, "proc-config", "", "Gateway process configuration file")
	fs.StringVar(&addrOverride, "addr", "", "HTTP listen address")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if len(configPaths) == 0 {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-config is required (repeatable)")
	}

	procCfg, err := procconfig.NewLoader(procconfig.WithConfigPath(procConfigPath)).Load()
	if err != nil {
		return fmt.Errorf("proc config: %w", err)
	}
	logging.Init(logging.Config{Level: procCfg.Log.Level, Format: procCfg.Log.Format, Output: procCfg.Log.Output})

	c, err := config.LoadAll(configPaths)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	metrics.Register()
	shutdown, err := otel.Setup(procCfg.Telemetry.OTLPEndpoint, "gatewing")
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	cache, err := cachestore.New(&cachestore.Options{
		Backend:    procCfg.Cache.Backend,
		DefaultTTL: procCfg.Cache.DefaultTTL,
		RedisAddr:  procCfg.Cache.RedisAddr,
	})
	if err != nil {
		return fmt.Errorf("cache init: %w", err)
	}
	defer cache.Close()

	httpClient := httpdisp.New(httpdisp.DefaultOptions())
	grpcClient := &grpcdisp.Dispatcher{
		Methods: protodesc.New(nil),
		Dial:    grpcdisp.NewPool(4),
		Timeout: 10 * time.Second,
	}

	result := blueprint.Compile(c, blueprint.Requesters{
		HTTP:    httpClient,
		GRPC:    grpcClient,
		GraphQL: graphqldisp.New(httpClient),
		Cache:   cachestore.EvalirBackend{Cache: cache},
	}, transform.EntityResolver)
	if !result.OK() {
		for _, cause := range result.Causes() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", strings.Join(cause.Path, "."), cause.Message)
		}
		return fmt.Errorf("serve: blueprint has %d error(s)", len(result.Causes()))
	}
	bp := result.Value()

	var authOK func(ctx context.Context) bool
	if procCfg.Auth.JWTSecret != "" {
		authOK = authhook.AuthOK
	}

	gw := server.NewGateway(bp,
		server.WithTimeout(procCfg.Server.ReadTimeout),
		server.WithCORS("*"),
	)
	gw.AuthOK = authOK

	mux := http.NewServeMux()
	mux.Handle("/graphql", gw)
	mux.HandleFunc("/health", server.ServeHealth)
	mux.Handle("/metrics", metrics.Handler())

	addr := procCfg.Server.Addr
	if addrOverride != "" {
		addr = addrOverride
	}
	log.Printf("gatewing listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
