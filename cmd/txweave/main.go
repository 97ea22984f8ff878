package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/txweave/txweave/internal/eventbus"
	"github.com/txweave/txweave/internal/otel"
	"github.com/txweave/txweave/ledgertp"
	"github.com/txweave/txweave/planfile"
	"github.com/txweave/txweave/txplan"
	"github.com/txweave/txweave/txsigner"
)

const rootUsage = `txweave — transaction plan execution for the ledger

USAGE:
  txweave <command> [flags]

COMMANDS:
  run              Execute a plan file against the ledger
  check            Validate a plan file offline and render its tree
  keygen           Generate ed25519 seeds for plan file signers
  help             Show help for any command
`

const runUsage = `run FLAGS:
  -plan <file>                 Plan file to execute (required)
  -ledger.endpoint <host:port> Ledger gRPC endpoint. Repeatable; at least one
                               required
  -ledger.rpc-timeout <dur>    Per-RPC timeout, e.g. 3s (default: 3s)
  -run.timeout <duration>      Whole-run timeout; 0 disables (default: 0)
  -run.confirm                 Wait for ledger confirmation of every unit
  -run.strict                  Reject plans with non-divisible groups up front
  -otel.endpoint <addr>        OTLP collector endpoint
  -otel.service <name>         OpenTelemetry service name (default: txweave)
`

const checkUsage = `check FLAGS:
  -plan <file>   Plan file to validate (required)
`

const keygenUsage = `keygen FLAGS:
  -n <count>   Number of keypairs to generate (default: 1)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("txweave", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "run":
		return cmdRun(cmdArgs)
	case "check":
		return cmdCheck(cmdArgs)
	case "keygen":
		return cmdKeygen(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "run":
		fmt.Print(runUsage)
	case "check":
		fmt.Print(checkUsage)
	case "keygen":
		fmt.Print(keygenUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdRun(args []string) error {
	planPath := ""
	rpcTimeout := 3 * time.Second
	runTimeout := time.Duration(0)
	confirm := false
	strict := false
	otelEndpoint := ""
	otelService := "txweave"
	var endpoints stringListFlag

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&planPath, "plan", planPath, "Plan file to execute")
	fs.Var(&endpoints, "ledger.endpoint", "Ledger gRPC endpoint")
	fs.DurationVar(&rpcTimeout, "ledger.rpc-timeout", rpcTimeout, "Per-RPC timeout")
	fs.DurationVar(&runTimeout, "run.timeout", runTimeout, "Whole-run timeout")
	fs.BoolVar(&confirm, "run.confirm", confirm, "Wait for ledger confirmation")
	fs.BoolVar(&strict, "run.strict", strict, "Reject non-divisible plans up front")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, runUsage)
		return err
	}
	if planPath == "" {
		fmt.Fprint(os.Stderr, runUsage)
		return fmt.Errorf("-plan is required")
	}
	if len(endpoints) == 0 {
		fmt.Fprint(os.Stderr, runUsage)
		return fmt.Errorf("at least one -ledger.endpoint is required")
	}

	f, err := planfile.Load(planPath)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	trOpts := []ledgertp.Option{
		ledgertp.WithProvider(ledgertp.NewStaticEndpoints(endpoints...)),
	}
	if rpcTimeout > 0 {
		trOpts = append(trOpts, ledgertp.WithRPCTimeout(rpcTimeout))
	}
	transport := ledgertp.New(trOpts...)
	defer func() { _ = transport.Close() }()
	client := ledgertp.NewClient(transport)

	ctx := context.Background()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	anchor, height, err := client.LatestAnchor(ctx)
	if err != nil {
		return fmt.Errorf("fetch anchor: %w", err)
	}
	log.Printf("batch %s anchored at height %d", f.Batch, height)

	plan, err := f.BuildPlan()
	if err != nil {
		return err
	}
	planfile.StampAnchor(plan, anchor)

	var cbOpts []txsigner.CallbackOption
	if confirm {
		cbOpts = append(cbOpts, txsigner.WithConfirmer(client))
	}
	var exOpts []txplan.ExecutorOption
	if strict {
		exOpts = append(exOpts, txplan.WithStrictDivisibility())
	}
	executor := txplan.NewExecutor(txsigner.PlanCallback(client, cbOpts...), exOpts...)

	res, err := txplan.Outcome(executor.Execute(ctx, plan))
	if err != nil {
		// Validation failures: nothing ran, there is no tree to report.
		return err
	}

	for i, leaf := range txplan.Flatten(res) {
		switch status := leaf.Status.(type) {
		case *txplan.Successful:
			fmt.Printf("unit %d: successful %s\n", i, status.Confirmation)
		case *txplan.Failed:
			fmt.Printf("unit %d: failed: %v\n", i, status.Err)
		case *txplan.Canceled:
			fmt.Printf("unit %d: canceled\n", i)
		}
	}
	sum := txplan.Summarize(res)
	fmt.Printf("%d successful, %d failed, %d canceled\n", sum.Successful, sum.Failed, sum.Canceled)
	if !sum.AllSuccessful() {
		return fmt.Errorf("plan finished with %d failed and %d canceled units", sum.Failed, sum.Canceled)
	}
	return nil
}

func cmdCheck(args []string) error {
	planPath := ""
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&planPath, "plan", planPath, "Plan file to validate")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkUsage)
		return err
	}
	if planPath == "" {
		fmt.Fprint(os.Stderr, checkUsage)
		return fmt.Errorf("-plan is required")
	}

	f, err := planfile.Load(planPath)
	if err != nil {
		return err
	}
	plan, err := f.BuildPlan()
	if err != nil {
		return err
	}

	fmt.Printf("batch %s\n", f.Batch)
	renderPlan(plan, 0)
	fmt.Printf("%d units of work\n", txplan.CountLeaves(plan))
	return nil
}

func renderPlan(n txplan.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := n.(type) {
	case *txplan.Single:
		fmt.Printf("%ssingle payer=%s instructions=%d\n", indent, v.Message.Payer.Short(), len(v.Message.Instructions))
	case *txplan.Sequential:
		kind := "sequential"
		if !v.Divisible {
			kind = "sequential (non-divisible)"
		}
		fmt.Printf("%s%s\n", indent, kind)
		for _, c := range v.Children {
			renderPlan(c, depth+1)
		}
	case *txplan.Parallel:
		fmt.Printf("%sparallel\n", indent)
		for _, c := range v.Children {
			renderPlan(c, depth+1)
		}
	}
}

func cmdKeygen(args []string) error {
	n := 1
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.IntVar(&n, "n", n, "Number of keypairs to generate")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, keygenUsage)
		return err
	}
	if n < 1 {
		return fmt.Errorf("-n must be at least 1")
	}

	for i := 0; i < n; i++ {
		seed := make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return err
		}
		kp, err := txsigner.KeypairFromSeed(seed)
		if err != nil {
			return err
		}
		fmt.Printf("seed: %s\naddress: %s\n", hex.EncodeToString(seed), kp.Address())
	}
	return nil
}
