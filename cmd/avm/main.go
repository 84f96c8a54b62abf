package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/colorfulnotion/avm/avm"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/program"
	avmtrace "github.com/colorfulnotion/avm/avm/trace"
	"github.com/colorfulnotion/avm/common"
	"github.com/colorfulnotion/avm/config"
	log "github.com/colorfulnotion/avm/log"
	"github.com/colorfulnotion/avm/storage"
	"github.com/colorfulnotion/avm/telemetry"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configPath string
	dataDir    string
	logLevel   string
	logModules string
	traceFile  string
	cfg        *config.Config
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "avm",
		Short: "Public bytecode simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "JSON config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "db", "", "world state directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "trace|debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&logModules, "log-modules", "", "comma separated modules for trace/debug output")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "write a JSONL instruction trace to this file, - for stdout")

	rootCmd.AddCommand(runCmd(), batchCmd(), deployCmd(), disasmCmd(), traceCmd(), versionCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	var err error
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}
	if cmd.Flags().Changed("db") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-modules") {
		cfg.LogModules = splitList(logModules)
	}
	if cmd.Flags().Changed("trace") {
		cfg.TraceFile = traceFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return log.Setup(log.Options{
		Level:   cfg.LogLevel,
		JSON:    cfg.LogJSON,
		Color:   !cfg.LogJSON,
		Modules: cfg.LogModules,
		Syslog:  cfg.Syslog,
	})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFields(items []string) ([]avmtypes.Fr, error) {
	out := make([]avmtypes.Fr, 0, len(items))
	for _, it := range items {
		v, err := avmtypes.FrFromString(it)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// readBytecode accepts a file holding raw bytes or 0x-prefixed hex, or a hex
// literal given directly.
func readBytecode(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "0x") {
		return common.DecodeHex(arg)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, err
	}
	if text := strings.TrimSpace(string(data)); strings.HasPrefix(text, "0x") {
		return common.DecodeHex(text)
	}
	return data, nil
}

// session is everything a run needs, torn down by close.
type session struct {
	ws       *storage.WorldState
	exec     *avm.Executor
	tracer   *avmtrace.JSONLTraceWriter
	shutdown telemetry.ShutdownFunc
	cancel   context.CancelFunc
}

func openSession(ctx context.Context) (*session, context.Context, error) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	s := &session{cancel: cancel}
	var err error
	if s.ws, err = storage.OpenWorldState(cfg.DataDir); err != nil {
		cancel()
		return nil, nil, err
	}
	if s.shutdown, err = telemetry.InitTracing(ctx, cfg.OTLPEndpoint, "avm", cfg.OTLPInsecure); err != nil {
		s.close()
		return nil, nil, err
	}
	opts := avm.Options{MaxCallDepth: cfg.MaxCallDepth, Programs: avm.NewProgramCache(cfg.ProgramCacheSize)}
	if cfg.TraceFile != "" {
		if s.tracer, err = avmtrace.NewJSONLTraceWriterFile(cfg.TraceFile); err != nil {
			s.close()
			return nil, nil, err
		}
		opts.Tracer = s.tracer
	}
	if cfg.MetricsAddr != "" {
		m := telemetry.NewMetrics()
		opts.Observer = m
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error(log.CLI, "metrics server", "err", err)
			}
		}()
	}
	globals, err := cfg.Globals.Variables()
	if err != nil {
		s.close()
		return nil, nil, err
	}
	s.exec = avm.NewExecutor(s.ws, avm.NewSimulator(opts), globals)
	return s, ctx, nil
}

func (s *session) close() {
	if s.tracer != nil {
		if err := s.tracer.Close(); err != nil {
			log.Warn(log.CLI, "trace close", "err", err)
		}
	}
	if s.shutdown != nil {
		if err := s.shutdown(context.Background()); err != nil {
			log.Warn(log.CLI, "tracing shutdown", "err", err)
		}
	}
	if s.ws != nil {
		s.ws.Close()
	}
	s.cancel()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func report(res *avm.TopLevelResult) error {
	if res.Reverted && res.RevertReason != nil {
		fmt.Fprintln(os.Stderr, res.RevertReason.Tree())
	}
	return printJSON(res)
}

func runCmd() *cobra.Command {
	var (
		address  string
		sender   string
		calldata string
		static   bool
		l2Gas    uint64
		daGas    uint64
		commit   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one top-level call against the world state",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ctx, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			call := avm.TopLevelCall{IsStaticCall: static, Gas: cfg.Gas()}
			if call.Address, err = avmtypes.FrFromString(address); err != nil {
				return fmt.Errorf("--address: %w", err)
			}
			if call.Sender, err = avmtypes.FrFromString(sender); err != nil {
				return fmt.Errorf("--sender: %w", err)
			}
			if call.Calldata, err = parseFields(splitList(calldata)); err != nil {
				return fmt.Errorf("--calldata: %w", err)
			}
			if len(call.Calldata) > 0 {
				call.FunctionSelector = call.Calldata[0]
			}
			if cmd.Flags().Changed("l2-gas") {
				call.Gas.L2 = l2Gas
			}
			if cmd.Flags().Changed("da-gas") {
				call.Gas.DA = daGas
			}

			res, err := s.exec.ExecuteTopLevelCall(ctx, call)
			if err != nil {
				return err
			}
			if commit && res.Effects != nil {
				if err := s.ws.Commit(res.Effects); err != nil {
					return err
				}
			}
			return report(res)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "contract address")
	cmd.Flags().StringVar(&sender, "sender", "0", "sender address")
	cmd.Flags().StringVar(&calldata, "calldata", "", "comma separated field elements")
	cmd.Flags().BoolVar(&static, "static", false, "execute as a static call")
	cmd.Flags().Uint64Var(&l2Gas, "l2-gas", 0, "L2 gas allocation (overrides config)")
	cmd.Flags().Uint64Var(&daGas, "da-gas", 0, "DA gas allocation (overrides config)")
	cmd.Flags().BoolVar(&commit, "commit", false, "persist the effects of a successful call")
	cmd.MarkFlagRequired("address")
	return cmd
}

// batchEntry is one call in a batch file.
type batchEntry struct {
	Address  string   `json:"address"`
	Sender   string   `json:"sender"`
	Calldata []string `json:"calldata"`
	Static   bool     `json:"static"`
}

func batchCmd() *cobra.Command {
	var commit bool
	cmd := &cobra.Command{
		Use:   "batch <calls.json>",
		Short: "Execute independent top-level calls in parallel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var entries []batchEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			calls := make([]avm.TopLevelCall, len(entries))
			for i, e := range entries {
				c := avm.TopLevelCall{IsStaticCall: e.Static, Gas: cfg.Gas()}
				if c.Address, err = avmtypes.FrFromString(e.Address); err != nil {
					return fmt.Errorf("call %d address: %w", i, err)
				}
				if e.Sender != "" {
					if c.Sender, err = avmtypes.FrFromString(e.Sender); err != nil {
						return fmt.Errorf("call %d sender: %w", i, err)
					}
				}
				if c.Calldata, err = parseFields(e.Calldata); err != nil {
					return fmt.Errorf("call %d calldata: %w", i, err)
				}
				if len(c.Calldata) > 0 {
					c.FunctionSelector = c.Calldata[0]
				}
				calls[i] = c
			}

			s, ctx, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()
			results, err := avm.NewPool(s.exec, cfg.Workers).Run(ctx, calls)
			if err != nil {
				return err
			}
			if commit {
				// results are independent simulations; commit in input order
				for _, r := range results {
					if r.Effects == nil {
						continue
					}
					if err := s.ws.Commit(r.Effects); err != nil {
						return err
					}
				}
			}
			return printJSON(results)
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "persist the effects of successful calls")
	return cmd
}

func deployCmd() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "deploy <bytecode>",
		Short: "Store bytecode at an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := avmtypes.FrFromString(address)
			if err != nil {
				return fmt.Errorf("--address: %w", err)
			}
			code, err := readBytecode(args[0])
			if err != nil {
				return err
			}
			ws, err := storage.OpenWorldState(cfg.DataDir)
			if err != nil {
				return err
			}
			defer ws.Close()
			h, err := ws.DeployContract(addr, code)
			if err != nil {
				return err
			}
			fmt.Printf("deployed %d bytes at %s, code hash %s\n", len(code), avmtypes.FrHex(&addr), h.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "contract address")
	cmd.MarkFlagRequired("address")
	return cmd
}

func disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <bytecode>",
		Short: "Print the instructions of a bytecode file or 0x literal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readBytecode(args[0])
			if err != nil {
				return err
			}
			lines, err := program.Disassemble(code)
			for _, l := range lines {
				fmt.Println(l)
			}
			if err != nil {
				log.Debug(log.Disasm, "stopped", "err", err)
			}
			return err
		},
	}
}

func traceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trace <trace.jsonl>",
		Short: "Summarize a JSONL instruction trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			sum, err := avmtrace.Summarize(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return printJSON(sum)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("avm %s (commit %s, built %s)\n", Version, common.GetCommitHash(), BuildTime)
		},
	}
}
