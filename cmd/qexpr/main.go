// Package main is the entry point for the qexpr CLI and server.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quickdata/qexpr/pkg/api"
	"github.com/quickdata/qexpr/pkg/engine"
	"github.com/quickdata/qexpr/pkg/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "qexpr",
	Short: "Sandboxed expression evaluator",
}

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an expression",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

var checkCmd = &cobra.Command{
	Use:   "check <expression>",
	Short: "Validate an expression against the sandbox without evaluating it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List built-in functions",
	RunE:  runFunctions,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("qexpr version {{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (env QEXPR_CONFIG)")

	evalCmd.Flags().String("context", "", "Evaluation context as a JSON object")
	evalCmd.Flags().String("context-file", "", "Path to a JSON file holding the evaluation context")

	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8990, env PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")

	rootCmd.AddCommand(evalCmd, checkCmd, functionsCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine builds an engine from the --config flag, QEXPR_CONFIG, or
// defaults.
func newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("QEXPR_CONFIG")
	}
	if path == "" {
		return engine.NewDefault(), nil
	}
	cfg, err := engine.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg), nil
}

func loadContext(cmd *cobra.Command) (types.Value, error) {
	raw, _ := cmd.Flags().GetString("context")
	file, _ := cmd.Flags().GetString("context-file")

	if raw == "" && file == "" {
		return types.Null, nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return types.Null, fmt.Errorf("reading context file: %w", err)
		}
		raw = string(data)
	}

	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return types.Null, fmt.Errorf("parsing context JSON: %w", err)
	}
	return types.FromGo(m), nil
}

func runEval(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}

	result, err := e.Evaluate(args[0], ctx)
	if err != nil {
		return err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}

	violations := e.CheckExpression(args[0])
	if len(violations) == 0 {
		fmt.Println("OK")
		return nil
	}
	for _, v := range violations {
		fmt.Println(v)
	}
	os.Exit(1)
	return nil
}

func runFunctions(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}

	for _, info := range e.Functions() {
		fmt.Printf("%-14s %-10s %s\n", info.Name, info.Category, info.Description)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}

	port := envOrDefault("PORT", "8990")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}
	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	server := api.NewServer(e)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("qexpr server listening on %s", addr)
	return server.Listen(addr)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
