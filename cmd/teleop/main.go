// Command teleop is a natural-language tele-operation console for a robot.
//
// Usage:
//
//	OPENAI_API_KEY=sk-... teleop [flags]
//	GEMINI_API_KEY=gk-... teleop -provider gemini [flags]
//
// Flags:
//
//	-config string     Path to YAML config file
//	-provider string   Completion provider: openai, gemini
//	-model string      Model ID (default: provider default)
//	-mode string       Initial mode: function_calling, codegen
//	-once string       Run a single headless turn with this message, print
//	                   the envelope as JSON, and exit (implies auto-approve)
//	-auto-approve      Approve every tool call without asking
//	-dry-run           Plan and approve but never execute
//	-mocks             Substitute mock implementations where available
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/agent"
	"github.com/mwidla/teleop/catalog"
	"github.com/mwidla/teleop/codegen"
	"github.com/mwidla/teleop/config"
	"github.com/mwidla/teleop/gate"
	"github.com/mwidla/teleop/gemini"
	teleopjson "github.com/mwidla/teleop/json"
	"github.com/mwidla/teleop/logging"
	"github.com/mwidla/teleop/notify"
	"github.com/mwidla/teleop/openai"
	"github.com/mwidla/teleop/robot"
	"github.com/mwidla/teleop/router"
	"github.com/mwidla/teleop/sandbox"
	"github.com/mwidla/teleop/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "teleop: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		provider    = flag.String("provider", "", "Completion provider: openai, gemini")
		model       = flag.String("model", "", "Model ID (provider-specific)")
		mode        = flag.String("mode", "", "Initial mode: function_calling, codegen")
		once        = flag.String("once", "", "Run one headless turn with this message and exit")
		autoApprove = flag.Bool("auto-approve", false, "Approve every tool call without asking")
		dryRun      = flag.Bool("dry-run", false, "Plan and approve but never execute")
		mocks       = flag.Bool("mocks", false, "Substitute mock implementations where available")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, *provider, *model, *mode, *autoApprove, *dryRun, *mocks)
	if *once != "" {
		// Headless turns have no one at the keyboard to ask.
		cfg.Approval.AutoApprove = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, sync, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Tool catalog over the robot's capability providers.
	handle := robot.NewHandle(newTransport(cfg.Robot))
	defer handle.Close()
	cat := catalog.New(catalog.WithLogger(logger))
	registered := cat.Register(robot.Providers(handle)...)
	logger.Info("catalog ready", zap.Int("tools", registered))

	broadcaster := notify.New(notify.WithLogger(logger))
	defer broadcaster.Close()

	allowlist, err := gate.NewAllowlist(cfg.Approval.Allowlist...)
	if err != nil {
		return err
	}
	approver := tui.NewApprover()
	g := gate.New(
		gate.WithAutoApprove(cfg.Approval.AutoApprove),
		gate.WithDryRun(cfg.Approval.DryRun),
		gate.WithMocks(cfg.Approval.Mocks),
		gate.WithAllowlist(allowlist),
		gate.WithApprover(approver),
		gate.WithNotifier(broadcaster),
		gate.WithLogger(logger),
	)
	registerTools(g, cat)

	completer, err := newCompleter(ctx, cfg.Model)
	if err != nil {
		return err
	}

	runner := sandbox.New(
		sandbox.WithInterpreter(cfg.Sandbox.Interpreter),
		sandbox.WithTimeout(time.Duration(cfg.Sandbox.TimeoutSeconds)*time.Second),
		sandbox.WithLogger(logger),
	)

	build := func(mc router.ModelConfig) (router.Backend, router.Backend) {
		fc := agent.New(completer, cat, g,
			agent.WithModel(mc.Model),
			agent.WithTemperature(mc.Temperature),
			agent.WithMaxTokens(mc.MaxTokens),
			agent.WithNotifier(broadcaster),
			agent.WithLogger(logger),
		)
		cg := codegen.New(completer, cat, g, runner,
			codegen.WithModel(mc.Model),
			codegen.WithTemperature(mc.Temperature),
			codegen.WithMaxTokens(mc.MaxTokens),
			codegen.WithNotifier(broadcaster),
			codegen.WithLogger(logger),
		)
		return fc, cg
	}

	r := router.New(build, router.ModelConfig{
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	}, cat,
		router.WithLogger(logger),
		router.WithMode(teleop.Mode(cfg.Mode)),
	)

	sessionID := uuid.NewString()
	started := time.Now()
	defer saveAudit(cfg.Approval.AuditPath, sessionID, started, g, logger)

	if *once != "" {
		return runOnce(ctx, r, *once)
	}

	events, unsubscribe := broadcaster.Subscribe()
	defer unsubscribe()
	m := tui.New(r, events, approver, teleop.DefaultTheme())
	if err := tui.Run(ctx, m); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

// applyFlags overlays explicitly set command-line flags on the loaded
// configuration.
func applyFlags(cfg *config.Config, provider, model, mode string, autoApprove, dryRun, mocks bool) {
	if provider != "" {
		cfg.Model.Provider = provider
		if provider == "gemini" && cfg.Model.APIKeyEnv == "OPENAI_API_KEY" {
			cfg.Model.APIKeyEnv = "GEMINI_API_KEY"
		}
	}
	if model != "" {
		cfg.Model.Name = model
	}
	if mode != "" {
		cfg.Mode = mode
	}
	if autoApprove {
		cfg.Approval.AutoApprove = true
	}
	if dryRun {
		cfg.Approval.DryRun = true
	}
	if mocks {
		cfg.Approval.Mocks = true
	}
}

func newTransport(cfg config.RobotConfig) robot.Transport {
	// Real SDK transports hook in here once they exist; everything else
	// falls back to the virtual robot.
	return robot.NewVirtual()
}

func newCompleter(ctx context.Context, cfg config.ModelConfig) (teleop.Completer, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set %s", cfg.APIKeyEnv)
	}
	switch cfg.Provider {
	case "gemini":
		var opts []gemini.Option
		if cfg.Name != "" {
			opts = append(opts, gemini.WithModel(cfg.Name))
		}
		return gemini.New(ctx, apiKey, opts...)
	default:
		var opts []openai.Option
		if cfg.Name != "" {
			opts = append(opts, openai.WithModel(cfg.Name))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(apiKey, opts...), nil
	}
}

// registerTools binds every catalog tool into the approval gate.
func registerTools(g *gate.Executor, cat *catalog.Catalog) {
	for _, name := range cat.Names() {
		tool, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		opts := []gate.RegisterOption{
			gate.WithParams(tool.Schema.Parameters),
			gate.WithReasoning(tool.Schema.Description),
		}
		if tool.Mock != nil {
			opts = append(opts, gate.WithMock(tool.Mock))
		}
		g.Register(name, tool.Impl, opts...)
	}
}

// runOnce processes a single message and prints the envelope as JSON.
func runOnce(ctx context.Context, r *router.Router, text string) error {
	env := r.ProcessMessage(ctx, text)
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	if env.Error != "" {
		return fmt.Errorf("turn failed: %s", env.Error)
	}
	return nil
}

func saveAudit(path, sessionID string, started time.Time, g *gate.Executor, logger *zap.Logger) {
	if path == "" {
		return
	}
	log := teleopjson.AuditLog{
		SessionID: sessionID,
		CreatedAt: started,
		UpdatedAt: time.Now(),
		Records:   g.History(),
	}
	if err := teleopjson.Save(path, log); err != nil {
		logger.Error("audit log not saved", zap.Error(err))
		return
	}
	logger.Info("audit log saved", zap.String("path", path), zap.Int("records", len(log.Records)))
}
