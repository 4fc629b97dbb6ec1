package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lashdev/lash/internal/agent"
	"github.com/lashdev/lash/internal/config"
	"github.com/lashdev/lash/internal/journal"
	"github.com/lashdev/lash/internal/provider"
	"github.com/lashdev/lash/internal/session"
	"github.com/lashdev/lash/internal/store"
	"github.com/lashdev/lash/internal/toolprovider"
	"github.com/lashdev/lash/pkg/types"
)

var (
	runModel      string
	runDir        string
	runWorkerPath string
	runMaxIters   int
)

var runCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Run one agent turn against a prompt",
	Long: `run boots a sandbox, sends the prompt to the configured model, and
drives the agent loop to completion, printing its event stream to stdout.

Example:
  lash run "list the files in this directory and summarize them"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use, overriding config")
	runCmd.Flags().StringVar(&runDir, "directory", "", "Working directory for the sandbox")
	runCmd.Flags().StringVar(&runWorkerPath, "worker", "", "Path to the sandboxworker binary, overriding config")
	runCmd.Flags().IntVar(&runMaxIters, "max-iterations", 0, "Maximum agent iterations, overriding config")
}

func runRun(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(runDir)
	if err != nil {
		return err
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runModel != "" {
		cfg.Model = runModel
	}
	if runWorkerPath != "" {
		cfg.SandboxWorker = runWorkerPath
	}
	if runMaxIters > 0 {
		cfg.MaxIterations = runMaxIters
	}

	workerPath, err := resolveWorkerPath(cfg.SandboxWorker)
	if err != nil {
		return err
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	st := store.New()
	base := toolprovider.NewComposite(
		toolprovider.NewReadFile(workDir),
		toolprovider.NewListDir(workDir),
		toolprovider.NewViewMessage(st),
	)

	ctx := context.Background()

	newSession := func(ctx context.Context, tools toolprovider.Provider) (*session.Session, error) {
		return session.New(ctx, tools, session.Config{WorkerPath: workerPath, WorkDir: workDir})
	}

	deps := agent.DelegateDeps{Base: base, Client: client, Store: st, NewSession: newSession}
	tools := toolprovider.NewComposite(
		base,
		agent.NewDelegateSearch(deps, cfg.DelegateModels.Quick),
		agent.NewDelegateTask(deps, cfg.DelegateModels.Balanced),
		agent.NewDelegateDeep(deps, cfg.DelegateModels.Thorough),
	)

	sess, err := newSession(ctx, tools)
	if err != nil {
		return fmt.Errorf("boot sandbox: %w", err)
	}
	defer sess.Close()

	a := agent.New(sess, client, st, agent.Config{
		Model:           cfg.Model,
		MaxIterations:   cfg.MaxIterations,
		MaxContextChars: cfg.MaxContextChars,
		DelegateModels: agent.DelegateModels{
			Quick:    cfg.DelegateModels.Quick,
			Balanced: cfg.DelegateModels.Balanced,
			Thorough: cfg.DelegateModels.Thorough,
		},
	}, newSession)

	prompt := strings.Join(args, " ")
	history := []types.Message{
		{ID: uuid.NewString(), Role: types.RoleUser, Parts: []types.Part{
			{ID: uuid.NewString(), Kind: types.PartProse, Content: prompt, PruneState: types.PruneState{Status: types.PruneIntact}},
		}},
	}

	jw, err := journal.New(sessionLogPath(paths, workDir), journal.StartMeta{Model: cfg.Model, Cwd: workDir})
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer jw.Close()
	if err := jw.WriteUserInput(prompt); err != nil {
		return err
	}

	scope := agent.NewCancelScope(ctx)
	events, result := a.Run(scope, history)

	for ev := range events {
		_ = jw.WriteEvent(ev)
		printEvent(ev)
	}

	fmt.Fprintf(os.Stderr, "\n--- %d iterations, %d tool calls, usage in=%d out=%d ---\n",
		result.Iterations, result.ToolCalls, result.Usage.Input, result.Usage.Output)
	if !result.Success {
		return fmt.Errorf("agent run did not complete successfully")
	}
	return nil
}

func printEvent(ev types.AgentEvent) {
	switch ev.Kind {
	case types.EventTextDelta:
		fmt.Print(ev.Content)
	case types.EventCodeBlock:
		fmt.Printf("\n```\n%s\n```\n", ev.Code)
	case types.EventCodeOutput:
		if ev.Output != "" {
			fmt.Println(ev.Output)
		}
		if ev.Error != nil {
			fmt.Fprintln(os.Stderr, *ev.Error)
		}
	case types.EventToolCall:
		fmt.Fprintf(os.Stderr, "[tool] %s success=%v\n", ev.ToolName, ev.Success)
	case types.EventSubAgentDone:
		fmt.Fprintf(os.Stderr, "[delegate] %s done success=%v\n", ev.Task, ev.Success)
	case types.EventMessage:
		if ev.MessageKind == types.MessageFinal {
			fmt.Println(ev.Text)
		}
	case types.EventError:
		fmt.Fprintf(os.Stderr, "error: %s\n", ev.ErrorMessage)
	}
}

func buildClient(cfg config.Config) (provider.Client, error) {
	switch cfg.Provider {
	case "mock":
		return provider.NewMockClient("(mock provider: no response configured)"), nil
	default:
		return provider.NewAnthropicClient(provider.AnthropicConfig{APIKey: cfg.APIKey})
	}
}

// resolveWorkerPath locates the sandboxworker binary: an absolute/relative
// path is used as-is, otherwise it is looked up next to the lash executable
// and finally on PATH.
func resolveWorkerPath(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		return name, nil
	}
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("sandboxworker binary %q not found next to lash or on PATH", name)
	}
	return path, nil
}

func sessionLogPath(paths *config.Paths, workDir string) string {
	name := fmt.Sprintf("%s-%d.jsonl", filepath.Base(workDir), time.Now().UnixNano())
	return filepath.Join(paths.JournalDir(), name)
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}
