package cli

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/NullVoxPopuli/dep-hellp/pkg/audit"
	"github.com/NullVoxPopuli/dep-hellp/pkg/config"
	"github.com/NullVoxPopuli/dep-hellp/pkg/workspace"
)

// checkOptions holds the flags shared by the root command and check.
type checkOptions struct {
	dir             string
	configPath      string
	ignore          []string
	reportOverrides bool
	parallel        bool
	json            bool
	yes             bool
	noRemediate     bool
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Audit node_modules against every package.json",
		Long: `Audit the installed node_modules tree.

Every package of the repository is checked: the root package first, then each
workspace member. For every declared dependency the installed copy is located
the way Node resolves it and its version is tested against the declared range.

When problems are found and the terminal is interactive, dephellp offers to
help: it makes sure the root package.json names a packageManager, offers an
install, and scans again.`,
		Example: `  # Audit the repository containing the current directory
  dephellp check

  # Audit another directory and print JSON
  dephellp check --dir ../app --json

  # Skip a package that is known to be wrong
  dephellp check --ignore left-pad`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, opts)
		},
	}
	bindCheckFlags(cmd, opts)
	return cmd
}

func bindCheckFlags(cmd *cobra.Command, opts *checkOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "C", "", "directory to audit (default: current directory)")
	flags.StringVar(&opts.configPath, "config", "", "configuration file (default: <root>/"+config.FileName+")")
	flags.StringSliceVar(&opts.ignore, "ignore", nil, "dependency names to skip (repeatable)")
	flags.BoolVar(&opts.reportOverrides, "report-overrides", false, "report dependencies pinned by overrides that still mismatch")
	flags.BoolVar(&opts.parallel, "parallel", false, "audit workspace packages concurrently")
	flags.BoolVar(&opts.json, "json", false, "print the result as JSON")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "accept every remediation prompt")
	flags.BoolVar(&opts.noRemediate, "no-remediate", false, "never offer remediation")
	completeAuditFlags(cmd)
}

// runCheck audits the repository, renders the result and, when allowed,
// walks the user through remediation followed by a second audit.
func (c *CLI) runCheck(cmd *cobra.Command, opts *checkOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	env, err := c.prepare(cmd, opts)
	if err != nil {
		return err
	}

	var hooks *spinnerHooks
	if c.Interactive && !opts.json && c.Logger.GetLevel() > log.DebugLevel {
		hooks = &spinnerHooks{}
		env.auditOpts.Hooks = hooks
	}
	orch := audit.NewOrchestrator(env.ws, env.policy, env.auditOpts)

	res, loadErr := c.audit(ctx, hooks, orch.Run)
	if res == nil {
		return loadErr
	}

	if opts.json {
		if err := writeJSON(out, res); err != nil {
			return err
		}
		return verdict(res, loadErr)
	}

	rep := reporter{w: out, paths: newPathFormatter(env.cwd, env.ws.Root.Dir)}
	rep.render(res)
	if res.Clean() || loadErr != nil {
		return verdict(res, loadErr)
	}
	if opts.noRemediate || !(c.Interactive || opts.yes) {
		return ErrProblemsFound
	}

	rem := &remediator{
		out:    out,
		prompt: c.prompts(opts.yes),
		runner: c.Runner,
		cfg:    env.cfg,
		logger: c.Logger,
		cwd:    env.cwd,
	}
	again, err := rem.remediate(ctx, env.ws, res)
	if err != nil {
		return err
	}
	if !again {
		return ErrProblemsFound
	}

	res, loadErr = c.audit(ctx, hooks, orch.Rerun)
	if res == nil {
		return loadErr
	}
	rep.render(res)
	return verdict(res, loadErr)
}

// auditEnv is everything a command needs to build an orchestrator.
type auditEnv struct {
	cwd       string
	ws        *workspace.Workspace
	cfg       *config.Config
	policy    *audit.Policy
	auditOpts audit.Options
}

// prepare discovers the workspace, loads configuration and merges flags
// over it.
func (c *CLI) prepare(cmd *cobra.Command, opts *checkOptions) (*auditEnv, error) {
	cwd, err := resolveDir(opts.dir)
	if err != nil {
		return nil, err
	}
	ws, err := workspace.Find(cwd)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("workspace found", "root", ws.Root.Dir, "tool", ws.Tool, "members", len(ws.Packages))

	var cfg *config.Config
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(ws.Root.Dir)
	}
	if err != nil {
		return nil, err
	}
	for _, key := range cfg.Unknown {
		c.Logger.Warn("unknown configuration key", "key", key, "file", cfg.Path)
	}

	ignore := slices.Concat(cfg.Ignore, opts.ignore)
	policy := audit.NewPolicy(ws.Root.Manifest, ignore...)
	policy.ReportOverrides = cfg.ReportOverrides
	policy.Parallel = cfg.Parallel

	flags := cmd.Flags()
	if flags.Changed("report-overrides") {
		policy.ReportOverrides = opts.reportOverrides
	}
	if flags.Changed("parallel") {
		policy.Parallel = opts.parallel
	}
	if policy.Overrides.Len() > 0 {
		c.Logger.Debug("overrides loaded", "source", policy.Overrides.Source(), "pins", policy.Overrides.Len())
	}

	return &auditEnv{
		cwd:       cwd,
		ws:        ws,
		cfg:       cfg,
		policy:    policy,
		auditOpts: audit.Options{Logger: c.Logger},
	}, nil
}

// audit runs fn, showing a spinner when hooks is set.
func (c *CLI) audit(ctx context.Context, hooks *spinnerHooks, fn func(context.Context) (*audit.RunResult, error)) (*audit.RunResult, error) {
	prog := newProgress(c.Logger)
	if hooks != nil {
		spin := newSpinner(ctx, c.Err, "Scanning")
		hooks.use(spin)
		spin.Start()
		defer spin.Stop()
	}
	res, err := fn(ctx)
	if res != nil {
		prog.done("audit finished", "packages", len(res.Packages), "diagnostics", res.Total)
	}
	return res, err
}

// verdict maps a finished run to the command's error.
func verdict(res *audit.RunResult, loadErr error) error {
	if loadErr != nil {
		return loadErr
	}
	if !res.Clean() {
		return ErrProblemsFound
	}
	return nil
}
