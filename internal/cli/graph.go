package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NullVoxPopuli/dep-hellp/pkg/audit"
	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
	"github.com/NullVoxPopuli/dep-hellp/pkg/graph"
	"github.com/NullVoxPopuli/dep-hellp/pkg/render/nodelink"
)

const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatJSON = "json"
)

var graphFormats = []string{formatDOT, formatSVG, formatJSON}

// graphOptions holds the flags of the graph command.
type graphOptions struct {
	checkOptions
	output   string
	format   string
	pkg      string
	detailed bool
}

// graphCommand creates the graph command for exporting the installed tree.
func (c *CLI) graphCommand() *cobra.Command {
	opts := &graphOptions{}
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the installed dependency graph",
		Long: `Audit the repository and export the installed dependency graph.

Nodes are installed package directories, edges are declarations. Packages and
declarations with problems are highlighted. In a monorepo the graphs of all
packages are merged unless --package selects one.`,
		Example: `  dephellp graph -o deps.svg
  dephellp graph --format json --package @acme/web`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := graphFormat(opts.format, opts.output)
			if err != nil {
				return err
			}
			opts.format = format
			return c.runGraph(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "C", "", "directory to audit (default: current directory)")
	flags.StringVar(&opts.configPath, "config", "", "configuration file")
	flags.StringSliceVar(&opts.ignore, "ignore", nil, "dependency names to skip (repeatable)")
	flags.BoolVar(&opts.parallel, "parallel", false, "audit workspace packages concurrently")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	flags.StringVarP(&opts.format, "format", "f", "", "output format: dot, svg, json (default: from --output extension, else dot)")
	flags.StringVarP(&opts.pkg, "package", "p", "", "export only the graph of this workspace package")
	flags.BoolVar(&opts.detailed, "detailed", false, "include directories and declared ranges")
	completeGraphFlags(cmd)

	return cmd
}

// graphFormat resolves the output format from the flag or the file extension.
func graphFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
		if !slices.Contains(graphFormats, format) {
			format = formatDOT
		}
	}
	if !slices.Contains(graphFormats, format) {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", format, strings.Join(graphFormats, ", "))
	}
	return format, nil
}

func (c *CLI) runGraph(cmd *cobra.Command, opts *graphOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := c.prepare(cmd, &opts.checkOptions)
	if err != nil {
		return err
	}
	orch := audit.NewOrchestrator(env.ws, env.policy, env.auditOpts)
	res, err := c.audit(ctx, nil, orch.Run)
	if res == nil {
		return err
	}
	if err != nil {
		c.Logger.Warn("graph is incomplete", "error", errors.UserMessage(err))
	}

	g, err := selectGraph(res, opts.pkg)
	if err != nil {
		return err
	}
	c.Logger.Debug("graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "cycles", g.HasCycle())

	paths := newPathFormatter(env.cwd, env.ws.Root.Dir)
	data, err := encodeGraph(ctx, g, opts.format, nodelink.Options{Detailed: opts.detailed, PathLabel: paths.human})
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", opts.output)
	}
	printSuccess(cmd.ErrOrStderr(), "Generated %s graph", opts.format)
	printFile(cmd.ErrOrStderr(), opts.output)
	return nil
}

// selectGraph returns the graph of the named package, or all package
// graphs merged when name is empty.
func selectGraph(res *audit.RunResult, name string) (*graph.Graph, error) {
	if name == "" {
		graphs := make([]*graph.Graph, 0, len(res.Packages))
		for _, p := range res.Packages {
			graphs = append(graphs, p.Graph)
		}
		return graph.Merge(graphs...), nil
	}
	for _, p := range res.Packages {
		if p.Package.Name == name {
			if p.Graph == nil {
				return graph.New(nil), nil
			}
			return p.Graph, nil
		}
	}
	return nil, errors.New(errors.ErrCodePackageNotFound, "no workspace package named %q", name)
}

func encodeGraph(ctx context.Context, g *graph.Graph, format string, opts nodelink.Options) ([]byte, error) {
	switch format {
	case formatJSON:
		var buf bytes.Buffer
		if err := graph.Write(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case formatSVG:
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, opts))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		return svg, nil
	default:
		return []byte(nodelink.ToDOT(g, opts)), nil
	}
}
