package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/quantmind-br/pkgjson-go/internal/app"
	"github.com/quantmind-br/pkgjson-go/internal/cache"
	"github.com/quantmind-br/pkgjson-go/internal/config"
	"github.com/quantmind-br/pkgjson-go/internal/domain"
	"github.com/quantmind-br/pkgjson-go/internal/plan"
	"github.com/quantmind-br/pkgjson-go/internal/utils"
	"github.com/quantmind-br/pkgjson-go/pkg/jsonvalue"
	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
	"github.com/spf13/cobra"
)

func dirArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "."
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var (
		conditions []string
		require    bool
		absolute   bool
		format     string
	)

	cmd := &cobra.Command{
		Use:   "resolve <request> [dir]",
		Short: "Resolve a subpath, '#' import or self-reference",
		Long: `Resolve a request against the package containing dir (default ".").

Requests starting with "#" go through "imports", "." and "./x" through
"exports", and anything else must name the package itself.`,
		Example: `  pkgjson resolve ./feature
  pkgjson resolve '#dep' ./packages/core --require
  pkgjson resolve . -C browser -C import --absolute`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML, formatTOML); err != nil {
				return err
			}

			svc, err := newService(cmd, opts, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			res, err := svc.Resolve(ctx, dirArg(args, 1), args[0], svc.Conditions(conditions, require))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != formatText {
				return writeStructured(out, format, res)
			}
			if absolute && res.IsRelative() {
				fmt.Fprintln(out, res.Path)
				return nil
			}
			fmt.Fprintln(out, res.Target)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&conditions, "condition", "C", nil, "Active condition (repeatable, replaces the configured set)")
	cmd.Flags().BoolVar(&require, "require", false, "Use the require conditions instead of the import conditions")
	cmd.Flags().BoolVar(&absolute, "absolute", false, "Print the target as an absolute path")
	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json, yaml or toml")
	return cmd
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect [dir]",
		Short: "Show the manifest of the package containing dir",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}

			svc, err := newService(cmd, opts, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			loaded, err := svc.Inspect(ctx, dirArg(args, 0))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				data, err := jsonvalue.MarshalIndent(loaded.Manifest.Raw(), "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			case formatYAML:
				data, err := jsonvalue.ToYAML(loaded.Manifest.Raw())
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			return writeSummary(out, loaded)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json or yaml")
	return cmd
}

func writeSummary(w io.Writer, loaded *domain.LoadedManifest) error {
	m := loaded.Manifest
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", label, value)
		}
	}
	row("name", m.Name())
	row("version", m.Version())
	row("type", string(m.Type()))
	row("manifest", loaded.Path)
	row("main", m.Main(pkgjson.KindCJS))
	row("exports", strings.Join(m.ExportKeys(), ", "))
	row("imports", strings.Join(m.ImportKeys(), ", "))
	row("conditions", strings.Join(m.ConditionNames(), ", "))
	if loaded.FromCache {
		row("cached", "yes")
	}
	return tw.Flush()
}

// depRow is the structured form of one dependency entry
type depRow struct {
	Field string `json:"field" yaml:"field"`
	Alias string `json:"alias" yaml:"alias"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newDepsCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "deps [dir]",
		Short: "List the dependencies of the package containing dir",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}

			svc, err := newService(cmd, opts, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			loaded, err := svc.Inspect(ctx, dirArg(args, 0))
			if err != nil {
				return err
			}

			deps := loaded.Manifest.Dependencies()
			var rows []depRow
			for _, field := range []struct {
				name    string
				entries []pkgjson.DependencyEntry
			}{
				{"dependencies", deps.Dependencies},
				{"devDependencies", deps.DevDependencies},
				{"peerDependencies", deps.PeerDependencies},
				{"optionalDependencies", deps.OptionalDependencies},
			} {
				for _, e := range field.entries {
					row := depRow{Field: field.name, Alias: e.Alias}
					if e.Err != nil {
						row.Error = e.Err.Error()
					} else {
						row.Value = e.Value.String()
					}
					rows = append(rows, row)
				}
			}

			out := cmd.OutOrStdout()
			if format != formatText {
				if rows == nil {
					rows = []depRow{}
				}
				return writeStructured(out, format, rows)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, r := range rows {
				value := r.Value
				if r.Error != "" {
					value = "error: " + r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Field, r.Alias, value)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json or yaml")
	return cmd
}

func newAuditCmd(opts *rootOptions) *cobra.Command {
	var (
		sets       []string
		format     string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "audit [dir]",
		Short: "Resolve every exports and imports entry under several condition sets",
		Long: `Resolve every "exports" and "imports" key of the package containing dir
under each condition set and check that relative targets exist.

Exits with status 1 when an entry is invalid or points to a missing file.`,
		Example: `  pkgjson audit
  pkgjson audit ./packages/core --set node,import --set browser,import`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML, formatTOML); err != nil {
				return err
			}

			svc, err := newService(cmd, opts, !noProgress && format == formatText)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			var conditionSets [][]string
			for _, s := range sets {
				if names := config.ParseConditionSet(s); len(names) > 0 {
					conditionSets = append(conditionSets, names)
				}
			}

			report, err := svc.Audit(ctx, dirArg(args, 0), conditionSets)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != formatText {
				if err := writeStructured(out, format, report); err != nil {
					return err
				}
			} else if err := writeAudit(out, report); err != nil {
				return err
			}

			if report.HasFailures() {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Comma-separated condition set (repeatable, replaces the configured sets)")
	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json, yaml or toml")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")
	return cmd
}

func writeAudit(w io.Writer, report *domain.AuditReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range report.Results {
		detail := r.Target
		if r.Error != "" {
			detail = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			strings.ToUpper(string(r.Status)), r.Field, r.Key, strings.Join(r.Conditions, ","), detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s: %d ok, %d failed, %d missing, %d unavailable, %d skipped\n",
		displayName(report.PackageName, report.ManifestPath),
		report.Count(domain.AuditOK),
		report.Count(domain.AuditFailed),
		report.Count(domain.AuditMissing),
		report.Count(domain.AuditUnavailable),
		report.Count(domain.AuditSkipped))
	return err
}

func displayName(name, path string) string {
	if name != "" {
		return name
	}
	return path
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var continueOnError bool

	cmd := &cobra.Command{
		Use:   "check <plan>",
		Short: "Run the resolution checks listed in a plan file",
		Long: `Run the resolution checks listed in a YAML or JSON plan file.

Each check names a package, a request and the target or error kind it must
produce. Accepted error kinds: ` + strings.Join(plan.ErrorKinds(), ", ") + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.NewLoader().Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("continue-on-error") {
				p.Options.ContinueOnError = continueOnError
			}

			svc, err := newService(cmd, opts, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			results, runErr := svc.RunPlan(ctx, p)
			if runErr != nil && !errors.Is(runErr, plan.ErrExpectationFailed) {
				return runErr
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				switch {
				case r.Skipped:
					fmt.Fprintf(out, "SKIP  %s\n", r.Check.Name())
				case r.Passed():
					fmt.Fprintf(out, "PASS  %s -> %s\n", r.Check.Name(), r.Target)
				default:
					fmt.Fprintf(out, "FAIL  %s: %v\n", r.Check.Name(), r.Error)
				}
			}
			sum := app.SummarizeChecks(results)
			if sum.Skipped > 0 {
				fmt.Fprintf(out, "\n%d/%d checks passed, %d skipped\n", sum.Passed, sum.Total, sum.Skipped)
			} else {
				fmt.Fprintf(out, "\n%d/%d checks passed\n", sum.Passed, sum.Total)
			}

			if runErr != nil {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Run every check even after a failure")
	return cmd
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent manifest cache",
	}

	openCache := func(cmd *cobra.Command) (*cache.BadgerCache, string, error) {
		cfg, err := loadConfig(opts)
		if err != nil {
			return nil, "", err
		}
		dir := utils.ExpandPath(cfg.Cache.Directory)
		c, err := cache.NewBadgerCache(cache.Options{
			Directory:   dir,
			LockTimeout: cfg.Cache.LockTimeout,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to open cache: %w", err)
		}
		return c, dir, nil
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, dir, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			stats := c.Stats()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "directory:\t%s\n", dir)
			fmt.Fprintf(tw, "entries:\t%v\n", stats["entries"])
			fmt.Fprintf(tw, "lsm_size:\t%v\n", stats["lsm_size"])
			fmt.Fprintf(tw, "vlog_size:\t%v\n", stats["vlog_size"])
			return tw.Flush()
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, dir, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.ClearPrefix(cache.PrefixManifest + ":"); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared manifest cache in %s\n", dir)
			return nil
		},
	}

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
