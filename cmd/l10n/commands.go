package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pitabwire/l10n"
	"github.com/pitabwire/l10n/catalog"
	"github.com/pitabwire/l10n/config"
	"github.com/pitabwire/l10n/openapi"
	"github.com/pitabwire/l10n/version"
)

const serviceName = "l10n"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Serve and inspect the localization configuration of an installation",
		Long: `l10n keeps the desired locales, keymap, timezone and interface language of
the system being installed, validated against the reference catalogs.

Configuration is read from the environment (L10N_*, HTTP_PORT, LOG_LEVEL, ...).`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newRoutesCommand())
	cmd.AddCommand(newCatalogCommand())
	cmd.AddCommand(newOpenAPICommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var address string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []l10n.Option{l10n.WithName(serviceName)}
			if debug {
				opts = append(opts, l10n.WithDebugEndpoints())
			}

			ctx, srv, err := l10n.NewService(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			err = srv.Run(ctx, address)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address, defaults to HTTP_PORT")
	cmd.Flags().BoolVar(&debug, "debug", false, "Expose introspection endpoints under /debug/l10n")
	return cmd
}

func newRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the HTTP routes served",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, srv, err := l10n.NewService(cmd.Context(), l10n.WithName(serviceName), l10n.WithNoopDriver())
			if err != nil {
				return err
			}
			defer srv.Stop(ctx)

			return printRoutes(cmd.OutOrStdout(), srv.Routes())
		},
	}
}

func printRoutes(out io.Writer, routes []l10n.RouteInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "METHOD\tPATH\tHANDLER")
	for _, r := range routes {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Path, r.Handler)
	}
	return w.Flush()
}

func newCatalogCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "catalog {locales|timezones|keymaps}",
		Short:     "Print the codes of a reference catalog",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"locales", "timezones", "keymaps"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := config.FromEnv[config.ConfigurationDefault]()
				if err != nil {
					return err
				}
				dir = cfg.GetCatalogDir()
			}

			catalogs, err := catalog.LoadDir(dir)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), catalogs, args[0])
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Catalog directory, defaults to L10N_CATALOG_DIR")
	return cmd
}

func printCatalog(out io.Writer, catalogs *catalog.Catalogs, name string) error {
	var codes []string
	switch name {
	case "locales":
		for _, e := range catalogs.Locales.Entries() {
			codes = append(codes, e.Key())
		}
	case "timezones":
		for _, e := range catalogs.Timezones.Entries() {
			codes = append(codes, e.Key())
		}
	case "keymaps":
		for _, e := range catalogs.Keymaps.Entries() {
			codes = append(codes, e.Key())
		}
	default:
		return fmt.Errorf("unknown catalog %q", name)
	}

	for _, code := range codes {
		if _, err := fmt.Fprintln(out, code); err != nil {
			return err
		}
	}
	return nil
}

func newOpenAPICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "openapi [name]",
		Short: "Print an embedded OpenAPI document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openapi.Default()
			if err != nil {
				return err
			}

			name := serviceName
			if len(args) == 1 {
				name = args[0]
			}
			doc, ok := reg.Lookup(name)
			if !ok {
				return fmt.Errorf("no openapi document named %q", name)
			}
			_, err = cmd.OutOrStdout().Write(doc.Content)
			return err
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the l10n version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String(serviceName))
			return err
		},
	}
}
