package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/cli"
	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/config"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the content catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a catalog file (default: catalog.path or the built-in catalog)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ExpandPath(viper.GetString("catalog.path"))
			if len(args) == 1 {
				path = config.ExpandPath(args[0])
			}
			return runCatalogValidate(cmd.OutOrStdout(), path)
		},
	})

	return cmd
}

func runCatalogValidate(w io.Writer, path string) error {
	c, err := catalog.Load(path)
	if err != nil {
		return common.NewUserError("Catalog is invalid", err)
	}

	_, err = fmt.Fprintln(w, cli.RenderCatalogStats(c.Source(), c.Stats()))
	return err
}
