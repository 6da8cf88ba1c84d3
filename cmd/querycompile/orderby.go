package main

import (
	"github.com/spf13/cobra"

	qb "github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain"
)

func NewOrderByCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orderby <descriptors>",
		Short: "Compile an order-by descriptor list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderBy(rootOpts, args[0], cmd)
		},
	}
}

func runOrderBy(opts *RootOptions, path string, cmd *cobra.Command) error {
	entity, err := opts.loadEntity()
	if err != nil {
		return err
	}
	entries, err := readEntries(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	descriptors, err := qb.DecodeOrderBy(entries)
	if err != nil {
		return err
	}

	t := opts.newTarget(entity)
	if err := qb.NewOrderByCompiler(qb.WithLogger(opts.logger)).Compile(t.backend, entity, descriptors); err != nil {
		return err
	}
	return t.write(cmd.OutOrStdout())
}
