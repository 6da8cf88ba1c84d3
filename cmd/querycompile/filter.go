package main

import (
	"github.com/spf13/cobra"

	qb "github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain"
)

type FilterOptions struct {
	*RootOptions
	OrderBy string
}

func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filter <descriptors>",
		Short: "Compile a filter descriptor list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "order-by descriptor file applied after the filters")

	return cmd
}

func runFilter(opts *FilterOptions, path string, cmd *cobra.Command) error {
	entity, err := opts.loadEntity()
	if err != nil {
		return err
	}
	entries, err := readEntries(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	descriptors, err := qb.DecodeFilters(entries)
	if err != nil {
		return err
	}

	var ordering []qb.OrderByDescriptor
	if opts.OrderBy != "" {
		orderEntries, err := readEntries(opts.OrderBy, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if ordering, err = qb.DecodeOrderBy(orderEntries); err != nil {
			return err
		}
	}

	t := opts.newTarget(entity)
	if err := qb.NewFilterCompiler(qb.WithLogger(opts.logger)).Compile(t.backend, entity, descriptors); err != nil {
		return err
	}
	if len(ordering) > 0 {
		if err := qb.NewOrderByCompiler(qb.WithLogger(opts.logger)).Compile(t.backend, entity, ordering); err != nil {
			return err
		}
	}
	opts.logger.Info().
		Str("entity", entity.Name()).
		Int("filters", len(descriptors)).
		Int("orderings", len(ordering)).
		Msg("compiled")
	return t.write(cmd.OutOrStdout())
}
