package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/logging"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/infrastructure/relational"
)

const (
	BackendRelational = "relational"
	BackendDocument   = "document"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Schema         string
	Entity         string
	Backend        string
	Dialect        string
	RootAlias      string
	TemporalLayout string
	LogLevel       string
	PrettyLog      bool

	logger zerolog.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "querycompile",
		Short: "Compile filter and order-by descriptors into queries",
		Long: `Compile declarative filter and order-by descriptors for one entity of a
schema catalog into a parameterised SQL statement or a document filter.

Descriptor files hold a list of descriptors in JSON or YAML; "-" reads stdin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Backend {
			case BackendRelational:
				if _, ok := relational.DialectByName(opts.Dialect); !ok {
					return errors.Errorf("unknown dialect %q", opts.Dialect)
				}
			case BackendDocument:
			default:
				return errors.Errorf("invalid backend %q: must be %s or %s", opts.Backend, BackendRelational, BackendDocument)
			}
			opts.logger = logging.NewWithComponent(logging.Config{
				Level:  opts.LogLevel,
				Pretty: opts.PrettyLog,
				Output: cmd.ErrOrStderr(),
			}, "querycompile")
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.Schema, "schema", "s", "", "schema catalog file (YAML)")
	flags.StringVarP(&opts.Entity, "entity", "e", "", "entity to query")
	flags.StringVarP(&opts.Backend, "backend", "b", BackendRelational, "backend (relational|document)")
	flags.StringVar(&opts.Dialect, "dialect", "postgresql", "SQL dialect (postgresql|sqlite|mysql)")
	flags.StringVar(&opts.RootAlias, "root-alias", relational.DefaultRootAlias, "alias of the query root")
	flags.StringVar(&opts.TemporalLayout, "temporal-layout", "", "bind dates as text in this Go layout")
	flags.StringVar(&opts.LogLevel, "log-level", "warn", "log level (trace|debug|info|warn|error)")
	flags.BoolVar(&opts.PrettyLog, "pretty-log", false, "human-readable log output")
	_ = cmd.MarkPersistentFlagRequired("schema")
	_ = cmd.MarkPersistentFlagRequired("entity")

	cmd.AddCommand(NewFilterCommand(opts))
	cmd.AddCommand(NewOrderByCommand(opts))

	return cmd
}

func (o *RootOptions) loadEntity() (metadata.Metadata, error) {
	f, err := os.Open(o.Schema)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	catalog, err := metadata.LoadCatalog(f)
	if err != nil {
		return nil, errors.Wrapf(err, "schema %s", o.Schema)
	}
	entity, ok := catalog.Entity(o.Entity)
	if !ok {
		return nil, errors.Errorf("schema %s has no entity %q (known: %v)", o.Schema, o.Entity, catalog.Names())
	}
	return entity, nil
}
