package querybuilder

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/querybuilder/domain/metadata"
)

// Scope is the read-only part of a Backend the alias table needs.
type Scope interface {
	RootAlias() string
	Lookup(alias string) (metadata.Metadata, bool)
}

type aliasEntry struct {
	entity metadata.Metadata
	parent string
	field  string
}

// AliasTable tracks the aliases registered during one compile call.
// The root is addressed by "" or by the backend's root alias.
type AliasTable struct {
	scope   Scope
	root    metadata.Metadata
	entries map[string]aliasEntry
	order   []string
}

func NewAliasTable(scope Scope, root metadata.Metadata) *AliasTable {
	return &AliasTable{
		scope:   scope,
		root:    root,
		entries: make(map[string]aliasEntry),
	}
}

// Canonical maps the root spellings to the backend's root alias.
func (t *AliasTable) Canonical(alias string) string {
	if alias == "" {
		return t.scope.RootAlias()
	}
	return alias
}

func (t *AliasTable) isRoot(alias string) bool {
	return alias == "" || alias == t.scope.RootAlias()
}

// Resolve returns the canonical alias and the entity bound to it.
func (t *AliasTable) Resolve(alias string) (string, metadata.Metadata, error) {
	if t.isRoot(alias) {
		return t.scope.RootAlias(), t.root, nil
	}
	if entry, ok := t.entries[alias]; ok {
		return alias, entry.entity, nil
	}
	if entity, ok := t.scope.Lookup(alias); ok {
		return alias, entity, nil
	}
	return "", nil, errors.Wrapf(ErrUnresolvableAlias, "%q", alias)
}

// Register binds alias to the target of relation field on parent.
func (t *AliasTable) Register(alias, parent string, field metadata.Field) error {
	if _, _, err := t.Resolve(alias); err == nil {
		return errors.Wrapf(ErrDuplicateAlias, "%q", alias)
	}
	if !field.Kind.IsRelation() || field.Target == nil {
		return errors.Wrapf(ErrInvalidDescriptor, "%q is not a relation", field.Name)
	}
	t.entries[alias] = aliasEntry{
		entity: field.Target,
		parent: t.Canonical(parent),
		field:  field.Name,
	}
	t.order = append(t.order, alias)
	return nil
}

// Parent returns the alias a registered alias was joined from.
func (t *AliasTable) Parent(alias string) (string, bool) {
	entry, ok := t.entries[alias]
	return entry.parent, ok
}

// Aliases lists registered aliases in registration order.
func (t *AliasTable) Aliases() []string {
	return append([]string(nil), t.order...)
}
