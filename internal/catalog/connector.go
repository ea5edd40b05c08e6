package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Connector answers data dictionary lookups for one administrative schema.
//
// Implementations return ErrNotFound (possibly wrapped) when an object does not exist;
// any other error is a failure of the dictionary itself.
type Connector interface {
	// TablesOwnedBy lists the tables of an owner with their columns in ordinal order
	TablesOwnedBy(ctx context.Context, owner string) ([]*Table, error)

	// Table returns a single table with its columns
	Table(ctx context.Context, ref TableRef) (*Table, error)

	// PrimaryKeyOf returns the primary key of a table, columns ordered by position
	PrimaryKeyOf(ctx context.Context, ref TableRef) (*Constraint, error)

	// ForeignKeysOf returns the foreign keys of a table, columns ordered by position
	ForeignKeysOf(ctx context.Context, ref TableRef) ([]*Constraint, error)

	// ReferencedConstraint resolves the unique/primary constraint a foreign key targets
	ReferencedConstraint(ctx context.Context, fk *Constraint) (*Constraint, error)

	// IndexesOf returns the indexes of a table, columns ordered by position
	IndexesOf(ctx context.Context, ref TableRef) ([]*Index, error)

	// CommentsOf returns the table and column comments. Generation does not use them.
	CommentsOf(ctx context.Context, ref TableRef) (*Comments, error)
}

// Registry maps owner names to the connector able to answer for them.
// Owner names are matched case-insensitively.
type Registry struct {
	connectors map[string]Connector
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		connectors: make(map[string]Connector),
	}
}

// Register associates a connector with an owner
func (r *Registry) Register(owner string, c Connector) error {
	if owner == "" {
		return fmt.Errorf("owner name is required")
	}
	if c == nil {
		return fmt.Errorf("connector for owner %s is nil", owner)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeOwner(owner)
	if _, exists := r.connectors[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOwner, owner)
	}
	r.connectors[key] = c
	return nil
}

// Lookup returns the connector registered for an owner
func (r *Registry) Lookup(owner string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connectors[normalizeOwner(owner)]
	return c, ok
}

// Owners returns the registered owner names, sorted
func (r *Registry) Owners() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owners := make([]string, 0, len(r.connectors))
	for owner := range r.connectors {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}

// Count returns the number of registered owners
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connectors)
}

func normalizeOwner(owner string) string {
	return strings.ToUpper(strings.TrimSpace(owner))
}
