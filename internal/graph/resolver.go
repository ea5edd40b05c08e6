// Package graph decides which tables belong in a schema diagram.
//
// Resolution starts from every table of a seed owner and follows foreign keys
// one hop into other registered owners. Tables pulled in from another owner do
// not have their own foreign keys followed.
package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// Resolver computes the table set of a diagram from a registry of connectors
type Resolver struct {
	registry *catalog.Registry
	logger   *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger used to report dropped references
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver over the given registry
func NewResolver(registry *catalog.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the seed owner's tables sorted by name, followed by the
// tables of other known owners they reference, in first-discovery order.
func (r *Resolver) Resolve(ctx context.Context, seedOwner string) ([]*catalog.Table, error) {
	conn, ok := r.registry.Lookup(seedOwner)
	if !ok {
		return nil, fmt.Errorf("seed owner: %w", catalog.NotFound("connector for owner", seedOwner))
	}

	base, err := conn.TablesOwnedBy(ctx, seedOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", seedOwner, err)
	}
	base = append([]*catalog.Table(nil), base...)
	sort.SliceStable(base, func(i, j int) bool {
		return base[i].Name < base[j].Name
	})

	seen := make(map[catalog.TableRef]bool, len(base))
	for _, t := range base {
		seen[refKey(t.Ref())] = true
	}

	var auxiliary []*catalog.Table
	for _, t := range base {
		fks, err := conn.ForeignKeysOf(ctx, t.Ref())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch foreign keys of %s: %w", t.Ref(), err)
		}

		for _, fk := range fks {
			target, err := r.resolveTarget(ctx, conn, t, fk)
			if err != nil {
				return nil, err
			}
			if target == nil {
				continue
			}

			key := refKey(target.Ref())
			if seen[key] {
				continue
			}
			seen[key] = true
			auxiliary = append(auxiliary, target)

			r.logger.Debug("added cross-schema table",
				zap.String("table", target.Ref().String()),
				zap.String("referenced_by", t.Ref().String()),
				zap.String("constraint", fk.Name),
			)
		}
	}

	return append(base, auxiliary...), nil
}

// resolveTarget returns the table in another owner referenced by fk, or nil
// when the relationship stays inside the seed owner or cannot be resolved.
func (r *Resolver) resolveTarget(ctx context.Context, conn catalog.Connector, from *catalog.Table, fk *catalog.Constraint) (*catalog.Table, error) {
	ref, err := conn.ReferencedConstraint(ctx, fk)
	if catalog.IsNotFound(err) {
		r.logger.Debug("dropped unresolved reference",
			zap.String("table", from.Ref().String()),
			zap.String("constraint", fk.Name),
			zap.String("ref_owner", fk.RefOwner),
			zap.String("ref_name", fk.RefName),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s on %s: %w", fk.Name, from.Ref(), err)
	}

	targetRef := ref.Table()
	if strings.EqualFold(targetRef.Owner, from.Owner) {
		return nil, nil
	}

	targetConn, ok := r.registry.Lookup(targetRef.Owner)
	if !ok {
		r.logger.Debug("dropped reference into unregistered owner",
			zap.String("table", from.Ref().String()),
			zap.String("constraint", fk.Name),
			zap.String("target", targetRef.String()),
		)
		return nil, nil
	}

	target, err := targetConn.Table(ctx, targetRef)
	if catalog.IsNotFound(err) {
		r.logger.Debug("dropped reference to unknown table",
			zap.String("table", from.Ref().String()),
			zap.String("target", targetRef.String()),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", targetRef, err)
	}
	return target, nil
}

func refKey(ref catalog.TableRef) catalog.TableRef {
	return catalog.TableRef{Owner: strings.ToUpper(ref.Owner), Name: strings.ToUpper(ref.Name)}
}
