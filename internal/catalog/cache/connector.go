package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// Connector decorates a catalog.Connector, serving repeated lookups from a
// cache. Missing primary keys and referenced constraints are cached as well
// and replayed as catalog.ErrNotFound. Other errors are never cached.
type Connector struct {
	inner     catalog.Connector
	store     Cache
	namespace string
	logger    *zap.Logger
}

// Option configures a Connector
type Option func(*Connector)

// WithLogger sets the logger used to report hits and misses
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Wrap returns inner decorated with store. The namespace separates
// connections whose dictionaries could disagree, usually the connection name.
func Wrap(namespace string, inner catalog.Connector, store Cache, opts ...Option) *Connector {
	c := &Connector{
		inner:     inner,
		store:     store,
		namespace: strings.ToUpper(namespace),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Unwrap returns the decorated connector
func (c *Connector) Unwrap() catalog.Connector {
	return c.inner
}

func (c *Connector) key(kind string, parts ...string) string {
	upper := make([]string, len(parts))
	for i, p := range parts {
		upper[i] = strings.ToUpper(p)
	}
	return c.namespace + ":" + kind + ":" + strings.Join(upper, ".")
}

// entry is the cached form of a lookup. Missing marks a cached ErrNotFound.
type entry[T any] struct {
	Missing bool `json:"missing,omitempty"`
	Value   T    `json:"value,omitempty"`
}

// cached runs load on a miss and stores the result. When notFoundCached is set
// an ErrNotFound from load is stored too.
func cached[T any](ctx context.Context, c *Connector, key string, notFoundCached bool, load func() (T, error)) (T, error) {
	var zero T

	if raw, err := c.store.Get(ctx, key); err == nil {
		var e entry[T]
		if err := json.Unmarshal(raw, &e); err == nil {
			c.logger.Debug("dictionary cache hit", zap.String("key", key))
			if e.Missing {
				return zero, catalog.NotFound("cached object", key)
			}
			return e.Value, nil
		}
		c.logger.Warn("discarding unreadable cache entry", zap.String("key", key))
	} else if !IsCacheMiss(err) {
		c.logger.Warn("dictionary cache unavailable", zap.String("key", key), zap.Error(err))
	}

	value, err := load()
	var e entry[T]
	switch {
	case err == nil:
		e.Value = value
	case notFoundCached && catalog.IsNotFound(err):
		e.Missing = true
	default:
		return zero, err
	}

	raw, merr := json.Marshal(e)
	if merr != nil {
		return zero, fmt.Errorf("failed to encode cache entry %s: %w", key, merr)
	}
	if serr := c.store.Set(ctx, key, raw, 0); serr != nil {
		c.logger.Warn("failed to store cache entry", zap.String("key", key), zap.Error(serr))
	}
	return value, err
}

// TablesOwnedBy implements catalog.Connector
func (c *Connector) TablesOwnedBy(ctx context.Context, owner string) ([]*catalog.Table, error) {
	return cached(ctx, c, c.key("tables", owner), false, func() ([]*catalog.Table, error) {
		return c.inner.TablesOwnedBy(ctx, owner)
	})
}

// Table implements catalog.Connector
func (c *Connector) Table(ctx context.Context, ref catalog.TableRef) (*catalog.Table, error) {
	return cached(ctx, c, c.key("table", ref.Owner, ref.Name), false, func() (*catalog.Table, error) {
		return c.inner.Table(ctx, ref)
	})
}

// PrimaryKeyOf implements catalog.Connector
func (c *Connector) PrimaryKeyOf(ctx context.Context, ref catalog.TableRef) (*catalog.Constraint, error) {
	return cached(ctx, c, c.key("pk", ref.Owner, ref.Name), true, func() (*catalog.Constraint, error) {
		return c.inner.PrimaryKeyOf(ctx, ref)
	})
}

// ForeignKeysOf implements catalog.Connector
func (c *Connector) ForeignKeysOf(ctx context.Context, ref catalog.TableRef) ([]*catalog.Constraint, error) {
	return cached(ctx, c, c.key("fks", ref.Owner, ref.Name), false, func() ([]*catalog.Constraint, error) {
		return c.inner.ForeignKeysOf(ctx, ref)
	})
}

// ReferencedConstraint implements catalog.Connector
func (c *Connector) ReferencedConstraint(ctx context.Context, fk *catalog.Constraint) (*catalog.Constraint, error) {
	if fk == nil {
		return c.inner.ReferencedConstraint(ctx, fk)
	}
	key := c.key("ref", fk.RefOwner, fk.RefTable, fk.RefName)
	return cached(ctx, c, key, true, func() (*catalog.Constraint, error) {
		return c.inner.ReferencedConstraint(ctx, fk)
	})
}

// IndexesOf implements catalog.Connector
func (c *Connector) IndexesOf(ctx context.Context, ref catalog.TableRef) ([]*catalog.Index, error) {
	return cached(ctx, c, c.key("indexes", ref.Owner, ref.Name), false, func() ([]*catalog.Index, error) {
		return c.inner.IndexesOf(ctx, ref)
	})
}

// CommentsOf implements catalog.Connector
func (c *Connector) CommentsOf(ctx context.Context, ref catalog.TableRef) (*catalog.Comments, error) {
	return cached(ctx, c, c.key("comments", ref.Owner, ref.Name), false, func() (*catalog.Comments, error) {
		return c.inner.CommentsOf(ctx, ref)
	})
}

// Invalidate drops every entry under the store's prefix, including those of
// other namespaces sharing the store
func (c *Connector) Invalidate(ctx context.Context) error {
	return c.store.Clear(ctx)
}

var _ catalog.Connector = (*Connector)(nil)
