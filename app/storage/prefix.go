package storage

import (
	"context"
	"strings"
)

// Prefixed nests a store under a fixed sub-path so several deployments can
// share one bucket. Keys are prefixed on the way in and stripped on the way
// out; callers never see the sub-path.
type Prefixed struct {
	inner  ObjectStore
	prefix string
}

// WithPrefix wraps a store under the given sub-path. An empty sub-path
// returns the store unchanged.
func WithPrefix(inner ObjectStore, subPath string) ObjectStore {
	subPath = strings.Trim(subPath, "/")
	if subPath == "" {
		return inner
	}
	return &Prefixed{inner: inner, prefix: subPath + "/"}
}

func (p *Prefixed) strip(key string) string {
	return strings.TrimPrefix(key, p.prefix)
}

// List implements ObjectStore.
func (p *Prefixed) List(ctx context.Context, prefix, delimiter, token string) (ListPage, error) {
	if token != "" {
		token = p.prefix + token
	}
	page, err := p.inner.List(ctx, p.prefix+prefix, delimiter, token)
	if err != nil {
		return ListPage{}, err
	}
	out := ListPage{NextToken: p.strip(page.NextToken)}
	for _, e := range page.Entries {
		out.Entries = append(out.Entries, p.strip(e))
	}
	for _, cp := range page.CommonPrefixes {
		out.CommonPrefixes = append(out.CommonPrefixes, p.strip(cp))
	}
	return out, nil
}

// Get implements ObjectStore.
func (p *Prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

// Put implements ObjectStore.
func (p *Prefixed) Put(ctx context.Context, key string, data []byte) error {
	return p.inner.Put(ctx, p.prefix+key, data)
}

// Delete implements ObjectStore.
func (p *Prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}
