// Package storage defines the object-store port the blog persists through
// and its backends. The port is deliberately narrow: list by prefix and
// delimiter, get, put, delete. Everything above it has to live with
// non-atomic multi-key writes and eventual consistency.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Get for an absent key.
var ErrNotFound = errors.New("object not found")

// ListPage is one page of a prefix listing. An empty Entries slice with a
// non-empty NextToken means "more data follows", not end-of-list.
type ListPage struct {
	Entries        []string
	CommonPrefixes []string
	NextToken      string
}

// ObjectStore is the port onto the backing store. Implementations own their
// transport concerns (retries, timeouts); callers see succeed-or-fail.
// Delete of an absent key is not an error.
type ObjectStore interface {
	// List returns keys under prefix. With a delimiter, keys containing it
	// past the prefix are grouped into CommonPrefixes instead of Entries.
	// Pass the previous page's NextToken to continue a listing.
	List(ctx context.Context, prefix, delimiter, token string) (ListPage, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// ListAll drains a listing across pages, merging entries and deduplicating
// common prefixes. A page with no entries but a continuation token is
// followed, never treated as end-of-list.
func ListAll(ctx context.Context, store ObjectStore, prefix, delimiter string) (entries, commonPrefixes []string, err error) {
	seen := make(map[string]struct{})
	token := ""
	for {
		page, err := store.List(ctx, prefix, delimiter, token)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, page.Entries...)
		for _, p := range page.CommonPrefixes {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			commonPrefixes = append(commonPrefixes, p)
		}
		if page.NextToken == "" {
			return entries, commonPrefixes, nil
		}
		token = page.NextToken
	}
}

// Open builds a store from a URL:
//
//	mem://                in-memory, volatile
//	badger:///var/blog    embedded Badger database at the given path
//	file:///var/blog      plain directory tree
//
// The returned close function releases backend resources.
func Open(storeURL string) (ObjectStore, func() error, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse store url: %w", err)
	}
	path := u.Path
	if u.Host != "" {
		path = u.Host + u.Path
	}
	switch u.Scheme {
	case "mem":
		return NewMemory(), func() error { return nil }, nil
	case "badger":
		bs, err := OpenBadger(path)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs.Close, nil
	case "file":
		fs, err := NewFilesystem(path)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// groupKeys splits a sorted page of raw keys into direct entries and
// delimiter-grouped common prefixes, emulating directory-style enumeration.
func groupKeys(prefix, delimiter string, keys []string) (entries, commonPrefixes []string) {
	var last string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				cp := prefix + rest[:i+len(delimiter)]
				if cp != last {
					commonPrefixes = append(commonPrefixes, cp)
					last = cp
				}
				continue
			}
		}
		entries = append(entries, key)
	}
	return entries, commonPrefixes
}
