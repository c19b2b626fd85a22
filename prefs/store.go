// Package prefs persists small user preferences as string key/value pairs
package prefs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store is a string key/value preference store
type Store interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

var (
	ErrUnsupportedStore = errors.New("unsupported preference store")
	ErrInvalidBool      = errors.New("stored value is not a boolean")
)

// LoadBool reads key as a literal "true"/"false"
// Missing keys and unparsable values yield def; the latter also returns ErrInvalidBool
func LoadBool(ctx context.Context, s Store, key string, def bool) (bool, error) {
	if s == nil {
		return def, nil
	}
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return def, fmt.Errorf("load %s=%q: %w", key, raw, ErrInvalidBool)
}

// SaveBool writes key as "true" or "false"
func SaveBool(ctx context.Context, s Store, key string, v bool) error {
	if s == nil {
		return nil
	}
	if err := s.Set(ctx, key, strconv.FormatBool(v)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// DefaultURL points at prefs.yaml under the user config directory
func DefaultURL() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "memory:"
	}
	return "file:" + filepath.Join(dir, "critter", "prefs.yaml")
}

// Open selects a store implementation by URL scheme
//
//	file:/path/prefs.yaml
//	sqlite:/path/prefs.db
//	redis://host:6379/0?prefix=critter:
//	memory:
func Open(ctx context.Context, raw string) (Store, error) {
	scheme, rest, found := strings.Cut(raw, ":")
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, raw)
	}

	switch scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return storeOrNil(NewFileStore(strings.TrimPrefix(rest, "//")))
	case "sqlite":
		return storeOrNil(OpenSQLite(ctx, strings.TrimPrefix(rest, "//")))
	case "redis", "rediss":
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		var opts []RedisOption
		if p := u.Query().Get("prefix"); p != "" {
			opts = append(opts, WithPrefix(p))
			q := u.Query()
			q.Del("prefix")
			u.RawQuery = q.Encode()
		}
		return storeOrNil(OpenRedis(ctx, u.String(), opts...))
	}
	return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedStore, scheme)
}

// storeOrNil keeps a failed constructor's nil pointer out of the interface
func storeOrNil[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
