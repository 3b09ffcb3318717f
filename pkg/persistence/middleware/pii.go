package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/ports"
)

// Mask replaces the values of masked variables.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks program variables whose
// name matches one of the patterns before the snapshot is stored.
// Nested maps are masked too. The snapshot held by the caller is not modified.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	cloned := *snapshot
	cloned.View = snapshot.View.Clone()

	maskMap(cloned.View.Environment, m.patterns)
	for _, entry := range cloned.View.Trace {
		if e, ok := entry.(map[string]any); ok {
			if env, ok := e["env"].(map[string]any); ok {
				maskMap(env, m.patterns)
			}
		}
	}

	return m.next.Save(ctx, key, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
