package app

import (
	"context"
	"errors"
	"fmt"

	"docketline/internal/config"
	"docketline/internal/domain"
	"docketline/internal/repo"
)

// ResolveMatterAndConfig picks the active matter and the config that governs
// it. It prefers the override, then the single matter in the workspace. The
// config comes from docketline.yml when present, otherwise the built-in
// default catalog for the matter's jurisdiction.
func ResolveMatterAndConfig(ctx context.Context, workspace, matterOverride string, r repo.Repo) (domain.Matter, *config.Config, error) {
	var m domain.Matter
	var err error
	if matterOverride != "" {
		m, err = r.GetMatter(ctx, matterOverride)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return m, nil, fmt.Errorf("matter %s not found; create it with dk matter init", matterOverride)
			}
			return m, nil, err
		}
	} else {
		m, err = r.SingleMatter(ctx)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return m, nil, fmt.Errorf("no matter exists; create one with dk matter init")
			}
			return m, nil, err
		}
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return m, nil, err
	}
	if cfg == nil {
		cfg = config.Default(m.Jurisdiction)
	}
	return m, cfg, nil
}

// ResolveConfig loads the workspace config without requiring a matter,
// falling back to the default catalog for the given jurisdiction.
func ResolveConfig(workspace, jurisdiction string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		if jurisdiction == "" {
			jurisdiction = "federal"
		}
		cfg = config.Default(jurisdiction)
	}
	return cfg, nil
}
