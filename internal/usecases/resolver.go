// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"fmt"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// ChainResolver resolves the package version by trying strategies in order.
// The first strategy that returns a version wins; an unavailable source falls
// through to the next one, while a strategy error stops resolution.
type ChainResolver struct {
	strategies []domain.VersionStrategy
	logger     Logger
}

// NewChainResolver creates a resolver over the given strategies, highest priority first.
func NewChainResolver(log Logger, strategies ...domain.VersionStrategy) *ChainResolver {
	return &ChainResolver{
		strategies: strategies,
		logger:     log,
	}
}

// NewDefaultResolver builds the standard chain: release branch, VCS tag,
// installed package metadata, then the static fallback.
// vcs may be nil when no repository is available; meta may be nil as well.
func NewDefaultResolver(vcs domain.VersionControl, meta domain.PackageMetadata, log Logger) *ChainResolver {
	var strategies []domain.VersionStrategy
	if vcs != nil {
		strategies = append(strategies,
			NewReleaseBranchStrategy(vcs),
			NewTagStrategy(vcs),
		)
	}
	if meta != nil {
		strategies = append(strategies, NewPackageMetadataStrategy(meta))
	}
	strategies = append(strategies, NewStaticStrategy(domain.FallbackVersion))

	return NewChainResolver(log, strategies...)
}

// Resolve returns the version produced by the first available strategy.
func (r *ChainResolver) Resolve(ctx context.Context) (*domain.ResolvedVersion, error) {
	for _, s := range r.strategies {
		version, ok, err := s.Resolve(ctx)
		if err != nil {
			r.logger.Error(ctx, "version strategy failed", err, map[string]interface{}{
				"strategy": string(s.Name()),
			})
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		if !ok {
			r.logger.Debug(ctx, "version source unavailable", map[string]interface{}{
				"strategy": string(s.Name()),
			})
			continue
		}

		r.logger.Info(ctx, "resolved package version", map[string]interface{}{
			"version": version,
			"source":  string(s.Name()),
		})
		return &domain.ResolvedVersion{Version: version, Source: s.Name()}, nil
	}

	return nil, domain.ErrVersionSourceUnavailable
}
