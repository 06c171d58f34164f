// Package bio registers the biological-data tools: protein, pathway,
// structure, and ontology registry lookups, plus the cascade and aggregate
// tools built on top of them. All upstream access goes through the injected
// Fetcher; all idempotent reads go through the injected cache.
package bio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harun/promethica/pkg/aggregate"
	"github.com/harun/promethica/pkg/cache"
	"github.com/harun/promethica/pkg/cascade"
	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

// Registries holds the base URLs of the four upstream roles. The structure
// registry splits into a search host and a data host, matching the public
// RCSB deployment.
type Registries struct {
	Protein       string
	Pathway       string
	Structure     string
	StructureData string
	Ontology      string
}

// DefaultRegistries returns the publicly hosted upstream services.
func DefaultRegistries() Registries {
	return Registries{
		Protein:       "https://rest.uniprot.org",
		Pathway:       "https://reactome.org",
		Structure:     "https://search.rcsb.org",
		StructureData: "https://data.rcsb.org",
		Ontology:      "http://api.geneontology.org",
	}
}

// Service owns the domain tool handlers and their shared collaborators.
type Service struct {
	fetcher  upstream.Fetcher
	store    cache.Store
	resolver *cascade.Resolver
	agg      *aggregate.Aggregator
	regs     Registries
	log      zerolog.Logger
}

// NewService creates the domain service. store may be nil to disable caching.
func NewService(fetcher upstream.Fetcher, store cache.Store, regs Registries, logger zerolog.Logger) *Service {
	s := &Service{
		fetcher: fetcher,
		store:   store,
		regs:    regs,
		log:     logger.With().Str("component", "bio").Logger(),
	}
	s.resolver = cascade.NewResolver(s.fetch, logger)
	s.agg = aggregate.New(logger)
	return s
}

// Register adds every domain tool to the registry.
func (s *Service) Register(reg *tool.Registry) error {
	defs := []tool.Definition{
		s.searchProteinsTool(),
		s.getProteinInfoTool(),
		s.searchByGeneTool(),
		s.getProteinSequenceTool(),
		s.getProteinFeaturesTool(),
		s.getPrimaryProteinForGeneTool(),
		s.getGenePathwaysTool(),
		s.getProteinPathwaysTool(),
		s.searchPathwaysTool(),
		s.searchPDBStructuresTool(),
		s.getPDBStructureInfoTool(),
		s.searchGOTermsTool(),
		s.getGOTermTool(),
		s.comprehensiveAnalysisTool(),
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", def.Name, err)
		}
	}
	return nil
}

// fetch is the cache-aware fetch path shared by all handlers and cascade
// steps. Only idempotent (body-less) requests are cached; the fingerprint is
// defined over endpoint and query parameters, so bodied POST calls are
// explicitly excluded.
func (s *Service) fetch(ctx context.Context, req upstream.Request) (upstream.Result, error) {
	if s.store == nil || !req.Idempotent() {
		return s.fetcher.Fetch(ctx, req)
	}

	key := upstream.Fingerprint(req.Endpoint, req.Params)
	if v, ok := s.store.Get(key); ok {
		if res, ok := v.(upstream.Result); ok {
			s.log.Debug().Str("endpoint", req.Endpoint).Msg("Cache hit")
			return res, nil
		}
	}

	res, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return res, err
	}
	s.store.Put(key, res)
	return res, nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg tolerates the numeric representations produced by JSON decoding and
// by Go callers alike.
func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func floatPtr(v float64) *float64 { return &v }
