package bio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

// PathwaySummary is the normalized view of one pathway hit.
type PathwaySummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	PValue *float64 `json:"p_value,omitempty"`
}

type reactomeEntry struct {
	StID        string `json:"stId"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

func (e reactomeEntry) summary() PathwaySummary {
	name := e.Name
	if name == "" {
		name = e.DisplayName
	}
	return PathwaySummary{ID: e.StID, Name: name}
}

type reactomeSearchResponse struct {
	Results []struct {
		TypeName string          `json:"typeName"`
		Entries  []reactomeEntry `json:"entries"`
	} `json:"results"`
}

type reactomeAnalysisResponse struct {
	Summary struct {
		Token string `json:"token"`
	} `json:"summary"`
	Pathways []struct {
		StID     string `json:"stId"`
		Name     string `json:"name"`
		Entities struct {
			PValue float64 `json:"pValue"`
		} `json:"entities"`
	} `json:"pathways"`
}

// decodePathwayHits handles both the grouped search response and a bare
// entry array, which some pathway registry deployments return.
func decodePathwayHits(res upstream.Result) ([]PathwaySummary, error) {
	var grouped reactomeSearchResponse
	if err := res.Decode(&grouped); err == nil && len(grouped.Results) > 0 {
		var hits []PathwaySummary
		for _, group := range grouped.Results {
			for _, entry := range group.Entries {
				hits = append(hits, entry.summary())
			}
		}
		return hits, nil
	}

	var flat []reactomeEntry
	if err := json.Unmarshal(res.JSON, &flat); err != nil {
		return nil, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
	}
	hits := make([]PathwaySummary, 0, len(flat))
	for _, entry := range flat {
		hits = append(hits, entry.summary())
	}
	return hits, nil
}

func (s *Service) pathwaySearchRequest(query, species string) upstream.Request {
	return upstream.Request{
		Endpoint: s.regs.Pathway + "/ContentService/search/query",
		Params: map[string]string{
			"query":   query,
			"species": species,
			"types":   "Pathway",
		},
		Mode: upstream.ModeJSON,
	}
}

func (s *Service) pathwayAnalysisRequest(accession string, size int) upstream.Request {
	return upstream.Request{
		Endpoint: s.regs.Pathway + "/AnalysisService/identifiers",
		Params: map[string]string{
			"interactors": "false",
			"pageSize":    fmt.Sprintf("%d", size),
			"page":        "1",
		},
		Mode:     upstream.ModeJSON,
		TextBody: accession,
	}
}

// pathwayAnalysis runs the identifier analysis for one accession and
// normalizes the over-represented pathways.
func (s *Service) pathwayAnalysis(ctx context.Context, accession string, size int) (map[string]interface{}, error) {
	res, err := s.fetch(ctx, s.pathwayAnalysisRequest(accession, size))
	if err != nil {
		return nil, err
	}
	return normalizePathwayAnalysis(res, accession)
}

func normalizePathwayAnalysis(res upstream.Result, accession string) (map[string]interface{}, error) {
	var parsed reactomeAnalysisResponse
	if err := res.Decode(&parsed); err != nil {
		return nil, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
	}

	pathways := make([]PathwaySummary, 0, len(parsed.Pathways))
	for _, p := range parsed.Pathways {
		pv := p.Entities.PValue
		pathways = append(pathways, PathwaySummary{ID: p.StID, Name: p.Name, PValue: &pv})
	}
	if len(pathways) == 0 {
		// Stub deployments answer with a bare entry list.
		if hits, derr := decodePathwayHits(res); derr == nil {
			pathways = hits
		}
	}

	out := map[string]interface{}{
		"accession": accession,
		"count":     len(pathways),
		"pathways":  pathways,
	}
	if parsed.Summary.Token != "" {
		out["analysis_token"] = parsed.Summary.Token
	}
	return out, nil
}

func (s *Service) searchPathwaysTool() tool.Definition {
	return tool.Definition{
		Name:        "search_pathways",
		Description: "Free-text search of the pathway registry, scoped to a species.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "query", Type: "string", Description: "Search keywords", Required: true},
			{Name: "species", Type: "string", Description: "Species scope", Default: "Homo sapiens"},
			{Name: "size", Type: "integer", Description: "Maximum results", Default: 20, Minimum: floatPtr(1), Maximum: floatPtr(100)},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			query := stringArg(args, "query")
			species := stringArg(args, "species")
			size := intArg(args, "size", 20)

			res, err := s.fetch(ctx, s.pathwaySearchRequest(query, species))
			if err != nil {
				return nil, err
			}
			hits, err := decodePathwayHits(res)
			if err != nil {
				return nil, err
			}
			if len(hits) > size {
				hits = hits[:size]
			}
			return map[string]interface{}{
				"query":    query,
				"species":  species,
				"count":    len(hits),
				"pathways": hits,
			}, nil
		},
	}
}

func (s *Service) getProteinPathwaysTool() tool.Definition {
	return tool.Definition{
		Name:        "get_protein_pathways",
		Description: "Run a pathway over-representation analysis for one protein accession.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "accession", Type: "string", Description: "Protein accession", Required: true},
			{Name: "size", Type: "integer", Description: "Maximum pathways", Default: 20, Minimum: floatPtr(1), Maximum: floatPtr(100)},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return s.pathwayAnalysis(ctx, stringArg(args, "accession"), intArg(args, "size", 20))
		},
	}
}
