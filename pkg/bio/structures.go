package bio

import (
	"context"
	"fmt"
	"strings"

	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

// StructureHit is one ranked identifier from a structure registry search.
type StructureHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type structureSearchResponse struct {
	ResultSet []struct {
		Identifier string  `json:"identifier"`
		Score      float64 `json:"score"`
	} `json:"result_set"`
	TotalCount int `json:"total_count"`
}

type structureEntryResponse struct {
	Struct struct {
		Title string `json:"title"`
	} `json:"struct"`
	Exptl []struct {
		Method string `json:"method"`
	} `json:"exptl"`
	RcsbEntryInfo struct {
		ResolutionCombined []float64 `json:"resolution_combined"`
	} `json:"rcsb_entry_info"`
}

func (s *Service) structureSearchRequest(query string, size int) upstream.Request {
	return upstream.Request{
		Endpoint: s.regs.Structure + "/rcsbsearch/v2/query",
		Mode:     upstream.ModeJSON,
		JSONBody: map[string]interface{}{
			"query": map[string]interface{}{
				"type":    "terminal",
				"service": "full_text",
				"parameters": map[string]interface{}{
					"value": query,
				},
			},
			"return_type": "entry",
			"request_options": map[string]interface{}{
				"paginate": map[string]interface{}{
					"start": 0,
					"rows":  size,
				},
			},
		},
	}
}

// structureSearch backs both the search tool and the aggregate's structure
// sub-query.
func (s *Service) structureSearch(ctx context.Context, query string, size int) (map[string]interface{}, error) {
	res, err := s.fetch(ctx, s.structureSearchRequest(query, size))
	if err != nil {
		return nil, err
	}

	var parsed structureSearchResponse
	if err := res.Decode(&parsed); err != nil {
		return nil, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
	}

	hits := make([]StructureHit, 0, len(parsed.ResultSet))
	for _, hit := range parsed.ResultSet {
		hits = append(hits, StructureHit{ID: hit.Identifier, Score: hit.Score})
	}
	return map[string]interface{}{
		"query":      query,
		"total":      parsed.TotalCount,
		"structures": hits,
	}, nil
}

func (s *Service) searchPDBStructuresTool() tool.Definition {
	return tool.Definition{
		Name:        "search_pdb_structures",
		Description: "Free-text search of the structure registry, returning ranked identifiers.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "query", Type: "string", Description: "Search keywords", Required: true},
			{Name: "size", Type: "integer", Description: "Maximum results", Default: 10, Minimum: floatPtr(1), Maximum: floatPtr(100)},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return s.structureSearch(ctx, stringArg(args, "query"), intArg(args, "size", 10))
		},
	}
}

func (s *Service) getPDBStructureInfoTool() tool.Definition {
	return tool.Definition{
		Name:        "get_pdb_structure_info",
		Description: "Fetch title, method, and resolution for one structure identifier.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "pdb_id", Type: "string", Description: "Structure identifier", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			pdbID := strings.ToUpper(stringArg(args, "pdb_id"))

			res, err := s.fetch(ctx, upstream.Request{
				Endpoint: s.regs.StructureData + "/rest/v1/core/entry/" + pdbID,
				Mode:     upstream.ModeJSON,
			})
			if err != nil {
				return nil, err
			}

			var parsed structureEntryResponse
			if err := res.Decode(&parsed); err != nil {
				return nil, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
			}

			out := map[string]interface{}{
				"id":    pdbID,
				"title": parsed.Struct.Title,
			}
			if len(parsed.Exptl) > 0 {
				out["method"] = parsed.Exptl[0].Method
			}
			if len(parsed.RcsbEntryInfo.ResolutionCombined) > 0 {
				out["resolution"] = fmt.Sprintf("%.2f", parsed.RcsbEntryInfo.ResolutionCombined[0])
			}
			return out, nil
		},
	}
}
