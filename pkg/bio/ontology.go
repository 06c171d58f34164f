package bio

import (
	"context"
	"net/url"

	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

// OntologyTerm is one normalized ontology search hit.
type OntologyTerm struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
}

type ontologySearchResponse struct {
	Docs []struct {
		ID       string   `json:"id"`
		Label    string   `json:"label"`
		Category []string `json:"category"`
	} `json:"docs"`
}

func (s *Service) searchGOTermsTool() tool.Definition {
	return tool.Definition{
		Name:        "search_go_terms",
		Description: "Free-text search of the ontology registry.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "query", Type: "string", Description: "Search keywords", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			query := stringArg(args, "query")

			res, err := s.fetch(ctx, upstream.Request{
				Endpoint: s.regs.Ontology + "/api/search/entity/autocomplete/" + url.PathEscape(query),
				Mode:     upstream.ModeJSON,
			})
			if err != nil {
				return nil, err
			}

			var parsed ontologySearchResponse
			if err := res.Decode(&parsed); err != nil {
				return nil, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
			}

			terms := make([]OntologyTerm, 0, len(parsed.Docs))
			for _, doc := range parsed.Docs {
				term := OntologyTerm{ID: doc.ID, Label: doc.Label}
				if len(doc.Category) > 0 {
					term.Category = doc.Category[0]
				}
				terms = append(terms, term)
			}
			return map[string]interface{}{
				"query": query,
				"count": len(terms),
				"terms": terms,
			}, nil
		},
	}
}

func (s *Service) getGOTermTool() tool.Definition {
	return tool.Definition{
		Name:        "get_go_term",
		Description: "Fetch the ontology registry record for one term identifier.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "id", Type: "string", Description: "Ontology term identifier, e.g. GO:0006915", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			termID := stringArg(args, "id")

			res, err := s.fetch(ctx, upstream.Request{
				Endpoint: s.regs.Ontology + "/api/ontology/term/" + url.PathEscape(termID),
				Mode:     upstream.ModeJSON,
			})
			if err != nil {
				return nil, err
			}
			return res.JSON, nil
		},
	}
}
