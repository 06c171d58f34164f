package bio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

type valueHolder struct {
	Value string `json:"value"`
}

type namedEntity struct {
	FullName valueHolder `json:"fullName"`
}

type uniProtEntry struct {
	PrimaryAccession   string `json:"primaryAccession"`
	UniProtKBID        string `json:"uniProtkbId"`
	EntryType          string `json:"entryType"`
	ProteinDescription struct {
		RecommendedName *namedEntity  `json:"recommendedName"`
		SubmissionNames []namedEntity `json:"submissionNames"`
	} `json:"proteinDescription"`
	Organism struct {
		ScientificName string `json:"scientificName"`
		CommonName     string `json:"commonName"`
	} `json:"organism"`
	Genes []struct {
		GeneName valueHolder `json:"geneName"`
	} `json:"genes"`
	Sequence struct {
		Value     string  `json:"value"`
		Length    int     `json:"length"`
		MolWeight float64 `json:"molWeight"`
	} `json:"sequence"`
	Comments []struct {
		CommentType string        `json:"commentType"`
		Texts       []valueHolder `json:"texts"`
	} `json:"comments"`
	Features json.RawMessage `json:"features"`
}

type uniProtSearchResponse struct {
	Results []uniProtEntry `json:"results"`
}

// ProteinSummary is the normalized view of one protein record.
type ProteinSummary struct {
	Accession string `json:"accession"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Organism  string `json:"organism"`
	Gene      string `json:"gene,omitempty"`
	Reviewed  bool   `json:"reviewed"`
	Length    int    `json:"length"`
	Function  string `json:"function,omitempty"`
}

func (e uniProtEntry) name() string {
	if e.ProteinDescription.RecommendedName != nil {
		return e.ProteinDescription.RecommendedName.FullName.Value
	}
	if len(e.ProteinDescription.SubmissionNames) > 0 {
		return e.ProteinDescription.SubmissionNames[0].FullName.Value
	}
	return ""
}

func (e uniProtEntry) reviewed() bool {
	return strings.Contains(strings.ToLower(e.EntryType), "reviewed")
}

func (e uniProtEntry) gene() string {
	if len(e.Genes) > 0 {
		return e.Genes[0].GeneName.Value
	}
	return ""
}

func (e uniProtEntry) function() string {
	for _, c := range e.Comments {
		if c.CommentType == "FUNCTION" && len(c.Texts) > 0 {
			return c.Texts[0].Value
		}
	}
	return ""
}

func (e uniProtEntry) summary() ProteinSummary {
	return ProteinSummary{
		Accession: e.PrimaryAccession,
		ID:        e.UniProtKBID,
		Name:      e.name(),
		Organism:  e.Organism.ScientificName,
		Gene:      e.gene(),
		Reviewed:  e.reviewed(),
		Length:    e.Sequence.Length,
		Function:  e.function(),
	}
}

func (s *Service) proteinSearchRequest(query string, size int, format string) upstream.Request {
	mode := upstream.ModeJSON
	if format != "json" {
		mode = upstream.ModeText
	}
	return upstream.Request{
		Endpoint: s.regs.Protein + "/uniprotkb/search",
		Params: map[string]string{
			"query":  query,
			"format": format,
			"size":   fmt.Sprintf("%d", size),
		},
		Mode: mode,
	}
}

func (s *Service) proteinEntryRequest(accession, format string) upstream.Request {
	mode := upstream.ModeJSON
	if format != "json" {
		mode = upstream.ModeText
	}
	return upstream.Request{
		Endpoint: s.regs.Protein + "/uniprotkb/" + accession,
		Params:   map[string]string{"format": format},
		Mode:     mode,
	}
}

func organismClause(query, organism string) string {
	if organism == "" {
		return query
	}
	return fmt.Sprintf("%s AND organism_name:%q", query, organism)
}

func (s *Service) searchProteinsTool() tool.Definition {
	return tool.Definition{
		Name:        "search_proteins",
		Description: "Search the protein registry by keyword, optionally scoped to an organism.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "query", Type: "string", Description: "Search keywords", Required: true},
			{Name: "organism", Type: "string", Description: "Organism scientific name filter"},
			{Name: "size", Type: "integer", Description: "Maximum results", Default: 25, Minimum: floatPtr(1), Maximum: floatPtr(500)},
			{Name: "format", Type: "string", Description: "Response format", Default: "json", Enum: []string{"json", "tsv", "fasta", "xml"}},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			query := stringArg(args, "query")
			organism := stringArg(args, "organism")
			size := intArg(args, "size", 25)
			format := stringArg(args, "format")

			res, err := s.fetch(ctx, s.proteinSearchRequest(organismClause(query, organism), size, format))
			if err != nil {
				return nil, err
			}
			if format != "json" {
				return res.Text, nil
			}

			var parsed uniProtSearchResponse
			if err := res.Decode(&parsed); err != nil {
				return nil, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
			}
			proteins := make([]ProteinSummary, 0, len(parsed.Results))
			for _, entry := range parsed.Results {
				proteins = append(proteins, entry.summary())
			}
			return map[string]interface{}{
				"query":    query,
				"organism": organism,
				"count":    len(proteins),
				"proteins": proteins,
			}, nil
		},
	}
}

func (s *Service) searchByGeneTool() tool.Definition {
	return tool.Definition{
		Name:        "search_by_gene",
		Description: "Search the protein registry for proteins encoded by a gene symbol.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "gene", Type: "string", Description: "Gene symbol", Required: true},
			{Name: "organism", Type: "string", Description: "Organism scientific name filter"},
			{Name: "size", Type: "integer", Description: "Maximum results", Default: 25, Minimum: floatPtr(1), Maximum: floatPtr(500)},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			gene := stringArg(args, "gene")
			organism := stringArg(args, "organism")
			size := intArg(args, "size", 25)

			query := organismClause(fmt.Sprintf("gene:%q", gene), organism)
			res, err := s.fetch(ctx, s.proteinSearchRequest(query, size, "json"))
			if err != nil {
				return nil, err
			}

			var parsed uniProtSearchResponse
			if err := res.Decode(&parsed); err != nil {
				return nil, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
			}
			proteins := make([]ProteinSummary, 0, len(parsed.Results))
			for _, entry := range parsed.Results {
				proteins = append(proteins, entry.summary())
			}
			return map[string]interface{}{
				"gene":     gene,
				"organism": organism,
				"count":    len(proteins),
				"proteins": proteins,
			}, nil
		},
	}
}

func (s *Service) getProteinInfoTool() tool.Definition {
	return tool.Definition{
		Name:        "get_protein_info",
		Description: "Fetch the full protein registry record for one accession.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "accession", Type: "string", Description: "Protein accession", Required: true},
			{Name: "format", Type: "string", Description: "Response format", Default: "json", Enum: []string{"json", "tsv", "fasta", "xml"}},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			accession := stringArg(args, "accession")
			format := stringArg(args, "format")

			res, err := s.fetch(ctx, s.proteinEntryRequest(accession, format))
			if err != nil {
				return nil, err
			}
			if format != "json" {
				return res.Text, nil
			}
			return res.JSON, nil
		},
	}
}

func (s *Service) getProteinSequenceTool() tool.Definition {
	return tool.Definition{
		Name:        "get_protein_sequence",
		Description: "Fetch the amino-acid sequence for one accession, FASTA by default.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "accession", Type: "string", Description: "Protein accession", Required: true},
			{Name: "format", Type: "string", Description: "Response format", Default: "fasta", Enum: []string{"fasta", "json"}},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			accession := stringArg(args, "accession")
			format := stringArg(args, "format")

			res, err := s.fetch(ctx, s.proteinEntryRequest(accession, format))
			if err != nil {
				return nil, err
			}
			if format == "json" {
				return res.JSON, nil
			}
			return res.Text, nil
		},
	}
}

func (s *Service) getProteinFeaturesTool() tool.Definition {
	return tool.Definition{
		Name:        "get_protein_features",
		Description: "Fetch annotated features and functional comments for one accession.",
		Strategy:    tool.StrategySingle,
		Parameters: []tool.Parameter{
			{Name: "accession", Type: "string", Description: "Protein accession", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			accession := stringArg(args, "accession")

			res, err := s.fetch(ctx, s.proteinEntryRequest(accession, "json"))
			if err != nil {
				return nil, err
			}
			var entry uniProtEntry
			if err := res.Decode(&entry); err != nil {
				return nil, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
			}
			features := entry.Features
			if features == nil {
				features = json.RawMessage("[]")
			}
			return map[string]interface{}{
				"accession": entry.PrimaryAccession,
				"features":  features,
				"comments":  entry.Comments,
			}, nil
		},
	}
}

// proteinSummaryByAccession backs the aggregate's protein sub-query.
func (s *Service) proteinSummaryByAccession(ctx context.Context, accession string) (ProteinSummary, error) {
	res, err := s.fetch(ctx, s.proteinEntryRequest(accession, "json"))
	if err != nil {
		return ProteinSummary{}, err
	}
	var entry uniProtEntry
	if err := res.Decode(&entry); err != nil {
		return ProteinSummary{}, &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
	}
	return entry.summary(), nil
}
