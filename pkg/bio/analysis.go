package bio

import (
	"context"
	"fmt"

	"github.com/harun/promethica/pkg/aggregate"
	"github.com/harun/promethica/pkg/cascade"
	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

// resolvePrimaryProteinStep is the gene-to-accession cascade step: search the
// protein registry for reviewed records of a gene and extract the first
// match. The extracted summary lands in primary; the accession also goes into
// the cascade context for later steps.
func (s *Service) resolvePrimaryProteinStep(gene, organism string, primary *ProteinSummary) cascade.Step {
	return cascade.Step{
		Name: "resolve_primary_protein",
		Build: func(cc cascade.Context) (upstream.Request, error) {
			query := organismClause(fmt.Sprintf("gene:%q AND reviewed:true", gene), organism)
			return s.proteinSearchRequest(query, 5, "json"), nil
		},
		Extract: func(res upstream.Result, cc cascade.Context) error {
			var parsed uniProtSearchResponse
			if err := res.Decode(&parsed); err != nil {
				return &upstream.DecodeError{Endpoint: res.Endpoint, Err: err}
			}
			if len(parsed.Results) == 0 {
				return fmt.Errorf("no matching record found for gene %q", gene)
			}
			entry := parsed.Results[0]
			for _, candidate := range parsed.Results {
				if candidate.reviewed() {
					entry = candidate
					break
				}
			}
			*primary = entry.summary()
			cc["gene"] = gene
			cc["accession"] = entry.PrimaryAccession
			return nil
		},
	}
}

func (s *Service) getPrimaryProteinForGeneTool() tool.Definition {
	return tool.Definition{
		Name:        "get_primary_protein_for_gene",
		Description: "Resolve a gene symbol to its primary reviewed protein record.",
		Strategy:    tool.StrategyCascade,
		Parameters: []tool.Parameter{
			{Name: "gene", Type: "string", Description: "Gene symbol", Required: true},
			{Name: "organism", Type: "string", Description: "Organism scientific name", Default: "Homo sapiens"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			gene := stringArg(args, "gene")
			organism := stringArg(args, "organism")

			var primary ProteinSummary
			if _, _, err := s.resolver.Run(ctx, []cascade.Step{
				s.resolvePrimaryProteinStep(gene, organism, &primary),
			}); err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"gene":            gene,
				"organism":        organism,
				"primary_protein": primary,
			}, nil
		},
	}
}

func (s *Service) getGenePathwaysTool() tool.Definition {
	return tool.Definition{
		Name:        "get_gene_pathways",
		Description: "Resolve a gene symbol to its primary protein, then analyze that protein's pathways.",
		Strategy:    tool.StrategyCascade,
		Parameters: []tool.Parameter{
			{Name: "gene", Type: "string", Description: "Gene symbol", Required: true},
			{Name: "organism", Type: "string", Description: "Organism scientific name", Default: "Homo sapiens"},
			{Name: "size", Type: "integer", Description: "Maximum pathways", Default: 20, Minimum: floatPtr(1), Maximum: floatPtr(100)},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			gene := stringArg(args, "gene")
			organism := stringArg(args, "organism")
			size := intArg(args, "size", 20)

			var primary ProteinSummary
			last, cc, err := s.resolver.Run(ctx, []cascade.Step{
				s.resolvePrimaryProteinStep(gene, organism, &primary),
				{
					Name: "pathway_analysis",
					Build: func(cc cascade.Context) (upstream.Request, error) {
						accession := cc["accession"]
						if accession == "" {
							return upstream.Request{}, fmt.Errorf("no accession resolved for gene %q", gene)
						}
						return s.pathwayAnalysisRequest(accession, size), nil
					},
				},
			})
			if err != nil {
				return nil, err
			}

			analysis, err := normalizePathwayAnalysis(last, cc["accession"])
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"gene":      gene,
				"accession": cc["accession"],
				"protein":   primary,
				"analysis":  analysis,
			}, nil
		},
	}
}

func (s *Service) comprehensiveAnalysisTool() tool.Definition {
	return tool.Definition{
		Name:        "comprehensive_protein_analysis",
		Description: "Compose protein record, pathway analysis, and structure search for one accession, tolerating per-source failures.",
		Strategy:    tool.StrategyAggregate,
		Parameters: []tool.Parameter{
			{Name: "accession", Type: "string", Description: "Protein accession", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			accession := stringArg(args, "accession")

			composite := s.agg.Run(ctx, accession, s.analysisQueries(accession))

			out := map[string]interface{}{
				"accession":      accession,
				"error_messages": composite.Errors,
			}
			for source, value := range composite.Sources {
				out[source] = value
			}
			return out, nil
		},
	}
}

// analysisQueries names the independent sub-queries of the comprehensive
// analysis. Each settles on its own; failures become labeled error entries.
func (s *Service) analysisQueries(accession string) map[string]aggregate.Query {
	return map[string]aggregate.Query{
		"uniprot_info": func(ctx context.Context) (interface{}, error) {
			return s.proteinSummaryByAccession(ctx, accession)
		},
		"pathways": func(ctx context.Context) (interface{}, error) {
			return s.pathwayAnalysis(ctx, accession, 20)
		},
		"pdb_structures": func(ctx context.Context) (interface{}, error) {
			return s.structureSearch(ctx, accession, 10)
		},
	}
}
