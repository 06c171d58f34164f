package bio

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/promethica/pkg/cache"
	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

const appSearchPayload = `{
	"results": [{
		"primaryAccession": "P05067",
		"uniProtkbId": "A4_HUMAN",
		"entryType": "UniProtKB reviewed (Swiss-Prot)",
		"proteinDescription": {"recommendedName": {"fullName": {"value": "Amyloid-beta precursor protein"}}},
		"organism": {"scientificName": "Homo sapiens"},
		"genes": [{"geneName": {"value": "APP"}}],
		"sequence": {"length": 770}
	}]
}`

const tp53EntryPayload = `{
	"primaryAccession": "P04637",
	"uniProtkbId": "P53_HUMAN",
	"entryType": "UniProtKB reviewed (Swiss-Prot)",
	"proteinDescription": {"recommendedName": {"fullName": {"value": "Cellular tumor antigen p53"}}},
	"organism": {"scientificName": "Homo sapiens"},
	"genes": [{"geneName": {"value": "TP53"}}],
	"sequence": {"length": 393},
	"comments": [{"commentType": "FUNCTION", "texts": [{"value": "Acts as a tumor suppressor"}]}]
}`

const analysisPayload = `{
	"summary": {"token": "TOKEN123"},
	"pathways": [
		{"stId": "R-HSA-69488", "name": "Cell Cycle Checkpoints", "entities": {"pValue": 0.001}},
		{"stId": "R-HSA-5633007", "name": "Regulation of TP53 Activity", "entities": {"pValue": 0.002}}
	]
}`

const structureSearchPayload = `{
	"result_set": [
		{"identifier": "1TUP", "score": 1.0},
		{"identifier": "2XWR", "score": 0.92}
	],
	"total_count": 2
}`

// stubFetcher routes requests to canned handlers by endpoint substring and
// counts every request it sees.
type stubFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	routes []stubRoute
}

type stubRoute struct {
	match   string
	handler func(req upstream.Request) (upstream.Result, error)
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{calls: make(map[string]int)}
}

func (f *stubFetcher) on(match string, handler func(req upstream.Request) (upstream.Result, error)) {
	f.routes = append(f.routes, stubRoute{match: match, handler: handler})
}

func (f *stubFetcher) onJSON(match, payload string) {
	f.on(match, func(req upstream.Request) (upstream.Result, error) {
		return upstream.Result{Endpoint: req.Endpoint, Mode: upstream.ModeJSON, JSON: json.RawMessage(payload)}, nil
	})
}

func (f *stubFetcher) onError(match string, err error) {
	f.on(match, func(req upstream.Request) (upstream.Result, error) {
		return upstream.Result{}, err
	})
}

func (f *stubFetcher) Fetch(ctx context.Context, req upstream.Request) (upstream.Result, error) {
	f.mu.Lock()
	for _, route := range f.routes {
		if strings.Contains(req.Endpoint, route.match) {
			f.calls[route.match]++
			f.mu.Unlock()
			return route.handler(req)
		}
	}
	f.mu.Unlock()
	return upstream.Result{}, &upstream.StatusError{Endpoint: req.Endpoint, Code: 404, Body: "no stub route"}
}

func (f *stubFetcher) count(match string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[match]
}

func testRegistries() Registries {
	return Registries{
		Protein:       "https://protein.test",
		Pathway:       "https://pathway.test",
		Structure:     "https://structure.test",
		StructureData: "https://structure-data.test",
		Ontology:      "https://ontology.test",
	}
}

func newTestRegistry(t *testing.T, fetcher upstream.Fetcher, store cache.Store) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry(zerolog.Nop())
	svc := NewService(fetcher, store, testRegistries(), zerolog.Nop())
	require.NoError(t, svc.Register(reg))
	return reg
}

func TestRegister_AllTools(t *testing.T) {
	reg := newTestRegistry(t, newStubFetcher(), nil)

	expected := []string{
		"comprehensive_protein_analysis",
		"get_gene_pathways",
		"get_go_term",
		"get_pdb_structure_info",
		"get_primary_protein_for_gene",
		"get_protein_features",
		"get_protein_info",
		"get_protein_pathways",
		"get_protein_sequence",
		"search_by_gene",
		"search_go_terms",
		"search_pathways",
		"search_pdb_structures",
		"search_proteins",
	}
	assert.Equal(t, expected, reg.List())
}

func TestSearchByGene(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.on("/uniprotkb/search", func(req upstream.Request) (upstream.Result, error) {
		assert.Contains(t, req.Params["query"], `gene:"APP"`)
		assert.Contains(t, req.Params["query"], `organism_name:"Homo sapiens"`)
		return upstream.Result{Endpoint: req.Endpoint, Mode: upstream.ModeJSON, JSON: json.RawMessage(appSearchPayload)}, nil
	})
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "search_by_gene", map[string]interface{}{
		"gene":     "APP",
		"organism": "Homo sapiens",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)

	out := result.Output.(map[string]interface{})
	assert.Equal(t, 1, out["count"])

	proteins := out["proteins"].([]ProteinSummary)
	require.Len(t, proteins, 1)
	assert.Equal(t, "P05067", proteins[0].Accession)
	assert.True(t, proteins[0].Reviewed)
	assert.Equal(t, "APP", proteins[0].Gene)
	assert.Equal(t, "Homo sapiens", proteins[0].Organism)
}

func TestGetProteinSequence_FASTA(t *testing.T) {
	const fasta = ">sp|P04637|P53_HUMAN Cellular tumor antigen p53\nMEEPQSDPSV"
	fetcher := newStubFetcher()
	fetcher.on("/uniprotkb/P04637", func(req upstream.Request) (upstream.Result, error) {
		assert.Equal(t, "fasta", req.Params["format"])
		assert.Equal(t, upstream.ModeText, req.Mode)
		return upstream.Result{Endpoint: req.Endpoint, Mode: upstream.ModeText, Text: fasta}, nil
	})
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "get_protein_sequence", map[string]interface{}{
		"accession": "P04637",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)
	assert.Equal(t, fasta, result.Output)
}

func TestGetProteinFeatures(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/uniprotkb/P04637", tp53EntryPayload)
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "get_protein_features", map[string]interface{}{
		"accession": "P04637",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)

	out := result.Output.(map[string]interface{})
	assert.Equal(t, "P04637", out["accession"])
	assert.Equal(t, json.RawMessage("[]"), out["features"], "absent features normalize to an empty list")
}

func TestGetPrimaryProteinForGene(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.on("/uniprotkb/search", func(req upstream.Request) (upstream.Result, error) {
		assert.Contains(t, req.Params["query"], "reviewed:true")
		return upstream.Result{Endpoint: req.Endpoint, Mode: upstream.ModeJSON, JSON: json.RawMessage(appSearchPayload)}, nil
	})
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "get_primary_protein_for_gene", map[string]interface{}{
		"gene": "APP",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)

	out := result.Output.(map[string]interface{})
	primary := out["primary_protein"].(ProteinSummary)
	assert.Equal(t, "P05067", primary.Accession)
	assert.True(t, primary.Reviewed)
}

func TestGetGenePathways(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/uniprotkb/search", appSearchPayload)
	fetcher.on("/AnalysisService/identifiers", func(req upstream.Request) (upstream.Result, error) {
		assert.Equal(t, "P05067", req.TextBody, "analysis posts the resolved accession")
		return upstream.Result{Endpoint: req.Endpoint, Mode: upstream.ModeJSON, JSON: json.RawMessage(analysisPayload)}, nil
	})
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "get_gene_pathways", map[string]interface{}{
		"gene": "APP",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)

	out := result.Output.(map[string]interface{})
	assert.Equal(t, "P05067", out["accession"])

	analysis := out["analysis"].(map[string]interface{})
	assert.Equal(t, 2, analysis["count"])
	assert.Equal(t, "TOKEN123", analysis["analysis_token"])

	pathways := analysis["pathways"].([]PathwaySummary)
	require.Len(t, pathways, 2)
	assert.Equal(t, "R-HSA-69488", pathways[0].ID)
	require.NotNil(t, pathways[0].PValue)
	assert.InDelta(t, 0.001, *pathways[0].PValue, 1e-9)
}

func TestGetGenePathways_ShortCircuitsOnUnknownGene(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/uniprotkb/search", `{"results":[]}`)
	fetcher.onJSON("/AnalysisService/identifiers", analysisPayload)
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "get_gene_pathways", map[string]interface{}{
		"gene": "NOSUCHGENE",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no matching record found")
	assert.Equal(t, 0, fetcher.count("/AnalysisService/identifiers"),
		"the analysis request must never be issued when resolution fails")
}

func TestComprehensiveAnalysis_PartialFailure(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/uniprotkb/P04637", tp53EntryPayload)
	fetcher.onError("/AnalysisService/identifiers", &upstream.NetworkError{
		Endpoint: "https://pathway.test/AnalysisService/identifiers",
		Err:      context.DeadlineExceeded,
	})
	fetcher.onJSON("/rcsbsearch/v2/query", structureSearchPayload)
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "comprehensive_protein_analysis", map[string]interface{}{
		"accession": "P04637",
	})
	require.True(t, result.Success, "per-source failures must not fail the composite: %s", result.Error)

	out := result.Output.(map[string]interface{})
	assert.Equal(t, "P04637", out["accession"])
	assert.NotContains(t, out, "pathways", "failed source must be absent")

	info := out["uniprot_info"].(ProteinSummary)
	assert.Equal(t, "P04637", info.Accession)
	assert.Equal(t, "Acts as a tumor suppressor", info.Function)

	structures := out["pdb_structures"].(map[string]interface{})
	assert.Equal(t, 2, structures["total"])

	errs := out["error_messages"].([]string)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "pathways")
	assert.Contains(t, errs[0], "deadline exceeded")
}

func TestComprehensiveAnalysis_AllSourcesSucceed(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/uniprotkb/P04637", tp53EntryPayload)
	fetcher.onJSON("/AnalysisService/identifiers", analysisPayload)
	fetcher.onJSON("/rcsbsearch/v2/query", structureSearchPayload)
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "comprehensive_protein_analysis", map[string]interface{}{
		"accession": "P04637",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)

	out := result.Output.(map[string]interface{})
	assert.Contains(t, out, "uniprot_info")
	assert.Contains(t, out, "pathways")
	assert.Contains(t, out, "pdb_structures")
	assert.Empty(t, out["error_messages"])
}

func TestCache_DeduplicatesRepeatedSearches(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/uniprotkb/search", appSearchPayload)
	store := cache.New(16, time.Minute)
	reg := newTestRegistry(t, fetcher, store)

	args := map[string]interface{}{"gene": "APP", "organism": "Homo sapiens"}
	for i := 0; i < 3; i++ {
		result := reg.Execute(context.Background(), "search_by_gene", args)
		require.True(t, result.Success, "unexpected error: %s", result.Error)
	}
	assert.Equal(t, 1, fetcher.count("/uniprotkb/search"), "identical searches hit upstream once")

	result := reg.Execute(context.Background(), "search_by_gene", map[string]interface{}{
		"gene": "TP53", "organism": "Homo sapiens",
	})
	require.True(t, result.Success)
	assert.Equal(t, 2, fetcher.count("/uniprotkb/search"), "a different query is a distinct cache entry")
}

func TestCache_BodiedRequestsAreNotCached(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/AnalysisService/identifiers", analysisPayload)
	store := cache.New(16, time.Minute)
	reg := newTestRegistry(t, fetcher, store)

	args := map[string]interface{}{"accession": "P04637"}
	for i := 0; i < 2; i++ {
		result := reg.Execute(context.Background(), "get_protein_pathways", args)
		require.True(t, result.Success, "unexpected error: %s", result.Error)
	}
	assert.Equal(t, 2, fetcher.count("/AnalysisService/identifiers"))
}

func TestSearchPathways(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/ContentService/search/query", `{
		"results": [{
			"typeName": "Pathway",
			"entries": [
				{"stId": "R-HSA-109581", "name": "Apoptosis"},
				{"stId": "R-HSA-169911", "displayName": "Regulation of Apoptosis"}
			]
		}]
	}`)
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "search_pathways", map[string]interface{}{
		"query": "apoptosis",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)

	out := result.Output.(map[string]interface{})
	assert.Equal(t, 2, out["count"])

	hits := out["pathways"].([]PathwaySummary)
	require.Len(t, hits, 2)
	assert.Equal(t, "Apoptosis", hits[0].Name)
	assert.Equal(t, "Regulation of Apoptosis", hits[1].Name, "displayName backs an empty name")
}

func TestGetPDBStructureInfo(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.on("/rest/v1/core/entry/", func(req upstream.Request) (upstream.Result, error) {
		assert.True(t, strings.HasSuffix(req.Endpoint, "/1TUP"), "identifier is upper-cased")
		return upstream.Result{Endpoint: req.Endpoint, Mode: upstream.ModeJSON, JSON: json.RawMessage(`{
			"struct": {"title": "Tumor suppressor p53 complexed with DNA"},
			"exptl": [{"method": "X-RAY DIFFRACTION"}],
			"rcsb_entry_info": {"resolution_combined": [2.2]}
		}`)}, nil
	})
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "get_pdb_structure_info", map[string]interface{}{
		"pdb_id": "1tup",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)

	out := result.Output.(map[string]interface{})
	assert.Equal(t, "1TUP", out["id"])
	assert.Equal(t, "Tumor suppressor p53 complexed with DNA", out["title"])
	assert.Equal(t, "X-RAY DIFFRACTION", out["method"])
	assert.Equal(t, "2.20", out["resolution"])
}

func TestSearchGOTerms(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onJSON("/api/search/entity/autocomplete/", `{
		"docs": [
			{"id": "GO:0006915", "label": "apoptotic process", "category": ["biological_process"]}
		]
	}`)
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "search_go_terms", map[string]interface{}{
		"query": "apoptosis",
	})
	require.True(t, result.Success, "unexpected error: %s", result.Error)

	out := result.Output.(map[string]interface{})
	terms := out["terms"].([]OntologyTerm)
	require.Len(t, terms, 1)
	assert.Equal(t, "GO:0006915", terms[0].ID)
	assert.Equal(t, "biological_process", terms[0].Category)
}

func TestUpstreamFailureSurfacesAsToolError(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.onError("/uniprotkb/search", &upstream.StatusError{
		Endpoint: "https://protein.test/uniprotkb/search",
		Code:     500,
		Body:     "internal error",
	})
	reg := newTestRegistry(t, fetcher, nil)

	result := reg.Execute(context.Background(), "search_proteins", map[string]interface{}{
		"query": "insulin",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "500")
}
