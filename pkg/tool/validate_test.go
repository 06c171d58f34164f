package tool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArgs_FieldIssues(t *testing.T) {
	def := Definition{
		Name:        "t",
		Description: "d",
		Strategy:    StrategySingle,
		Parameters: []Parameter{
			{Name: "accession", Type: "string", Description: "d", Required: true},
			{Name: "size", Type: "integer", Description: "d", Minimum: floatPtr(1), Maximum: floatPtr(100)},
		},
	}
	schema, err := buildSchema(def)
	require.NoError(t, err)

	err = validateArgs("t", schema, map[string]interface{}{"size": 500})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "t", verr.Tool)
	require.Len(t, verr.Issues, 2)

	fields := []string{verr.Issues[0].Field, verr.Issues[1].Field}
	assert.Contains(t, fields, "accession")
	assert.Contains(t, fields, "size")
	assert.Contains(t, verr.Error(), "invalid arguments for t")
}

func TestValidateArgs_Valid(t *testing.T) {
	def := Definition{
		Name:        "t",
		Description: "d",
		Strategy:    StrategySingle,
		Parameters: []Parameter{
			{Name: "accession", Type: "string", Description: "d", Required: true},
		},
	}
	schema, err := buildSchema(def)
	require.NoError(t, err)

	assert.NoError(t, validateArgs("t", schema, map[string]interface{}{"accession": "P04637"}))
}

func TestNormalizeArgs(t *testing.T) {
	def := &Definition{
		Parameters: []Parameter{
			{Name: "query", Type: "string", Description: "d", Required: true},
			{Name: "format", Type: "string", Description: "d", Default: "json"},
		},
	}

	args := normalizeArgs(def, map[string]interface{}{
		"query": "  p53  ",
		"extra": " keep ",
	})
	assert.Equal(t, "p53", args["query"])
	assert.Equal(t, "json", args["format"])
	assert.Equal(t, "keep", args["extra"], "unknown fields pass through trimmed")
}
