package schema

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/replication"
)

func goldenDocument(t *testing.T) map[string]any {
	t.Helper()
	data, err := os.ReadFile("../replication/testdata/golden/orders_replication.golden")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func encode(t *testing.T, doc any) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func at(doc map[string]any, key string, index int) map[string]any {
	return doc[key].([]any)[index].(map[string]any)
}

func hasViolationAt(vs []Violation, prefix string) bool {
	for _, v := range vs {
		if strings.HasPrefix(v.Path, prefix) {
			return true
		}
	}
	return false
}

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidateGoldenDocument(t *testing.T) {
	data, err := os.ReadFile("../replication/testdata/golden/orders_replication.golden")
	require.NoError(t, err)

	vs, err := Validate(data)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestValidateBuiltReplications(t *testing.T) {
	v := newValidator(t)

	empty := replication.New("ABCDEFGH123")
	vs, err := v.ValidateReplication(empty)
	require.NoError(t, err)
	assert.Empty(t, vs, "unset spaces are written as placeholders")

	r := replication.New("ABAP_CDS_S4H_to_HC_deltaSkinny")
	r.SetVersion("")
	src := r.SetSourceSpace("S4H_2021", "/CDS")
	src.SetConnectionTypes("ABAP", "ABAP")
	tgt := r.SetTargetSpace("ADL", "/out")
	tgt.SetFileType(replication.FileTypeCSV)
	tgt.SetFileDelimiter(replication.DelimiterSemicolon)
	tgt.SetFileHeader(true)
	task, err := r.CreateTask("Z_SEPM_I_SALESORDER")
	require.NoError(t, err)
	task.Filters().Add("MANDT", replication.OperatorEquals, "100")

	vs, err = v.ValidateReplication(r)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestValidateViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
		path   string
	}{
		{
			name:   "missing name",
			mutate: func(doc map[string]any) { delete(doc, "name") },
			path:   "name",
		},
		{
			name:   "unknown version",
			mutate: func(doc map[string]any) { doc["version"] = "MANY_SOURCES" },
			path:   "version",
		},
		{
			name:   "unknown top level field",
			mutate: func(doc map[string]any) { doc["owner"] = "tester" },
			path:   "owner",
		},
		{
			name: "two source spaces",
			mutate: func(doc map[string]any) {
				doc["sourceSpaces"] = append(doc["sourceSpaces"].([]any), at(doc, "sourceSpaces", 0))
			},
			path: "sourceSpaces",
		},
		{
			name:   "technical name differs from connection",
			mutate: func(doc map[string]any) { at(doc, "sourceSpaces", 0)["technicalName"] = "OTHER" },
			path:   "sourceSpaces.0.technicalName",
		},
		{
			name: "unknown file format",
			mutate: func(doc map[string]any) {
				at(doc, "targetSpaces", 0)["datasetProperties"].(map[string]any)["format"] = "ORC"
			},
			path: "targetSpaces.0.datasetProperties.format",
		},
		{
			name: "unknown dataset property",
			mutate: func(doc map[string]any) {
				at(doc, "targetSpaces", 0)["datasetProperties"].(map[string]any)["encoding"] = "UTF-8"
			},
			path: "targetSpaces.0.datasetProperties.encoding",
		},
		{
			name:   "empty dataset properties",
			mutate: func(doc map[string]any) { at(doc, "targetSpaces", 0)["datasetProperties"] = map[string]any{} },
			path:   "targetSpaces.0.datasetProperties",
		},
		{
			name:   "unknown load type",
			mutate: func(doc map[string]any) { at(doc, "oneSourceOneTargetTasks", 0)["loadType"] = "DELTA" },
			path:   "oneSourceOneTargetTasks.0.loadType",
		},
		{
			name:   "task references another space",
			mutate: func(doc map[string]any) { at(doc, "oneSourceOneTargetTasks", 1)["sourceSpace"] = "OTHER_src" },
			path:   "oneSourceOneTargetTasks.1.sourceSpace",
		},
		{
			name: "comparison not normalized",
			mutate: func(doc map[string]any) {
				group := at(doc, "oneSourceOneTargetTasks", 0)["filter"].([]any)[0].(map[string]any)
				group["elements"].([]any)[0].(map[string]any)["comparison"] = "EQUALS"
			},
			path: "oneSourceOneTargetTasks.0.filter.0.elements.0.comparison",
		},
		{
			name: "filter group without elements",
			mutate: func(doc map[string]any) {
				group := at(doc, "oneSourceOneTargetTasks", 0)["filter"].([]any)[0].(map[string]any)
				group["elements"] = []any{}
			},
			path: "oneSourceOneTargetTasks.0.filter.0.elements",
		},
		{
			name:   "truncate is not a bool",
			mutate: func(doc map[string]any) { at(doc, "oneSourceOneTargetTasks", 0)["truncate"] = "true" },
			path:   "oneSourceOneTargetTasks.0.truncate",
		},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := goldenDocument(t)
			tt.mutate(doc)

			vs := v.Validate(encode(t, doc))
			require.NotEmpty(t, vs)
			assert.True(t, hasViolationAt(vs, tt.path), "no violation at %s in %v", tt.path, vs)
		})
	}
}

func TestViolationPathsOmitDefinition(t *testing.T) {
	doc := goldenDocument(t)
	doc["owner"] = "tester"
	at(doc, "oneSourceOneTargetTasks", 0)["truncate"] = "true"

	vs := newValidator(t).Validate(encode(t, doc))
	require.NotEmpty(t, vs)
	for _, viol := range vs {
		assert.NotContains(t, viol.Path, "#", "violation %v", viol)
	}
	assert.True(t, hasViolationAt(vs, "owner"), "no violation at owner in %v", vs)
	assert.True(t, hasViolationAt(vs, "oneSourceOneTargetTasks.0.truncate"), "no violation at truncate in %v", vs)
}

func TestDocumentPath(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"#Replication"}, ""},
		{[]string{"#Replication", "owner"}, "owner"},
		{[]string{"#Replication", "targetSpaces", "0", "datasetProperties"}, "targetSpaces.0.datasetProperties"},
		{[]string{"name"}, "name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, documentPath(tt.in), "documentPath(%q)", tt.in)
	}
}

func TestValidateNotAnObject(t *testing.T) {
	v := newValidator(t)

	assert.NotEmpty(t, v.Validate([]byte(`{`)))
	assert.NotEmpty(t, v.Validate([]byte(`[]`)))
	assert.NotEmpty(t, v.Validate([]byte(`"ORDERS"`)))
}

func TestViolationsAreSorted(t *testing.T) {
	doc := goldenDocument(t)
	doc["version"] = "MANY_SOURCES"
	delete(doc, "name")

	vs := newValidator(t).Validate(encode(t, doc))
	require.GreaterOrEqual(t, len(vs), 2)
	for i := 1; i < len(vs); i++ {
		assert.LessOrEqual(t, vs[i-1].Path, vs[i].Path)
	}
}

func TestViolationString(t *testing.T) {
	assert.Equal(t, "name: incomplete value string", Violation{Path: "name", Message: "incomplete value string"}.String())
	assert.Equal(t, "expected '}'", Violation{Message: "expected '}'"}.String())
}

func TestSource(t *testing.T) {
	assert.Contains(t, Source(), "#Replication:")
}
