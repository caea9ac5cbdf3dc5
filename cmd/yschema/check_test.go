package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakeasy-api/yschema/pkg/render"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newCheckCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckValidFile(t *testing.T) {
	out, err := runCommand(t,
		"--schema", "testdata/pipeline.openapi.yaml",
		"--component", "Pipeline",
		"testdata/good.yml")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCheckReportsProblems(t *testing.T) {
	out, err := runCommand(t,
		"--schema", "testdata/pipeline.openapi.yaml",
		"--component", "Pipeline",
		"--color", "never",
		"testdata/bad.yml")
	assert.ErrorIs(t, err, errProblemsFound)
	assert.Contains(t, out, "testdata/bad.yml:2:3: error: Property 'plan' is required for 'Job'")
	assert.Contains(t, out, "testdata/bad.yml:3:18: error: 'lots' is not a valid Integer")
	assert.Contains(t, out, "2 errors")
}

func TestCheckJSONOutput(t *testing.T) {
	out, err := runCommand(t,
		"--schema", "testdata/pipeline.openapi.yaml",
		"--component", "Pipeline",
		"--output", "json",
		"testdata/bad.yml")
	assert.ErrorIs(t, err, errProblemsFound)

	var report render.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "testdata/bad.yml", report.URI)
	assert.Len(t, report.Problems, 2)
}

func TestCheckUnknownComponent(t *testing.T) {
	_, err := runCommand(t,
		"--schema", "testdata/pipeline.openapi.yaml",
		"--component", "Nope",
		"testdata/good.yml")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errProblemsFound)
}

func TestCheckBadDocumentsFlag(t *testing.T) {
	_, err := runCommand(t,
		"--schema", "testdata/pipeline.openapi.yaml",
		"--component", "Pipeline",
		"--documents", "many",
		"testdata/good.yml")
	assert.ErrorContains(t, err, "--documents")
}
