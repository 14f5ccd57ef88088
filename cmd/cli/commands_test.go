package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gostatlab/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProportionsCmd(t *testing.T) {
	out, err := run(t, "proportions", "--categories", "Pour,Contre,Sans opinion", "--counts", "40,45,15")
	require.NoError(t, err)
	assert.Equal(t, "Pour\t0.4\nContre\t0.45\nSans opinion\t0.15\n", out)

	_, err = run(t, "proportions", "--categories", "a,b", "--counts", "1")
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestIntervalCmd(t *testing.T) {
	out, err := run(t, "interval", "--p", "0.4", "--n", "100", "--reference", "0.39")
	require.NoError(t, err)
	assert.Equal(t, "confidence interval: [0.304, 0.496]\nreference 0.39: INSIDE\n", out)

	_, err = run(t, "interval", "--p", "0.4", "--n", "0")
	assert.ErrorIs(t, err, core.ErrDivisionByZero)
}

func TestEstimateCmd(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeTemp(t, "samples.csv", "Pour,Contre,Sans opinion\n40,45,15\n38,42,20\n42,41,17\n")

	out, err := run(t, "estimate", path, "--reference-counts", "852,911,422", "--label", "poll")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# poll\n"))
	assert.Contains(t, out, "## Reference proportions")

	_, err = run(t, "estimate", path, "--format", "yaml")
	assert.Error(t, err)

	_, err = run(t, "estimate", path, "--persist")
	assert.Error(t, err)
}

func TestDistributionCmd(t *testing.T) {
	out, err := run(t, "distribution")
	require.NoError(t, err)
	assert.Contains(t, out, "binomial\n")

	out, err = run(t, "distribution", "binomial", "--param", "n=4", "--param", "p=0.5")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "discrete"`)

	_, err = run(t, "distribution", "binomial", "--param", "n=four")
	assert.Error(t, err)
}

func TestElectionsCmd(t *testing.T) {
	path := writeTemp(t, "results.csv",
		"Libellé du département;Inscrits;Votants;Blancs;Nuls;Exprimés;Abstentions;ALICE\n"+
			"Ain;10;8;0;0;8;2;8\n")

	out, err := run(t, "elections", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"candidates": [`)
	assert.Contains(t, out, `"ALICE"`)
}

func TestBinsCmd(t *testing.T) {
	path := writeTemp(t, "islands.csv", "name,surface\nSein,0.58\nGroix,14.82\n")

	out, err := run(t, "bins", path, "--column", "surface")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "0-10\t1\n10-25\t1\n"))
}
