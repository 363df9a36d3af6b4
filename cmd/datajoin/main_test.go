package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.txt", "a\nb\nc\n")

	t.Run("reports the end on the last step", func(t *testing.T) {
		out, err := execute(t, "scan", data)
		require.NoError(t, err)
		assert.Equal(t, "steps=3 elements=3 ended=true\n", out)
	})

	t.Run("batches", func(t *testing.T) {
		out, err := execute(t, "scan", "--batch-size", "2", data)
		require.NoError(t, err)
		assert.Equal(t, "steps=2 elements=3 ended=true\n", out)
	})

	t.Run("repeats epochs", func(t *testing.T) {
		out, err := execute(t, "scan", "--epochs", "2", "--shuffle-buffer", "2", "--seed", "7", data)
		require.NoError(t, err)
		assert.Equal(t, "steps=6 elements=6 ended=true\n", out)
	})

	t.Run("empty file never ends", func(t *testing.T) {
		empty := writeFile(t, dir, "empty.txt", "")

		out, err := execute(t, "scan", empty)
		require.NoError(t, err)
		assert.Equal(t, "steps=0 elements=0 ended=false\n", out)
	})

	t.Run("filters csv rows", func(t *testing.T) {
		rows := writeFile(t, dir, "rows.csv", "label,x\n1,a\n0,b\n1,c\n")

		out, err := execute(t, "scan", "--format", "csv", "--header", "--filter", `fields[0] == "1"`, rows)
		require.NoError(t, err)
		assert.Equal(t, "steps=2 elements=2 ended=true\n", out)
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		_, err := execute(t, "scan", "--format", "parquet", data)
		assert.Error(t, err)
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := execute(t, "scan", filepath.Join(dir, "missing.txt"))
		assert.Error(t, err)
	})
}

func TestScan_Rebatch(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.txt", "1\n2\n3\n4\n5\n")

	t.Run("regroups batches", func(t *testing.T) {
		// batches of 2, 2 and 1 rows become 3 and 2
		out, err := execute(t, "scan", "--batch-size", "2", "--rebatch-size", "3", data)
		require.NoError(t, err)
		assert.Equal(t, "steps=2 elements=5 ended=true\n", out)
	})

	t.Run("drops the short remainder", func(t *testing.T) {
		out, err := execute(t, "scan", "--batch-size", "2", "--rebatch-size", "3", "--drop-remainder", data)
		require.NoError(t, err)
		assert.Equal(t, "steps=1 elements=3 ended=true\n", out)
	})

	t.Run("needs batching", func(t *testing.T) {
		_, err := execute(t, "scan", "--rebatch-size", "3", data)
		assert.Error(t, err)
	})

	t.Run("rejects a min size above the rebatch size", func(t *testing.T) {
		_, err := execute(t, "scan", "--batch-size", "2", "--rebatch-size", "3", "--min-batch-size", "4", data)
		assert.Error(t, err)
	})
}

func TestScan_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.jsonl", "{\"id\": 1}\n{\"id\": 2}\n{\"id\": 3}\n{\"id\": 4}\n")
	cfg := writeFile(t, dir, "datajoin.yaml", "input:\n  format: jsonl\ndataset:\n  batch_size: 3\n")

	out, err := execute(t, "--config", cfg, "scan", data)
	require.NoError(t, err)
	assert.Equal(t, "steps=2 elements=4 ended=true\n", out)

	// flags win over the file
	out, err = execute(t, "--config", cfg, "scan", "--batch-size", "4", data)
	require.NoError(t, err)
	assert.Equal(t, "steps=1 elements=4 ended=true\n", out)
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.txt", "1\n2\n3\n4\n5\n")
	metricsFile := filepath.Join(dir, "datajoin.prom")

	out, err := execute(t, "simulate", "--workers", "3", "--metrics-file", metricsFile, data)
	require.NoError(t, err)

	assert.Equal(t,
		"rank=0 elements=2 idle_steps=0 steps=2\n"+
			"rank=1 elements=2 idle_steps=0 steps=2\n"+
			"rank=2 elements=1 idle_steps=1 steps=2\n",
		out)

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `datajoin_idle_steps_total{worker="2"} 1`)
	assert.Contains(t, string(content), `datajoin_steps_total{worker="0"} 2`)
}

func TestSimulate_Batches(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.txt", "1\n2\n3\n4\n5\n6\n7\n")

	out, err := execute(t, "simulate", "--workers", "2", "--batch-size", "2", data)
	require.NoError(t, err)

	// shards of 4 and 3 lines give 2 batches each
	assert.Equal(t,
		"rank=0 elements=2 idle_steps=0 steps=2\n"+
			"rank=1 elements=2 idle_steps=0 steps=2\n",
		out)
}

func TestSimulate_Rebatch(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.txt", "1\n2\n3\n4\n5\n6\n7\n8\n")

	out, err := execute(t, "simulate", "--workers", "2", "--batch-size", "1", "--rebatch-size", "2", data)
	require.NoError(t, err)

	// 4 rows per shard regroup into 2 batches of 2
	assert.Equal(t,
		"rank=0 elements=2 idle_steps=0 steps=2\n"+
			"rank=1 elements=2 idle_steps=0 steps=2\n",
		out)
}
