package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hakote/Hakote/internal/engine"
)

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	err := printResult(&buf, &engine.Result{OK: true, Summary: engine.Summary{
		Date:      "2025-09-01",
		DayOfWeek: "Monday",
		TotalDue:  2,
		Succeeded: 2,
		NewlySent: 2,
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"date": "2025-09-01"`)
	assert.Contains(t, buf.String(), `"newly_sent": 2`)
}

func TestRunRejectsBadDate(t *testing.T) {
	rootCmd.SetArgs([]string{"run", "--date", "next-tuesday"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --date")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["run"])
	assert.True(t, names["gmail-token"])
}
