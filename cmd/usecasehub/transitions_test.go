package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"transitions", "archived"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "terminal")
}

func TestTransitionsCommandJSON(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"transitions", "--json"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		transitionsJSON = false
	})

	require.NoError(t, rootCmd.Execute())
	var table map[string][]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &table))
	require.Equal(t, []string{"approved", "new"}, table["in_review"])
	require.Empty(t, table["archived"])
}

func TestTransitionsCommandUnknownStatus(t *testing.T) {
	rootCmd.SetArgs([]string{"transitions", "done"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.Error(t, rootCmd.Execute())
}
