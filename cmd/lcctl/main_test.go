package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bridgewatch/lightclient/errs"
)

// TestOpenEngineRejectsEmptyStore confirms the ordinary operator action of
// running lcctl against a store no header was ever advanced into returns a
// typed error instead of panicking while indexing into empty state.
func TestOpenEngineRejectsEmptyStore(t *testing.T) {
	storePath = t.TempDir()
	chainName = "bridgewatch-1"

	_, _, err := openEngine()
	require.Error(t, err)
	require.IsType(t, errs.StoreEmpty{}, err)
}
