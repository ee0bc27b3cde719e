// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package version_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/starsign/app/version"
)

func TestGitCommit(t *testing.T) {
	hash, timestamp := version.GitCommit()
	require.NotEmpty(t, hash)
	require.NotEmpty(t, timestamp)
	require.NotEqual(t, "unknown", version.Version)
}
