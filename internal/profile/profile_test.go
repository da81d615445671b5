// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package profile

import (
	"testing"

	"github.com/matt-FFFFFF/dmsbatch/internal/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	p, err := Lookup("bcsubamp")
	require.NoError(t, err)
	assert.Same(t, BCSubamp, p)

	_, err = Lookup("fracsurvive")
	require.ErrorIs(t, err, ErrUnknownProfile)
}

func TestBCSubamp(t *testing.T) {
	assert.Equal(t, "dms2_bcsubamp", BCSubamp.Program)
	assert.Equal(t, []string{"name", "R1"}, BCSubamp.RequiredColumns())

	k, ok := BCSubamp.Kind(KindReadsPerBC)
	require.True(t, ok)
	assert.Equal(t, "_readsperbc.csv", k.Suffix)
	assert.Len(t, BCSubamp.OutputKinds(), 4)

	s := BCSubamp.Schema()

	for _, name := range []string{OptNCPUs, OptSummaryPrefix, OptBatchFile} {
		opt, ok := s.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, options.Fixed, opt.Category, name)
	}

	opt, ok := s.Lookup(OptOutDir)
	require.True(t, ok)
	assert.Equal(t, options.GlobalOnly, opt.Category)

	opt, ok = s.Lookup("bcinfo")
	require.True(t, ok)
	assert.Equal(t, options.PresenceFlag, opt.Kind)

	opt, ok = s.Lookup("R1trim")
	require.True(t, ok)
	assert.Equal(t, options.List, opt.Kind)
	assert.Equal(t, options.TypeInt, opt.Type)

	// the primary input is a batch column, never an option
	_, ok = s.Lookup(BCSubamp.PrimaryInput)
	assert.False(t, ok)
}

func TestOutputKindsIsACopy(t *testing.T) {
	kinds := BCSubamp.OutputKinds()
	kinds[0].Suffix = "changed"

	k, _ := BCSubamp.Kind(KindCodonCounts)
	assert.Equal(t, "_codoncounts.csv", k.Suffix)
}
