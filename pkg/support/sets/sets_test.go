// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := Make[string](10)
	assert.Len(t, s, 0)

	// Check inserting and recovery.
	s.Insert("x", "bn_scale")
	assert.Len(t, s, 2)
	assert.True(t, s.Has("x"))
	assert.True(t, s.Has("bn_scale"))
	assert.False(t, s.Has("y"))

	s2 := MakeWith("y", "bn_scale")
	assert.Len(t, s2, 2)
	assert.True(t, s2.Has("y"))
	assert.False(t, s2.Has("x"))

	s3 := s.Sub(s2)
	assert.Len(t, s3, 1)
	assert.True(t, s3.Has("x"))

	s.Remove("bn_scale", "missing")
	assert.Len(t, s, 1)
	assert.False(t, s.Has("bn_scale"))
	assert.True(t, s.Equal(s3))
	assert.False(t, s.Equal(s2))
	assert.False(t, s.Equal(MakeWith("z")))
}

func TestSorted(t *testing.T) {
	assert.Equal(t, []string{"conv2d", "pool2d", "relu"}, Sorted(MakeWith("relu", "conv2d", "pool2d")))
	assert.Empty(t, Sorted(Make[int]()))
}
