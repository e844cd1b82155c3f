// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestReplyBuffer allows the plain fallback so tests pass on hosts
// with a restrictive mlock limit.
func newTestReplyBuffer(t *testing.T) *ReplyBuffer {
	t.Helper()
	t.Setenv("HAVEN_INSECURE_MEMORY", "true")
	buf, err := NewReplyBuffer()
	require.NoError(t, err)
	return buf
}

func TestReplyBuffer_AssemblesFragmentsInOrder(t *testing.T) {
	buf := newTestReplyBuffer(t)
	defer buf.Destroy()

	for _, fragment := range []string{"That sounds ", "really hard. ", "I'm here."} {
		require.NoError(t, buf.Append(fragment))
	}

	assert.Equal(t, "That sounds really hard. I'm here.", buf.String())
}

func TestReplyBuffer_DestroyIsIdempotentAndWipes(t *testing.T) {
	buf := newTestReplyBuffer(t)
	require.NoError(t, buf.Append("sensitive"))

	buf.Destroy()
	buf.Destroy()

	assert.Empty(t, buf.String())
	assert.Error(t, buf.Append("more"), "append after destroy must fail")
}

func TestReplyBuffer_RejectsOverflow(t *testing.T) {
	buf := newTestReplyBuffer(t)
	defer buf.Destroy()

	require.NoError(t, buf.Append(strings.Repeat("a", replyBufferSize)))

	err := buf.Append("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflow")
}
