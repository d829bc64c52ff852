package kvstate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

func TestBallotKeyRoundTrip(t *testing.T) {
	tests := []struct {
		voter  domain.Principal
		pollID string
	}{
		{"addr1", "p1"},
		{"addr1p", "1"},
		{"abc", ""},
		{"voter.with-separators_1", "poll/with/slashes"},
	}
	for _, tt := range tests {
		voter, pollID, err := parseBallotKey(ballotKey(tt.voter, tt.pollID))
		require.NoError(t, err)
		assert.Equal(t, tt.voter, voter)
		assert.Equal(t, tt.pollID, pollID)
	}
}

func TestBallotKeysDoNotCollide(t *testing.T) {
	// Plain concatenation would map both pairs to "addr1p1".
	a := ballotKey("addr1", "p1")
	b := ballotKey("addr1p", "1")
	assert.False(t, bytes.Equal(a, b))
}

func TestParseBallotKeyMalformed(t *testing.T) {
	_, _, err := parseBallotKey([]byte("ballots/\x09abc"))
	require.Error(t, err)

	_, _, err = parseBallotKey([]byte("bal"))
	require.Error(t, err)
}

func TestPollKeysArePrefixed(t *testing.T) {
	assert.True(t, bytes.HasPrefix(pollKey("p1"), pollPrefix))
	id, err := parsePollKey(pollKey("p1"))
	require.NoError(t, err)
	assert.Equal(t, "p1", id)
}
