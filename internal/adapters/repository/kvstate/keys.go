package kvstate

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

/*
 * KV layout
 * |-- config -> Config JSON
 * |-. polls/
 * | '-- poll_id -> Poll JSON
 * '-. ballots/
 *   '-- uvarint(len(voter)) + voter + poll_id -> Ballot JSON
 *
 * The voter is length prefixed so that (voter, poll_id) pairs can never
 * collide however the two strings are split.
 */

var (
	configKey    = []byte("config")
	pollPrefix   = []byte("polls/")
	ballotPrefix = []byte("ballots/")
)

func flatten(parts ...[]byte) []byte {
	return slices.Concat(parts...)
}

func pollKey(id string) []byte {
	return flatten(pollPrefix, []byte(id))
}

func ballotKey(voter domain.Principal, pollID string) []byte {
	return flatten(ballotPrefix, binary.AppendUvarint(nil, uint64(len(voter))), []byte(voter), []byte(pollID))
}

func parsePollKey(key []byte) (string, error) {
	if len(key) < len(pollPrefix) {
		return "", fmt.Errorf("poll key %q is too short", key)
	}
	return string(key[len(pollPrefix):]), nil
}

func parseBallotKey(key []byte) (domain.Principal, string, error) {
	if len(key) < len(ballotPrefix) {
		return "", "", fmt.Errorf("ballot key %q is too short", key)
	}
	rest := key[len(ballotPrefix):]
	n, read := binary.Uvarint(rest)
	if read <= 0 || uint64(len(rest)-read) < n {
		return "", "", fmt.Errorf("ballot key %q has a malformed voter length", key)
	}
	rest = rest[read:]
	return domain.Principal(rest[:n]), string(rest[n:]), nil
}
