package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

type pollResponse struct {
	Poll *domain.Poll `json:"poll"`
}

type pollListResponse struct {
	Polls []*domain.Poll `json:"polls"`
}

func (app *TestApp) post(t *testing.T, path, principal string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", app.Server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+createToken(t, principal))

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func (app *TestApp) getPoll(t *testing.T, id string) *domain.Poll {
	t.Helper()
	resp, err := app.Client.Get(fmt.Sprintf("%s/api/polls/%s", app.Server.URL, id))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out pollResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Poll
}

// TestPollFlow tests the basic lifecycle: Create Poll -> Get Poll -> Vote -> Read Tallies
func TestPollFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	// Step 1: Create a Poll
	resp := app.post(t, "/api/polls", "alice", map[string]any{
		"poll_id":  "flow",
		"question": "Testing the basic flow",
		"options":  []string{"Option A", "Option B"},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Step 2: Get the Poll
	poll := app.getPoll(t, "flow")
	require.NotNil(t, poll)
	assert.Equal(t, domain.Principal("alice"), poll.Creator)
	assert.Len(t, poll.Options, 2)

	// Step 3: Cast a Vote
	resp = app.post(t, "/api/polls/flow/votes", "bob", map[string]string{"option": "Option B"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Step 4: Tallies reflect the vote
	tally, ok := app.getPoll(t, "flow").Tally("Option B")
	require.True(t, ok)
	assert.Equal(t, uint64(1), tally)
}

func TestCreatePollOptionLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	options := make([]string, 11)
	for i := range options {
		options[i] = fmt.Sprintf("Opt%d", i)
	}

	resp := app.post(t, "/api/polls", "alice", map[string]any{"poll_id": "big", "question": "?", "options": options})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, app.getPoll(t, "big"))

	resp = app.post(t, "/api/polls", "alice", map[string]any{"poll_id": "big", "question": "?", "options": options[:10]})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, app.getPoll(t, "big").Options, 10)
}

// TestListPolls checks polls come back in ascending id order
func TestListPolls(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	list := func() []*domain.Poll {
		resp, err := app.Client.Get(app.Server.URL + "/api/polls")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out pollListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out.Polls
	}

	// 1. Empty storage
	polls := list()
	require.NotNil(t, polls)
	assert.Empty(t, polls)

	// 2. Create out of order
	for _, id := range []string{"gamma", "alpha", "beta"} {
		resp := app.post(t, "/api/polls", "alice", map[string]any{"poll_id": id, "question": id, "options": []string{"A", "B"}})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// 3. Sorted by id
	polls = list()
	require.Len(t, polls, 3)
	assert.Equal(t, "alpha", polls[0].ID)
	assert.Equal(t, "beta", polls[1].ID)
	assert.Equal(t, "gamma", polls[2].ID)
}
