// Package kvstate maps the Config, Poll and Ballot tables onto a
// ports.KVStore.
package kvstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

var (
	_ ports.Store            = (*Store)(nil)
	_ ports.Tables           = (*tables)(nil)
	_ ports.ConfigRepository = configTable{}
	_ ports.PollRepository   = pollTable{}
	_ ports.BallotRepository = ballotTable{}
)

type Store struct {
	kv ports.KVStore
}

func New(kv ports.KVStore) *Store {
	return &Store{kv: kv}
}

func (s *Store) View(ctx context.Context, fn func(ports.Tables) error) error {
	return s.kv.View(ctx, func(tx ports.KVTx) error {
		return fn(&tables{tx: tx})
	})
}

func (s *Store) Update(ctx context.Context, fn func(ports.Tables) error) error {
	return s.kv.Update(ctx, func(tx ports.KVTx) error {
		return fn(&tables{tx: tx})
	})
}

type tables struct {
	tx ports.KVTx
}

func (t *tables) Config() ports.ConfigRepository  { return configTable{tx: t.tx} }
func (t *tables) Polls() ports.PollRepository     { return pollTable{tx: t.tx} }
func (t *tables) Ballots() ports.BallotRepository { return ballotTable{tx: t.tx} }

// load decodes the JSON value at key into v. It reports false when the key
// is absent.
func load(tx ports.KVReader, key []byte, v any) (bool, error) {
	b, err := tx.Get(key)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

func save(tx ports.KVWriter, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return tx.Put(key, b)
}

type configTable struct {
	tx ports.KVTx
}

func (c configTable) Get() (*domain.Config, error) {
	var cfg domain.Config
	ok, err := load(c.tx, configKey, &cfg)
	if err != nil || !ok {
		return nil, err
	}
	return &cfg, nil
}

func (c configTable) Save(cfg *domain.Config) error {
	return save(c.tx, configKey, cfg)
}

// pollRecord is the stored form of a poll; the id lives in the key.
type pollRecord struct {
	Creator  domain.Principal `json:"creator"`
	Question string           `json:"question"`
	Options  []domain.Option  `json:"options"`
}

func (r pollRecord) poll(id string) *domain.Poll {
	return &domain.Poll{
		ID:       id,
		Creator:  r.Creator,
		Question: r.Question,
		Options:  r.Options,
	}
}

type pollTable struct {
	tx ports.KVTx
}

func (p pollTable) Get(id string) (*domain.Poll, error) {
	var rec pollRecord
	ok, err := load(p.tx, pollKey(id), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return rec.poll(id), nil
}

func (p pollTable) Save(poll *domain.Poll) error {
	if poll.ID == "" {
		return domain.ErrEmptyPollID
	}
	return save(p.tx, pollKey(poll.ID), pollRecord{
		Creator:  poll.Creator,
		Question: poll.Question,
		Options:  poll.Options,
	})
}

func (p pollTable) List() ([]*domain.Poll, error) {
	it := p.tx.NewIterator(pollPrefix)
	defer it.Release()

	polls := []*domain.Poll{}
	for it.Next() {
		id, err := parsePollKey(it.Key())
		if err != nil {
			return nil, err
		}
		var rec pollRecord
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode poll %q: %w", id, err)
		}
		polls = append(polls, rec.poll(id))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, nil
}

type ballotTable struct {
	tx ports.KVTx
}

func (b ballotTable) Get(voter domain.Principal, pollID string) (*domain.Ballot, error) {
	var ballot domain.Ballot
	ok, err := load(b.tx, ballotKey(voter, pollID), &ballot)
	if err != nil || !ok {
		return nil, err
	}
	return &ballot, nil
}

func (b ballotTable) Save(voter domain.Principal, pollID string, ballot *domain.Ballot) error {
	return save(b.tx, ballotKey(voter, pollID), ballot)
}

func (b ballotTable) ForEach(fn func(domain.Principal, string, *domain.Ballot) error) error {
	it := b.tx.NewIterator(ballotPrefix)
	defer it.Release()

	for it.Next() {
		voter, pollID, err := parseBallotKey(it.Key())
		if err != nil {
			return err
		}
		var ballot domain.Ballot
		if err := json.Unmarshal(it.Value(), &ballot); err != nil {
			return fmt.Errorf("failed to decode ballot of %s on %q: %w", voter, pollID, err)
		}
		if err := fn(voter, pollID, &ballot); err != nil {
			return err
		}
	}
	if err := it.Error(); err != nil {
		return fmt.Errorf("error iterating ballots: %w", err)
	}
	return nil
}
