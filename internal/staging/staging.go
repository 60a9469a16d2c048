// Package staging persists a collected dataset between the scrape and load
// phases as one JSON array per record kind.
package staging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// Staging keys, one object per key.
const (
	KeyLaws           = "laws"
	KeyAuthorships    = "authorships"
	KeyVotes          = "votes"
	KeySenators       = "senators"
	KeyParties        = "parties"
	KeyLobbyists      = "lobbyists"
	KeyLobbyMeetings  = "lobby_meetings"
	KeyLobbyTrips     = "lobby_trips"
	KeyLobbyDonations = "lobby_donations"
)

const contentType = "application/json"

// entry binds a key to one field of the dataset.
type entry struct {
	key   string
	field func(d *ingest.Dataset) any
	// present reports whether the field was collected in this run.
	present func(d *ingest.Dataset) bool
}

var entries = []entry{
	{KeyLaws, func(d *ingest.Dataset) any { return &d.Laws }, func(d *ingest.Dataset) bool { return d.Laws != nil }},
	{KeyAuthorships, func(d *ingest.Dataset) any { return &d.Authorships }, func(d *ingest.Dataset) bool { return d.Authorships != nil }},
	{KeyVotes, func(d *ingest.Dataset) any { return &d.Votes }, func(d *ingest.Dataset) bool { return d.Votes != nil }},
	{KeySenators, func(d *ingest.Dataset) any { return &d.Senators }, func(d *ingest.Dataset) bool { return d.Senators != nil }},
	{KeyParties, func(d *ingest.Dataset) any { return &d.Parties }, func(d *ingest.Dataset) bool { return d.Parties != nil }},
	{KeyLobbyists, func(d *ingest.Dataset) any { return &d.Lobbyists }, func(d *ingest.Dataset) bool { return d.Lobbyists != nil }},
	{KeyLobbyMeetings, func(d *ingest.Dataset) any { return &d.LobbyMeetings }, func(d *ingest.Dataset) bool { return d.LobbyMeetings != nil }},
	{KeyLobbyTrips, func(d *ingest.Dataset) any { return &d.LobbyTrips }, func(d *ingest.Dataset) bool { return d.LobbyTrips != nil }},
	{KeyLobbyDonations, func(d *ingest.Dataset) any { return &d.LobbyDonations }, func(d *ingest.Dataset) bool { return d.LobbyDonations != nil }},
}

// Store reads and writes datasets through a blob store.
type Store struct {
	blobs  ingest.BlobStore
	prefix string
	logger *zap.Logger
}

// New creates a staging store writing under prefix.
func New(blobs ingest.BlobStore, prefix string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{blobs: blobs, prefix: prefix, logger: logger.Named("staging")}
}

// ObjectPath returns the object path of key.
func (s *Store) ObjectPath(key string) string {
	return path.Join(s.prefix, key+".json")
}

// Write replaces the object of every key collected in d (non-nil slice) and
// leaves the others untouched. It returns the keys written.
func (s *Store) Write(ctx context.Context, d ingest.Dataset) ([]string, error) {
	var written []string
	for _, e := range entries {
		if !e.present(&d) {
			continue
		}
		body, err := json.MarshalIndent(e.field(&d), "", "  ")
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", e.key, err)
		}
		uri, err := s.blobs.PutObject(ctx, s.ObjectPath(e.key), contentType, bytes.NewReader(body))
		if err != nil {
			return written, fmt.Errorf("stage %s: %w", e.key, err)
		}
		s.logger.Info("staged records", zap.String("key", e.key), zap.String("uri", uri))
		written = append(written, e.key)
	}
	return written, nil
}

// Read loads every key. Missing objects yield empty collections.
func (s *Store) Read(ctx context.Context) (ingest.Dataset, error) {
	var d ingest.Dataset
	for _, e := range entries {
		body, err := s.blobs.GetObject(ctx, s.ObjectPath(e.key))
		if errors.Is(err, ingest.ErrObjectNotFound) {
			s.logger.Debug("staging key missing", zap.String("key", e.key))
			continue
		}
		if err != nil {
			return ingest.Dataset{}, fmt.Errorf("read staged %s: %w", e.key, err)
		}
		if err := json.Unmarshal(body, e.field(&d)); err != nil {
			return ingest.Dataset{}, fmt.Errorf("decode staged %s: %w", e.key, err)
		}
	}
	return d, nil
}
