package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
)

// ensureIndex creates the FT index for a collection if it does not exist.
// Creation is idempotent: a concurrent first writer losing the race sees
// "index already exists" and proceeds (get-or-create semantics).
func (s *Store) ensureIndex(ctx context.Context, collection string, dim int) error {
	args := []string{
		s.indexName(collection),
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix + collection + ":",
		"SCHEMA",
		"__content", "TEXT",
		"doc_name", "TAG",
		"page_num", "NUMERIC",
		"chunk_index", "NUMERIC",
		"word_count", "NUMERIC",
		"token_count", "NUMERIC",
		"content_type", "TAG",
		"has_images", "TAG",
		"image_count", "NUMERIC",
		"__vector", "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dim),
		"DISTANCE_METRIC", "COSINE",
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return wrapUnavailable("create index "+collection, err)
	}
	return nil
}

// Add stores entries in the named collection, creating its index on first
// write. Ids repeated within the batch are rejected; re-adding an id from an
// earlier batch overwrites the old record (HSET last-write-wins).
func (s *Store) Add(ctx context.Context, collection string, entries []index.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := index.ValidateBatch(entries); err != nil {
		return err
	}

	dim := s.vectorDim
	if dim <= 0 {
		dim = len(entries[0].Vector)
	}
	if err := s.ensureIndex(ctx, collection, dim); err != nil {
		return err
	}

	for i := range entries {
		e := &entries[i]
		if len(e.Vector) != dim {
			return fmt.Errorf("add %s: entry %s has vector dim %d, index expects %d",
				collection, e.ID, len(e.Vector), dim)
		}

		cmd := s.b().Hset().Key(s.entryKey(collection, e.ID)).FieldValue().
			FieldValue("__content", e.Text).
			FieldValue("__vector", vectorToBytes(e.Vector)).
			FieldValue("doc_name", e.Metadata.DocName).
			FieldValue("page_num", strconv.Itoa(e.Metadata.PageNum)).
			FieldValue("chunk_index", strconv.Itoa(e.Metadata.ChunkIndex)).
			FieldValue("word_count", strconv.Itoa(e.Metadata.WordCount)).
			FieldValue("token_count", strconv.Itoa(e.Metadata.TokenCount)).
			FieldValue("content_type", string(e.Metadata.ContentType)).
			FieldValue("has_images", strconv.FormatBool(e.Metadata.HasImages)).
			FieldValue("image_count", strconv.Itoa(e.Metadata.ImageCount)).
			Build()
		if err := s.do(ctx, cmd).Error(); err != nil {
			return wrapUnavailable(fmt.Sprintf("add %s entry %s", collection, e.ID), err)
		}
	}

	// Track the collection name for ListCollections.
	sadd := s.b().Sadd().Key(s.registryKey()).Member(collection).Build()
	if err := s.do(ctx, sadd).Error(); err != nil {
		return wrapUnavailable("register collection "+collection, err)
	}
	return nil
}

// ListCollections names every collection that has received at least one write.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	cmd := s.b().Smembers().Key(s.registryKey()).Build()
	names, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, wrapUnavailable("list collections", err)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteCollection drops the FT index and its records. Deleting a nonexistent
// collection reports not-found, not a transport error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	// DD also deletes the indexed hashes.
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(s.indexName(name), "DD").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isMissingIndexErr(err) {
			return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		return wrapUnavailable("drop collection "+name, err)
	}

	srem := s.b().Srem().Key(s.registryKey()).Member(name).Build()
	if err := s.do(ctx, srem).Error(); err != nil {
		return wrapUnavailable("unregister collection "+name, err)
	}
	return nil
}

// Count returns the record count of a collection; zero when it does not exist.
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(s.indexName(name), "*", "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndexErr(err) {
			return 0, nil
		}
		return 0, wrapUnavailable("count "+name, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}
