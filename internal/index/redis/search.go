package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
)

// Query runs a KNN vector similarity search via FT.SEARCH. A missing or empty
// collection yields an empty result set, not an error.
func (s *Store) Query(
	ctx context.Context, collection string, vector []float32, topK int,
) ([]index.Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query %s: vector is required", collection)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("query %s: topK must be positive", collection)
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @__vector $BLOB AS __vector_score]", topK)
	args := []string{
		s.indexName(collection), queryStr,
		"SORTBY", "__vector_score",
		"LIMIT", "0", strconv.Itoa(topK),
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndexErr(err) {
			return nil, nil
		}
		return nil, wrapUnavailable("query "+collection, err)
	}

	return s.parseKNNResult(raw, collection)
}

// parseKNNResult converts the RESP2 reply into matches. Reply layout is
// 2-stride: [total, key1, fields1, key2, fields2, ...].
func (s *Store) parseKNNResult(raw []rueidis.RedisMessage, collection string) ([]index.Match, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	prefix := s.keyPrefix + collection + ":"
	matches := make([]index.Match, 0, total)

	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldArr)

		m := index.Match{
			ID:       strings.TrimPrefix(key, prefix),
			Text:     fields["__content"],
			Metadata: metadataFromFields(fields),
		}
		if distStr, ok := fields["__vector_score"]; ok {
			if d, err := strconv.ParseFloat(distStr, 64); err == nil {
				m.Distance = d
				m.Score = math.Max(0, 1.0-d) // cosine distance → similarity, clamped to [0,1]
			}
		}
		matches = append(matches, m)
	}

	return matches, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func metadataFromFields(fields map[string]string) index.Metadata {
	atoi := func(k string) int {
		v, _ := strconv.Atoi(fields[k])
		return v
	}
	return index.Metadata{
		DocName:     fields["doc_name"],
		PageNum:     atoi("page_num"),
		ChunkIndex:  atoi("chunk_index"),
		WordCount:   atoi("word_count"),
		TokenCount:  atoi("token_count"),
		ContentType: domain.ContentType(fields["content_type"]),
		HasImages:   fields["has_images"] == "true",
		ImageCount:  atoi("image_count"),
	}
}

// vectorToBytes serializes []float32 into the little-endian binary blob the
// vector field expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
