package importer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Format is a dataset export encoding.
type Format string

const (
	FormatNDJSON Format = "ndjson"
	FormatJSON   Format = "json"
	FormatBSON   Format = "bson"
)

// DetectFormat infers the format from a file name.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON, nil
	case ".json":
		return FormatJSON, nil
	case ".bson":
		return FormatBSON, nil
	}
	return "", fmt.Errorf("unsupported dataset file %q", filename)
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatNDJSON, FormatJSON, FormatBSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported dataset format %q", s)
}

type rawDoc = map[string]interface{}

func decode(r io.Reader, format Format) ([]rawDoc, error) {
	switch format {
	case FormatNDJSON:
		return decodeNDJSON(r)
	case FormatJSON:
		var docs []rawDoc
		if err := json.NewDecoder(r).Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
		return docs, nil
	case FormatBSON:
		payload, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeBSONRows(payload)
	}
	return nil, fmt.Errorf("unsupported dataset format %q", format)
}

func decodeNDJSON(r io.Reader) ([]rawDoc, error) {
	var docs []rawDoc
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var doc rawDoc
		if err := json.Unmarshal(text, &doc); err != nil {
			return nil, fmt.Errorf("decode ndjson line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ndjson dataset: %w", err)
	}
	return docs, nil
}

// decodeBSONRows splits concatenated length-prefixed BSON documents.
func decodeBSONRows(payload []byte) ([]rawDoc, error) {
	rows := make([]rawDoc, 0)
	cursor := 0
	for cursor < len(payload) {
		if cursor+4 > len(payload) {
			return nil, fmt.Errorf("invalid bson payload")
		}
		docLen := int(int32(binary.LittleEndian.Uint32(payload[cursor : cursor+4])))
		if docLen <= 0 || cursor+docLen > len(payload) {
			return nil, fmt.Errorf("invalid bson document length at offset %d", cursor)
		}
		var row bson.M
		if err := bson.Unmarshal(payload[cursor:cursor+docLen], &row); err != nil {
			return nil, fmt.Errorf("decode bson document at offset %d: %w", cursor, err)
		}
		rows = append(rows, normalizeBSONValue(row).(rawDoc))
		cursor += docLen
	}
	return rows, nil
}

// normalizeBSONValue maps BSON specific values onto JSON compatible ones.
func normalizeBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.Null, primitive.Undefined:
		return nil
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0).UTC().Format(time.RFC3339Nano)
	case primitive.Decimal128:
		return v.String()
	case primitive.Binary:
		return string(v.Data)
	case primitive.M:
		out := make(rawDoc, len(v))
		for key, item := range v {
			out[key] = normalizeBSONValue(item)
		}
		return out
	case primitive.D:
		out := make(rawDoc, len(v))
		for _, item := range v {
			out[item.Key] = normalizeBSONValue(item.Value)
		}
		return out
	case primitive.A:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			out = append(out, normalizeBSONValue(item))
		}
		return out
	case map[string]interface{}:
		out := make(rawDoc, len(v))
		for key, item := range v {
			out[key] = normalizeBSONValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			out = append(out, normalizeBSONValue(item))
		}
		return out
	default:
		return value
	}
}

// normalizeDocument flattens export-specific shapes onto the stored model
// shape: slug objects become their current value and top-level references
// become the referenced id. Nested references are kept.
func normalizeDocument(doc rawDoc) rawDoc {
	out := make(rawDoc, len(doc))
	for key, value := range doc {
		m, ok := value.(map[string]interface{})
		if !ok {
			out[key] = value
			continue
		}
		if current, ok := m["current"].(string); ok && (m["_type"] == "slug" || len(m) <= 2) {
			out[key] = current
			continue
		}
		if ref, ok := m["_ref"].(string); ok {
			out[key] = ref
			continue
		}
		out[key] = value
	}
	return out
}
