package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Timestamp is the single wire representation for message and presence times.
// Historic documents carry a {seconds, nanoseconds} pair, other writers emit
// RFC 3339 strings, and the document store itself holds native datetimes.
// All three decode into the same value; encoding is always canonical.
type Timestamp struct {
	time.Time
}

// Now returns the current time as a Timestamp, truncated to millisecond
// precision so a round trip through the document store compares equal.
func Now() Timestamp {
	return Timestamp{time.Now().UTC().Truncate(time.Millisecond)}
}

// At wraps an existing time.Time.
func At(t time.Time) Timestamp {
	return Timestamp{t.UTC()}
}

// secondsNanos is the legacy pair shape observed in stored documents.
type secondsNanos struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	// RFC 3339 string
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp string %q: %w", s, err)
		}
		t.Time = parsed.UTC()
		return nil
	}

	// Legacy {seconds, nanoseconds} pair
	var pair secondsNanos
	if err := json.Unmarshal(data, &pair); err == nil && (pair.Seconds != 0 || pair.Nanoseconds != 0) {
		t.Time = time.Unix(pair.Seconds, pair.Nanoseconds).UTC()
		return nil
	}

	// Epoch milliseconds
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	return fmt.Errorf("unrecognized timestamp encoding: %s", string(data))
}

func (t Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.Time)
}

func (t *Timestamp) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	var tm time.Time
	if err := bson.UnmarshalValue(bt, data, &tm); err != nil {
		return fmt.Errorf("failed to decode timestamp: %w", err)
	}
	t.Time = tm.UTC()
	return nil
}
