package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestampDecodesRFC3339(t *testing.T) {
	var ts Timestamp
	err := json.Unmarshal([]byte(`"2024-06-01T10:30:00Z"`), &ts)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), ts.Time)
}

func TestTimestampDecodesSecondsNanosPair(t *testing.T) {
	var ts Timestamp
	err := json.Unmarshal([]byte(`{"seconds": 1717237800, "nanoseconds": 500000000}`), &ts)
	assert.NoError(t, err)
	assert.Equal(t, time.Unix(1717237800, 500000000).UTC(), ts.Time)
}

func TestTimestampDecodesEpochMillis(t *testing.T) {
	var ts Timestamp
	err := json.Unmarshal([]byte(`1717237800000`), &ts)
	assert.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1717237800000).UTC(), ts.Time)
}

func TestTimestampDecodesNull(t *testing.T) {
	var ts Timestamp
	err := json.Unmarshal([]byte(`null`), &ts)
	assert.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"not a time"`), &ts))
}

func TestTimestampEncodesCanonically(t *testing.T) {
	ts := At(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	assert.NoError(t, err)
	assert.Equal(t, `"2024-06-01T10:30:00Z"`, string(data))

	var back Timestamp
	assert.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(ts.Time))
}

func TestTimestampZeroEncodesAsNull(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	assert.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
