package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_UnixMethods(t *testing.T) {
	// Create a fixed time
	// 创建一个固定时间
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tt := Time(now)

	assert.Equal(t, now.Unix(), tt.Unix())
	assert.Equal(t, now.UnixMilli(), tt.UnixMilli())
	assert.Equal(t, now.UnixMicro(), tt.UnixMicro())
	assert.Equal(t, now.UnixNano(), tt.UnixNano())
}

func TestNowIsMillisecondPrecision(t *testing.T) {
	n := Now()
	assert.Equal(t, int64(0), n.UnixNano()%int64(time.Millisecond))
}

func TestJSON(t *testing.T) {
	tt := Time(time.Date(2024, 1, 1, 12, 0, 0, 5_000_000, time.UTC))

	data, err := json.Marshal(tt)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-01T12:00:00.005Z"`, string(data))

	var back Time
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(tt))

	require.NoError(t, json.Unmarshal([]byte(`1704110400005`), &back))
	assert.True(t, back.Equal(tt))

	data, err = json.Marshal(Time{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestScan(t *testing.T) {
	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	var tt Time
	require.NoError(t, tt.Scan(want))
	assert.True(t, tt.Time().Equal(want))

	require.NoError(t, tt.Scan("2024-01-01 12:00:00"))
	assert.True(t, tt.Time().Equal(want))

	require.NoError(t, tt.Scan([]byte("2024-01-01T12:00:00Z")))
	assert.True(t, tt.Time().Equal(want))

	require.NoError(t, tt.Scan(nil))
	assert.True(t, tt.IsZero())

	assert.Error(t, tt.Scan(3.14))

	v, err := Time(want).Value()
	require.NoError(t, err)
	assert.Equal(t, want, v)
}
