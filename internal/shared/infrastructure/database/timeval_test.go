package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeArg(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 800, time.FixedZone("X", 3600))

	assert.Equal(t, "2025-03-04T04:06:07.000000800Z", TimeArg(DriverSQLite, ts))
	assert.Equal(t, ts.UTC(), TimeArg(DriverPostgres, ts))
	assert.Nil(t, NullTimeArg(DriverSQLite, nil))
}

func TestTimeArg_SQLiteOrdersLexically(t *testing.T) {
	early := TimeArg(DriverSQLite, time.Date(2025, 1, 1, 0, 0, 5, 500_000_000, time.UTC)).(string)
	late := TimeArg(DriverSQLite, time.Date(2025, 1, 1, 0, 0, 5, 450_000_000, time.UTC).Add(time.Second)).(string)
	assert.Less(t, early, late)
}

func TestNullTime_Scan(t *testing.T) {
	want := time.Date(2025, 3, 4, 4, 6, 7, 800, time.UTC)

	for _, src := range []any{
		want,
		"2025-03-04T04:06:07.000000800Z",
		[]byte("2025-03-04T05:06:07.0000008+01:00"),
		"2025-03-04 04:06:07.0000008+00:00",
	} {
		var nt NullTime
		require.NoError(t, nt.Scan(src))
		assert.True(t, nt.Valid)
		assert.True(t, want.Equal(nt.Time), "%v", src)
		require.NotNil(t, nt.Ptr())
	}

	var nt NullTime
	require.NoError(t, nt.Scan(nil))
	assert.False(t, nt.Valid)
	assert.Nil(t, nt.Ptr())

	assert.Error(t, nt.Scan(42))
	assert.Error(t, nt.Scan("yesterday"))
}
