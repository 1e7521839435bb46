package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1024 KiB", 1048576},
		{"1 KiB", 1024},
		{"1 MiB", 1048576},
		{"1 GiB", 1073741824},
		{"1 TiB", 1099511627776},
		{"1.5 GiB", 1610612736},
		{"1 kB", 1000},
		{"1 KB", 1000},
		{"700 MB", 700000000},
		{"2 GB", 2000000000},
		{"1 TB", 1000000000000},
		{"512 Bytes", 512},
		{"512 B", 512},
		{"  3 MiB  ", 3145728},
		{"1,024 KiB", 1048576},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSize(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize_Unparseable(t *testing.T) {
	for _, input := range []string{"", "N/A", "-5 MB", "big"} {
		got, ok := ParseSize(input)
		assert.False(t, ok, input)
		assert.Equal(t, int64(0), got, input)
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"just now", now},
		{"30 seconds ago", now.Add(-30 * time.Second)},
		{"a minute ago", now.Add(-time.Minute)},
		{"2 hours ago", now.Add(-2 * time.Hour)},
		{"an hour ago", now.Add(-time.Hour)},
		{"3 days ago", now.AddDate(0, 0, -3)},
		{"1 week ago", now.AddDate(0, 0, -7)},
		{"2 months ago", now.AddDate(0, -2, 0)},
		{"yesterday", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"1700000000", time.Unix(1700000000, 0).UTC()},
		{"2023-11-14 22:13", time.Date(2023, 11, 14, 22, 13, 0, 0, time.UTC)},
		{"Tue, 14 Nov 2023 22:13:20 -0000", time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)},
		{"2023-11-14T22:13:20Z", time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ResolveDate(tt.input, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}

	for _, bad := range []string{"", "sometime last spring", "14/11/2023"} {
		_, err := ResolveDate(bad, now)
		assert.Error(t, err, bad)
	}
}

func TestMagnetHelpers(t *testing.T) {
	magnet, err := MagnetFromHash("0123456789ABCDEF0123456789ABCDEF01234567", "Show")
	require.NoError(t, err)

	hash, ok := MagnetInfoHash(magnet)
	require.True(t, ok)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", hash)

	_, err = MagnetFromHash("nothex", "Show")
	assert.Error(t, err)

	_, ok = MagnetInfoHash("https://example.com/file.torrent")
	assert.False(t, ok)
}
