package musicpd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pior/musicpd/proto"
)

func pairs(kv ...string) []proto.Pair {
	var out []proto.Pair
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, proto.Pair{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{"volume", "75", int64(75), false},
		{"volume", "-1", int64(-1), false},
		{"volume", "n/a", nil, true},
		{"elapsed", "1.250", 1.25, false},
		{"duration", "abc", nil, true},
		{"repeat", "1", true, false},
		{"random", "0", false, false},
		{"outputenabled", "yes", nil, true},
		{"state", "pause", PlayStatePause, false},
		{"state", "paused", nil, true},
		{"single", "oneshot", ToggleOneshot, false},
		{"consume", "1", ToggleOn, false},
		{"consume", "2", nil, true},
		{"Track", "3/12", "3/12", false},
		{"file", "a.flac", "a.flac", false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := coerceValue(tt.key, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceField_Fallback(t *testing.T) {
	var failures []string
	got := coerceField("volume", "loud", func(key, value string, err error) {
		failures = append(failures, key+"="+value)
	})
	require.Equal(t, "loud", got)
	require.Equal(t, []string{"volume=loud"}, failures)
}

func TestNewRecord(t *testing.T) {
	r := newRecord(pairs(
		"file", "a.flac",
		"Genre", "Jazz",
		"Genre", "Blues",
		"Time", "215",
		"duration", "214.600",
	), nil)

	require.Equal(t, "a.flac", r.String("file"))
	require.Equal(t, []string{"Jazz", "Blues"}, r.Strings("Genre"))
	require.Equal(t, "Jazz", r.String("Genre"))
	require.Equal(t, []string{"a.flac"}, r.Strings("file"))
	require.Nil(t, r.Strings("Album"))
	require.Equal(t, "", r.String("Album"))

	n, ok := r.Int("Time")
	require.True(t, ok)
	require.Equal(t, int64(215), n)
	require.Equal(t, "215", r.String("Time"))

	f, ok := r.Float("duration")
	require.True(t, ok)
	require.Equal(t, 214.6, f)

	f, ok = r.Float("Time")
	require.True(t, ok)
	require.Equal(t, 215.0, f)

	_, ok = r.Int("file")
	require.False(t, ok)
	_, ok = r.Bool("file")
	require.False(t, ok)
}

func TestGroupPairs(t *testing.T) {
	tests := []struct {
		name       string
		pairs      []proto.Pair
		delimiters []string
		want       []int
	}{
		{
			name:       "empty",
			pairs:      nil,
			delimiters: songDelimiters,
			want:       nil,
		},
		{
			name:       "songs",
			pairs:      pairs("file", "a", "Title", "A", "file", "b", "Title", "B"),
			delimiters: songDelimiters,
			want:       []int{2, 2},
		},
		{
			name:       "database",
			pairs:      pairs("directory", "d", "Last-Modified", "x", "file", "a", "playlist", "p"),
			delimiters: databaseDelimiters,
			want:       []int{2, 1, 1},
		},
		{
			name:       "first key",
			pairs:      pairs("Album", "A", "Artist", "x", "Album", "B", "Artist", "y", "Artist", "z"),
			delimiters: nil,
			want:       []int{2, 3},
		},
		{
			name:       "leading pairs",
			pairs:      pairs("updating_db", "1", "file", "a"),
			delimiters: songDelimiters,
			want:       []int{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := groupPairs(tt.pairs, tt.delimiters)
			var sizes []int
			for _, g := range groups {
				sizes = append(sizes, len(g))
			}
			require.Equal(t, tt.want, sizes)
		})
	}
}

func TestDecodeResult(t *testing.T) {
	resp := &proto.Response{Pairs: pairs("sticker", "rating=5", "sticker", "played=yes=no")}
	res := decodeResult("sticker", commandTable["sticker"], resp, nil)
	require.Equal(t, map[string]string{"rating": "5", "played": "yes=no"}, res.Stickers)
	require.Empty(t, res.Objects)

	resp = &proto.Response{Pairs: pairs("file", "a.flac", "sticker", "rating=5", "file", "b.flac", "sticker", "rating=3")}
	res = decodeResult("sticker", commandTable["sticker"], resp, nil)
	require.Len(t, res.Objects, 2)
	require.Equal(t, "b.flac", res.Objects[1].String("file"))

	resp = &proto.Response{}
	res = decodeResult("getvol", commandTable["getvol"], resp, nil)
	require.Nil(t, res.Item)

	res = decodeResult("playlist", commandTable["playlist"], resp, nil)
	require.NotNil(t, res.List)
	require.Empty(t, res.List)
}

func TestToggle_String(t *testing.T) {
	require.Equal(t, "off", ToggleOff.String())
	require.Equal(t, "on", ToggleOn.String())
	require.Equal(t, "oneshot", ToggleOneshot.String())
}

func TestCommandSpec_CheckArgs(t *testing.T) {
	tests := []struct {
		cmd     proto.Command
		wantErr bool
	}{
		{proto.MustCommand("status"), false},
		{proto.MustCommand("status", 1), true},
		{proto.MustCommand("play"), false},
		{proto.MustCommand("play", 1), false},
		{proto.MustCommand("play", 1, 2), true},
		{proto.MustCommand("find"), true},
		{proto.MustCommand("find", "(a == 'b')", "sort", "Title", "window", proto.NewRange(0, 5)), false},
		{proto.MustCommand("whatever", 1, 2, 3), false},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			spec, _ := lookupCommand(tt.cmd.Name)
			err := spec.checkArgs(tt.cmd)
			if tt.wantErr {
				var encErr *proto.EncodingError
				require.ErrorAs(t, err, &encErr)
				return
			}
			require.NoError(t, err)
		})
	}

	require.True(t, IsKnownCommand("albumart"))
	require.False(t, IsKnownCommand("whatever"))
	require.Equal(t, "objects", KindObjects.String())
}
