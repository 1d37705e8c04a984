package pagedb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtentListRoundTrip(t *testing.T) {
	list := []Extent{newExtent(2, 1), newExtent(10, 64), newExtent(1 << 40, 3)}
	buf, err := encodeExtentList(list, 1, 512)
	require.NoError(t, err)
	require.Len(t, buf, 512)

	list2, err := decodeExtentList(buf)
	require.NoError(t, err)
	require.Equal(t, list, list2)

	buf, err = encodeExtentList(nil, 1, 512)
	require.NoError(t, err)
	list2, err = decodeExtentList(buf)
	require.NoError(t, err)
	require.Empty(t, list2)
}

func TestExtentListExceedsMax(t *testing.T) {
	// 512 bytes hold the header plus 31 extents
	list := make([]Extent, 32)
	for i := range list {
		list[i] = newExtent(uint64(i+1), 1)
	}
	_, err := encodeExtentList(list, 1, 512)
	require.ErrorIs(t, err, ErrFormat)

	buf, err := encodeExtentList(list[:31], 1, 512)
	require.NoError(t, err)
	got, err := decodeExtentList(buf)
	require.NoError(t, err)
	require.Equal(t, list[:31], got)

	buf, err = encodeExtentList(list, 2, 512)
	require.NoError(t, err)
	require.Len(t, buf, 1024)
	require.Equal(t, uint32(2), extentListPages(len(list), 512))
}

func TestExtentListInvalid(t *testing.T) {
	good, err := encodeExtentList([]Extent{newExtent(5, 1)}, 1, 512)
	require.NoError(t, err)

	corrupt := func(e Extent, at int) []byte {
		buf := append([]byte{}, good...)
		copy(buf[at*extentSize:], e.appendTo(nil))
		return buf
	}
	cases := map[string][]byte{
		"hdr page":      corrupt(Extent{Page: 1, Len: 2, Flags: efMBO | efHDR}, 0),
		"hdr no hdr":    corrupt(Extent{Len: 2, Flags: efMBO}, 0),
		"hdr no mbo":    corrupt(Extent{Len: 2, Flags: efHDR}, 0),
		"hdr mbz":       corrupt(Extent{Len: 2, Flags: efMBO | efMBZ | efHDR}, 0),
		"zero page":     corrupt(Extent{Len: 1, Flags: efMBO}, 1),
		"data no mbo":   corrupt(Extent{Page: 5, Len: 1}, 1),
		"data mbz":      corrupt(Extent{Page: 5, Len: 1, Flags: efMBO | efMBZ}, 1),
		"data with hdr": corrupt(Extent{Page: 5, Len: 1, Flags: efMBO | efHDR}, 1),
		"count":         corrupt(Extent{Len: 40, Flags: efMBO | efHDR}, 0),
		"huge count":    corrupt(Extent{Len: 0xFFFFFFFF, Flags: efMBO | efHDR}, 0),
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeExtentList(buf)
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestExtentNull(t *testing.T) {
	require.True(t, nullExtent().isNull())
	require.False(t, nullExtent().valid())
	require.False(t, newExtent(1, 1).isNull())
	require.True(t, newExtent(1, 1).valid())
	require.False(t, newExtent(1, 0).valid())
	require.Equal(t, uint64(11), newExtent(1, 10).end())
}
