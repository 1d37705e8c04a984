package pagedb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDir() *Dir {
	return &Dir{Ents: []DirEntry{
		newKeyValueEntry([]byte("apple"), []byte("red")),
		newKeyEntry([]byte("banana"), 7, 2048),
		newDirEntry([]byte("cherry"), []byte("fig"), 8),
		newKeyValueEntry([]byte("grape"), []byte{}),
		newDirEntry([]byte("kiwi"), []byte("kiwi"), 9),
		newKeyValueEntry([]byte("lemon"), []byte("sour")),
	}}
}

func TestDirRoundTrip(t *testing.T) {
	d := testDir()
	buf := d.encode()
	got, err := decodeDir(buf)
	require.NoError(t, err)
	require.Equal(t, d, got)

	// trailing page padding is ignored
	got, err = decodeDir(padToPages(buf, 4096))
	require.NoError(t, err)
	require.Equal(t, d, got)

	got, err = decodeDir((&Dir{}).encode())
	require.NoError(t, err)
	require.Empty(t, got.Ents)
}

func TestDirEntryAccessors(t *testing.T) {
	d := testDir()
	require.Equal(t, []byte("red"), d.Ents[0].Value())
	require.Nil(t, d.Ents[0].KeyEnd())
	require.Equal(t, uint32(3), d.Ents[0].ValueLen())

	require.Nil(t, d.Ents[1].Value())
	require.Equal(t, uint32(2048), d.Ents[1].ValueLen())

	require.Equal(t, []byte("fig"), d.Ents[2].KeyEnd())
	require.Nil(t, d.Ents[2].Value())
	require.Equal(t, uint32(0), d.Ents[2].ValueLen())
}

func TestDirWireFormat(t *testing.T) {
	d := &Dir{Ents: []DirEntry{newDirEntry([]byte("a"), []byte("bc"), 5)}}
	buf := d.encode()
	require.Equal(t, []byte(dirMagic), buf[0:8])
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[8:12]))
	require.Equal(t, dfMBO, binary.LittleEndian.Uint32(buf[12:16]))
	ent := buf[recordHeaderSize:]
	require.Equal(t, []byte(dirEntMagic), ent[0:8])
	require.Equal(t, dfMBO|uint32(EntryDir), binary.LittleEndian.Uint32(ent[8:12]))
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(ent[12:16]))
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(ent[16:20]))
	require.Equal(t, uint32(5), binary.LittleEndian.Uint32(ent[20:24]))
	require.Equal(t, []byte("abc"), ent[24:])
}

func TestDirMatch(t *testing.T) {
	d := testDir()
	cases := []struct {
		key   string
		idx   int
		found bool
	}{
		{"aardvark", 0, false},
		{"apple", 0, true},
		{"apricot", 1, false},
		{"banana", 1, true},
		{"cherry", 2, true},
		{"date", 2, true},
		{"fig", 2, true},
		{"figs", 3, false},
		{"grape", 3, true},
		{"kiwi", 4, true},
		{"kiwis", 5, false},
		{"lemon", 5, true},
		{"zucchini", 6, false},
		{"", 0, false},
	}
	for _, c := range cases {
		idx, found := d.match([]byte(c.key))
		require.Equal(t, c.found, found, c.key)
		require.Equal(t, c.idx, idx, c.key)
	}
}

func TestDirInsert(t *testing.T) {
	d := &Dir{}
	for _, k := range []string{"m", "c", "x", "a", "c"} {
		d.insert(newKeyValueEntry([]byte(k), []byte(k+"!")))
	}
	var keys []string
	for _, e := range d.Ents {
		keys = append(keys, string(e.Key))
	}
	require.Equal(t, []string{"a", "c", "m", "x"}, keys)

	d.insert(newKeyValueEntry([]byte("m"), []byte("new")))
	require.Len(t, d.Ents, 4)
	require.Equal(t, []byte("new"), d.Ents[2].Value())

	_, err := decodeDir(d.encode())
	require.NoError(t, err)
}

func TestDirDecodeInvalid(t *testing.T) {
	good := testDir().encode()
	entFlags := recordHeaderSize + 8

	cases := map[string]func(b []byte) []byte{
		"hdr magic": func(b []byte) []byte { b[0] = 'X'; return b },
		"hdr mbz": func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[12:16], dfMBO|dfMBZ)
			return b
		},
		"ent magic": func(b []byte) []byte { b[recordHeaderSize] = 'X'; return b },
		"ent none": func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[entFlags:], dfMBO)
			return b
		},
		"ent type": func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[entFlags:], dfMBO|4)
			return b
		},
		"ent mbo": func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[entFlags:], uint32(EntryKeyValue))
			return b
		},
		"count": func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[8:12], 7)
			return b
		},
		"truncated": func(b []byte) []byte { return b[:len(b)-1] },
		"key len": func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[entFlags+4:], 1<<20)
			return b
		},
	}
	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeDir(corrupt(append([]byte{}, good...)))
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDirDecodeOrder(t *testing.T) {
	unordered := &Dir{Ents: []DirEntry{
		newKeyValueEntry([]byte("b"), nil),
		newKeyValueEntry([]byte("a"), nil),
	}}
	_, err := decodeDir(unordered.encode())
	require.ErrorIs(t, err, ErrFormat)

	overlapping := &Dir{Ents: []DirEntry{
		newDirEntry([]byte("a"), []byte("m"), 5),
		newKeyValueEntry([]byte("c"), nil),
	}}
	_, err = decodeDir(overlapping.encode())
	require.ErrorIs(t, err, ErrFormat)

	backwards := &Dir{Ents: []DirEntry{newDirEntry([]byte("m"), []byte("a"), 5)}}
	_, err = decodeDir(backwards.encode())
	require.ErrorIs(t, err, ErrFormat)
}
