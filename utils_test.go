package pagedb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesIsZero(t *testing.T) {
	b := make([]byte, 64)
	require.True(t, bytesIsZero(b))
	b[40] = 1
	require.False(t, bytesIsZero(b))
	require.Panics(t, func() { bytesIsZero(make([]byte, 33)) })
}

func TestPadToPages(t *testing.T) {
	require.Len(t, padToPages(nil, 512), 512)
	require.Len(t, padToPages(make([]byte, 512), 512), 512)
	require.Len(t, padToPages(make([]byte, 513), 512), 1024)

	b := make([]byte, 10, 2048)
	b[9] = 9
	b = append(b, 1)[:10]
	p := padToPages(b, 512)
	require.Len(t, p, 512)
	require.Equal(t, byte(9), p[9])
	require.Equal(t, byte(0), p[10])
}

func TestStack(t *testing.T) {
	var s stack
	require.Nil(t, s.top())
	s.push(stackElement{ino: 2})
	s.push(stackElement{ino: 5})
	require.True(t, s.contains(2))
	require.False(t, s.contains(3))
	s.top().idx++
	require.Equal(t, 1, s.pop().idx)
	require.Equal(t, 1, s.depth())
}
