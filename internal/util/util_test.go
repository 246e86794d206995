package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{in: "notes.md", want: "notes.md"},
		{in: "学习笔记.pdf", want: "学习笔记.pdf"},
		{in: "café.txt", want: "café.txt"},
		{in: "\u00e5\u00ad\u00a6\u00e4\u00b9\u00a0.md", want: "学习.md"},
		{in: "caf\xe9.txt", want: "café.txt"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DecodeFilename(tc.in), "input %q", tc.in)
	}
}

func TestContentDisposition(t *testing.T) {
	got := ContentDisposition("inline", `课程 "一".pdf`)
	require.True(t, strings.HasPrefix(got, `inline; filename="`))
	require.Contains(t, got, `filename*=UTF-8''%E8%AF%BE%E7%A8%8B%20%22%E4%B8%80%22.pdf`)
	require.NotContains(t, got, `"一"`)
}

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()
	p, err := SafeJoin(root, "file-1-abc.mp4")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "file-1-abc.mp4"), p)

	for _, bad := range []string{"", "..", "../etc/passwd", "a/b", `a\b`, ".meta", "."} {
		_, err := SafeJoin(root, bad)
		require.ErrorIs(t, err, ErrOutsideRoot, "name %q", bad)
	}
}

func TestCopyToFileAtomic(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, ".tmp")
	dst := filepath.Join(dir, "out.txt")

	n, err := CopyToFileAtomic(dst, tmp, strings.NewReader("hello"), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	big := filepath.Join(dir, "big.txt")
	_, err = CopyToFileAtomic(big, tmp, strings.NewReader("hello world"), 5)
	require.ErrorIs(t, err, ErrTooLarge)
	_, statErr := os.Stat(big)
	require.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWriteJSONAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta", "x.json")
	require.NoError(t, WriteJSONAtomic(path, map[string]string{"name": "讲义.pdf"}))
	var got map[string]string
	require.NoError(t, ReadJSON(path, &got))
	require.Equal(t, "讲义.pdf", got["name"])
}

func TestDecodeUTF8AndTruncate(t *testing.T) {
	require.Equal(t, "abc", DecodeUTF8([]byte("\xEF\xBB\xBFabc")))
	require.Equal(t, "a\uFFFDb", DecodeUTF8([]byte("a\xffb")))

	s, cut := TruncateRunes("你好世界", 2)
	require.True(t, cut)
	require.Equal(t, "你好", s)
	s, cut = TruncateRunes("abc", 10)
	require.False(t, cut)
	require.Equal(t, "abc", s)
}
