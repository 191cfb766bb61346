package transport

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

func sampleNodes() *schemas.NodeMap {
	return schemas.NewNodeMapFrom([]*schemas.NodeInfo{
		{
			UniqueID:        "root",
			NodeName:        "Screen",
			Children:        []string{"title", "body"},
			BoundingRect:    schemas.Rect{Width: 375, Height: 812},
			BackgroundColor: schemas.Transparent,
		},
		{
			UniqueID:        "title",
			NodeName:        "Title",
			ParentID:        "root",
			Sibling:         []string{"body"},
			BoundingRect:    schemas.Rect{X: 16, Y: 20, Width: 200, Height: 24},
			TextStyleInfo:   &schemas.TextStyleInfo{LineHeight: 24, TextLineCount: 1},
			BackgroundColor: schemas.Transparent,
			Neighbors:       schemas.NeighborInfos{Bottom: "body"},
		},
		{
			UniqueID:        "body",
			NodeName:        "Body",
			ParentID:        "root",
			Sibling:         []string{"title"},
			BoundingRect:    schemas.Rect{X: 16, Y: 60, Width: 343, Height: 300},
			BackgroundColor: "rgba(255, 255, 255, 1)",
			Neighbors:       schemas.NeighborInfos{Top: "title"},
		},
	})
}

func TestClipboardRoundTrip(t *testing.T) {
	in := sampleNodes()
	text, err := EncodeClipboard(in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, ClipboardPrefix))

	out, err := DecodeClipboard("\n" + text + "\n")
	require.NoError(t, err)
	assert.Equal(t, in.IDs(), out.IDs(), "array order must be preserved")
	if d := cmp.Diff(in.Nodes(), out.Nodes()); d != "" {
		t.Errorf("round trip changed nodes (-in +out):\n%s", d)
	}
}

func TestDecodeClipboard_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
		wantMsg string
	}{
		{name: "empty", text: "", wantErr: ErrMissingPrefix},
		{name: "plain json", text: `[{"uniqueId":"a"}]`, wantErr: ErrMissingPrefix},
		{name: "prefix in the middle", text: "x" + ClipboardPrefix + "[]", wantErr: ErrMissingPrefix},
		{name: "object payload", text: ClipboardPrefix + `{"uniqueId":"a"}`, wantErr: ErrNotNodeList},
		{name: "empty payload", text: ClipboardPrefix, wantErr: ErrNotNodeList},
		{name: "broken json", text: ClipboardPrefix + `[{"uniqueId":`, wantMsg: "decoding design nodes"},
		{name: "dangling child", text: ClipboardPrefix + `[{"uniqueId":"a","children":["b"]}]`, wantMsg: `references missing child "b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeClipboard(tt.text)
			require.Error(t, err)
			assert.Nil(t, m)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestDecodeClipboard_EmptyList(t *testing.T) {
	m, err := DecodeClipboard(ClipboardPrefix + "[]")
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}

func TestBrotliRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"uniqueId":"node"}`), 200)

	var buf bytes.Buffer
	w := NewBrotliWriter(&buf)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Less(t, buf.Len(), len(payload))

	// Two passes exercise a pooled reader being reused.
	for i := 0; i < 2; i++ {
		r, err := NewBrotliReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		require.NoError(t, r.Close(), "double close is harmless")
		assert.Equal(t, payload, got)
	}
}

func TestBrotliReader_Corrupt(t *testing.T) {
	r, err := NewBrotliReader(strings.NewReader("definitely not brotli"))
	if err != nil {
		return
	}
	defer r.Close()
	_, err = io.ReadAll(r)
	assert.Error(t, err)
}

func TestWriteAndReadJSON(t *testing.T) {
	dir := t.TempDir()
	snap := &schemas.PageSnapshot{
		URL:            "https://example.com",
		DocumentHeight: 900,
		Root: &schemas.ElementSnapshot{
			UniqueID: "1",
			Tag:      "body",
			Rect:     schemas.Rect{Width: 375, Height: 900},
		},
	}

	for _, name := range []string{"snap.json", "snap.json.br"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteJSON(path, snap))

			got, err := LoadSnapshot(path)
			require.NoError(t, err)
			assert.Equal(t, snap.URL, got.URL)
			assert.Equal(t, snap.Root.Rect, got.Root.Rect)
		})
	}

	raw, err := os.ReadFile(filepath.Join(dir, "snap.json.br"))
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(raw, []byte("{")), ".br output must be compressed")
}

func TestLoadSnapshot_NoRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"url":"x"}`), 0o644))
	_, err := LoadSnapshot(path)
	assert.ErrorContains(t, err, "snapshot has no root element")
}

func TestParseDesign(t *testing.T) {
	clip, err := EncodeClipboard(sampleNodes())
	require.NoError(t, err)
	list, err := json.Marshal(sampleNodes())
	require.NoError(t, err)

	t.Run("clipboard", func(t *testing.T) {
		d, err := ParseDesign([]byte(clip))
		require.NoError(t, err)
		assert.Nil(t, d.Scene)
		assert.True(t, d.Normalized)
		assert.Equal(t, 3, d.Nodes.Len())
	})

	t.Run("node list", func(t *testing.T) {
		d, err := ParseDesign(list)
		require.NoError(t, err)
		assert.True(t, d.Normalized)
		assert.Equal(t, []string{"root", "title", "body"}, d.Nodes.IDs())
	})

	t.Run("scene graph", func(t *testing.T) {
		d, err := ParseDesign([]byte(`{"id":"1:2","name":"Screen","type":"FRAME","absoluteBoundingBox":{"x":0,"y":0,"width":750,"height":1624},"children":[{"id":"1:3","type":"TEXT","characters":"Hi"}]}`))
		require.NoError(t, err)
		require.NotNil(t, d.Scene)
		assert.Nil(t, d.Nodes)
		assert.False(t, d.Normalized)
		assert.Equal(t, "FRAME", d.Scene.Type)
		require.Len(t, d.Scene.Children, 1)
		assert.Equal(t, "Hi", d.Scene.Children[0].Characters)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseDesign([]byte("hello"))
		assert.ErrorContains(t, err, "unrecognized design input")
	})
}

func TestLoadDesign_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.json.br")
	require.NoError(t, WriteJSON(path, sampleNodes()))

	d, err := LoadDesign(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "title", "body"}, d.Nodes.IDs())

	_, err = LoadDesign(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
