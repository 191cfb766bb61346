package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

const sampleManifest = `
concurrency: 2
cases:
  - name: home
    url: https://example.test/
    selector: "#app"
    design: designs/home.json
    viewport:
      width: 390
      height: 844
      device_scale_factor: 3
      mobile: true
  - name: cart
    dom_snapshot: /abs/cart-dom.json
    design: cart.mg
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest), "/work")
	require.NoError(t, err)

	assert.Equal(t, 2, m.Concurrency)
	require.Len(t, m.Cases, 2)

	home := m.Cases[0]
	assert.Equal(t, "home", home.Name)
	assert.Equal(t, "https://example.test/", home.URL)
	assert.Equal(t, "#app", home.Selector)
	assert.Equal(t, filepath.Join("/work", "designs/home.json"), home.Design)
	assert.Equal(t, &schemas.Viewport{Width: 390, Height: 844, DeviceScaleFactor: 3, Mobile: true}, home.Viewport)

	cart := m.Cases[1]
	assert.Equal(t, "/abs/cart-dom.json", cart.DOMSnapshot, "absolute paths are kept")
	assert.Equal(t, filepath.Join("/work", "cart.mg"), cart.Design)
	assert.Nil(t, cart.Viewport)
}

func TestParseManifest_Errors(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseManifest([]byte("cases: [\n"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse manifest")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseManifest([]byte("cases:\n  - name: a\n    dom: x\n"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dom")
	})

	t.Run("invalid cases", func(t *testing.T) {
		_, err := ParseManifest([]byte("cases:\n  - name: a\n"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid manifest")
	})
}

func TestManifest_Validate(t *testing.T) {
	valid := Case{Name: "ok", DOMSnapshot: "dom.json", Design: "d.json"}

	tests := []struct {
		name     string
		manifest Manifest
		wantErrs []string
	}{
		{"valid", Manifest{Cases: []Case{valid}}, nil},
		{"no cases", Manifest{}, []string{"manifest has no cases"}},
		{"negative concurrency", Manifest{Concurrency: -1, Cases: []Case{valid}}, []string{"concurrency must not be negative"}},
		{
			"missing everything",
			Manifest{Cases: []Case{{}}},
			[]string{
				"cases[0]: name is required",
				"cases[0]: one of url or dom_snapshot is required",
				"cases[0]: design is required",
			},
		},
		{
			"both dom sources",
			Manifest{Cases: []Case{{Name: "x", URL: "http://a", DOMSnapshot: "b", Design: "d"}}},
			[]string{`case "x": url and dom_snapshot are mutually exclusive`},
		},
		{
			"duplicate names and bad viewport",
			Manifest{Cases: []Case{valid, {Name: "ok", URL: "http://a", Design: "d", Viewport: &schemas.Viewport{Width: 0, Height: 10}}}},
			[]string{
				`case "ok": duplicate name`,
				`case "ok": viewport width and height must be positive`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantErrs == nil {
				assert.NoError(t, err)
				return
			}
			var got []string
			for _, e := range multierr.Errors(err) {
				got = append(got, e.Error())
			}
			assert.Equal(t, tt.wantErrs, got)
		})
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "designs/home.json"), m.Cases[0].Design, "paths resolve against the manifest directory")

	_, err = LoadManifest(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}
