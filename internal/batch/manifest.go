// Package batch runs many comparisons described by a YAML manifest.
package batch

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/config"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

// Case is one page/design pair to compare. Exactly one of URL and
// DOMSnapshot names the DOM side.
type Case struct {
	Name        string            `yaml:"name"`
	URL         string            `yaml:"url,omitempty"`
	Selector    string            `yaml:"selector,omitempty"`
	DOMSnapshot string            `yaml:"dom_snapshot,omitempty"`
	Design      string            `yaml:"design"`
	Viewport    *schemas.Viewport `yaml:"viewport,omitempty"`
}

// Manifest lists the cases of a batch run.
type Manifest struct {
	// Concurrency overrides batch.concurrency when positive.
	Concurrency int    `yaml:"concurrency,omitempty"`
	Cases       []Case `yaml:"cases"`
}

// ParseManifest decodes a manifest. Relative file paths are resolved against
// baseDir and a leading ~ is expanded.
func ParseManifest(data []byte, baseDir string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for i := range m.Cases {
		c := &m.Cases[i]
		var err error
		if c.DOMSnapshot, err = resolvePath(c.DOMSnapshot, baseDir); err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
		if c.Design, err = resolvePath(c.Design, baseDir); err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	path, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := transport.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data, filepath.Dir(path))
}

// Validate reports every problem in the manifest at once.
func (m *Manifest) Validate() error {
	var errs error
	if len(m.Cases) == 0 {
		errs = multierr.Append(errs, errors.New("manifest has no cases"))
	}
	if m.Concurrency < 0 {
		errs = multierr.Append(errs, errors.New("concurrency must not be negative"))
	}
	seen := make(map[string]bool, len(m.Cases))
	for i, c := range m.Cases {
		label := fmt.Sprintf("cases[%d]", i)
		if c.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: name is required", label))
		} else {
			label = fmt.Sprintf("case %q", c.Name)
			if seen[c.Name] {
				errs = multierr.Append(errs, fmt.Errorf("%s: duplicate name", label))
			}
			seen[c.Name] = true
		}
		switch {
		case c.URL == "" && c.DOMSnapshot == "":
			errs = multierr.Append(errs, fmt.Errorf("%s: one of url or dom_snapshot is required", label))
		case c.URL != "" && c.DOMSnapshot != "":
			errs = multierr.Append(errs, fmt.Errorf("%s: url and dom_snapshot are mutually exclusive", label))
		}
		if c.Design == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: design is required", label))
		}
		if v := c.Viewport; v != nil && (v.Width <= 0 || v.Height <= 0) {
			errs = multierr.Append(errs, fmt.Errorf("%s: viewport width and height must be positive", label))
		}
	}
	return errs
}

func resolvePath(p, baseDir string) (string, error) {
	p, err := config.ExpandPath(p)
	if err != nil || p == "" {
		return p, err
	}
	if !filepath.IsAbs(p) && baseDir != "" {
		p = filepath.Join(baseDir, p)
	}
	return p, nil
}
