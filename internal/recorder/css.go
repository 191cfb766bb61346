package recorder

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/ui-differ/api/schemas"
)

// parsePx reads a computed length such as "12.5px". Keywords and unparsable
// values yield 0.
func parsePx(v string) float64 {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseNumber reads a unitless computed value such as flex-grow.
func parseNumber(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

// functionArgs splits "name(a, b c / d)" into its numeric arguments.
func functionArgs(v string) []float64 {
	open := strings.IndexByte(v, '(')
	end := strings.LastIndexByte(v, ')')
	if open < 0 || end <= open {
		return nil
	}
	fields := strings.FieldsFunc(v[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		pct := strings.HasSuffix(f, "%")
		n, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return nil
		}
		if pct {
			n /= 100
		}
		out = append(out, n)
	}
	return out
}

// normalizeColor maps every fully transparent colour to schemas.Transparent
// and passes anything else through unchanged.
func normalizeColor(v string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "", schemas.Transparent:
		return schemas.Transparent
	}
	if strings.HasPrefix(v, "rgba(") || strings.HasPrefix(v, "rgb(") {
		if args := functionArgs(v); len(args) >= 4 && args[3] == 0 {
			return schemas.Transparent
		}
	}
	return v
}

// firstColor returns the first colour that is not transparent.
func firstColor(colors ...string) string {
	for _, c := range colors {
		if c != schemas.Transparent && c != "" {
			return c
		}
	}
	return schemas.Transparent
}

// firstWidth returns the first non-zero width.
func firstWidth(widths ...float64) float64 {
	for _, w := range widths {
		if w != 0 {
			return w
		}
	}
	return 0
}

// transformScale extracts the x and y scale factors from a computed transform
// matrix. Identity is returned for "none" and degenerate factors.
func transformScale(transform string) (sx, sy float64) {
	sx, sy = 1, 1
	args := functionArgs(transform)
	switch {
	case strings.HasPrefix(transform, "matrix3d(") && len(args) == 16:
		sx, sy = args[0], args[5]
	case strings.HasPrefix(transform, "matrix(") && len(args) == 6:
		sx, sy = args[0], args[3]
	}
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

// borderWidth scales a computed border width and rounds any visible
// hairline up to one pixel.
func borderWidth(raw string, scale float64) float64 {
	w := parsePx(raw) / scale
	if w <= 0 {
		return 0
	}
	return max(w, 1)
}

// backgroundOf resolves the painted background of an element.
func backgroundOf(s schemas.ComputedStyle) string {
	if img := strings.TrimSpace(s.BackgroundImage); img != "" && img != "none" {
		return schemas.BackgroundImage
	}
	return normalizeColor(s.BackgroundColor)
}

var bfcDisplays = map[string]bool{
	"inline-block":  true,
	"table-cell":    true,
	"table-caption": true,
	"flex":          true,
	"inline-flex":   true,
	"grid":          true,
	"inline-grid":   true,
	"flow-root":     true,
}

// establishesBFC reports whether an element starts a new block formatting
// context.
func establishesBFC(s schemas.ComputedStyle, root bool) bool {
	if root {
		return true
	}
	if s.Float != "" && s.Float != "none" {
		return true
	}
	if s.Position == "absolute" || s.Position == "fixed" {
		return true
	}
	if bfcDisplays[s.Display] {
		return true
	}
	for _, o := range []string{s.OverflowX, s.OverflowY} {
		if o != "" && o != "visible" {
			return true
		}
	}
	for _, kw := range []string{"layout", "content", "paint", "strict"} {
		if strings.Contains(s.Contain, kw) {
			return true
		}
	}
	if s.ColumnCount != "" && s.ColumnCount != "auto" {
		return true
	}
	return s.ColumnWidth != "" && s.ColumnWidth != "auto"
}

// outOfFlow reports whether an element is taken out of normal flow or not
// rendered at all.
func outOfFlow(s schemas.ComputedStyle) bool {
	switch s.Position {
	case "absolute", "fixed":
		return true
	}
	return s.Display == "none"
}

// lineHeightPx resolves a computed line-height. "normal" is approximated as
// 1.2 times the font size.
func lineHeightPx(s schemas.ComputedStyle) float64 {
	if lh := parsePx(s.LineHeight); lh > 0 {
		return lh
	}
	return parsePx(s.FontSize) * 1.2
}
