package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/twinlab/internal/voxel"
)

// SanitizeName turns an arbitrary run or microstructure name into a file name stem.
// Runs of characters other than ASCII letters, digits, dot, underscore and dash become
// a single underscore. The result is at most 64 bytes and never empty.
func SanitizeName(s string) string {
	const maxLen = 64
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "twinlab"
	}
	return out
}

// WriteAll writes the PNG slice, the HTML slice and the text summary into dir, creating
// it if needed, and returns the paths written.
func WriteAll(dir, name string, g *voxel.Grid, s Summary, o SliceOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	z, err := resolveZ(g, o.Z)
	if err != nil {
		return nil, fmt.Errorf("write reports: %w", err)
	}
	o.Z = z
	stem := SanitizeName(name)

	outputs := []struct {
		file   string
		render func(io.Writer) error
	}{
		{fmt.Sprintf("%s_z%03d.png", stem, z), func(w io.Writer) error { return SlicePNG(w, g, o) }},
		{fmt.Sprintf("%s_z%03d.html", stem, z), func(w io.Writer) error { return SliceHTML(w, g, o) }},
		{stem + "_summary.txt", s.WriteText},
	}

	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.file)
		if err := writeFile(path, out.render); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
