package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jmylchreest/monolog/internal/overlay"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a resolved stylesheet.
type Theme struct {
	Name      string // Theme name (without .css extension)
	Path      string // Source file, empty for bundled themes
	CSS       string // Content with imports inlined
	IsBundled bool
}

// ThemesDir returns the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "monolog", "themes"), nil
}

// NewTheme loads a CSS file, inlining its imports.
func NewTheme(name, path string) (*Theme, error) {
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme: %w", err)
	}
	return &Theme{
		Name: name,
		Path: path,
		CSS:  ProcessImports(string(css), filepath.Dir(path), nil),
	}, nil
}

// Bundled returns an embedded theme with imports inlined.
func Bundled(name string) (*Theme, bool) {
	css, found := GetEmbeddedTheme(name)
	if !found {
		return nil, false
	}
	return &Theme{
		Name:      name,
		CSS:       ProcessImports(css, "", nil),
		IsBundled: true,
	}, true
}

// Resolve finds a theme by name or path.
// Resolution order:
//  1. A path ending in .css
//  2. User themes directory (~/.config/monolog/themes/<name>.css)
//  3. Bundled themes
//
// Unknown names fall back to the default theme with an error describing why.
func Resolve(name string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if strings.HasSuffix(name, ".css") {
		path := expandPath(name)
		t, err := NewTheme(strings.TrimSuffix(filepath.Base(path), ".css"), path)
		if err == nil {
			return t, nil
		}
		def, _ := Bundled(DefaultThemeName)
		return def, err
	}

	if dir, err := ThemesDir(); err == nil {
		path := filepath.Join(dir, name+".css")
		if _, err := os.Stat(path); err == nil {
			if t, err := NewTheme(name, path); err == nil {
				return t, nil
			}
		}
	}

	if t, ok := Bundled(name); ok {
		return t, nil
	}

	def, _ := Bundled(DefaultThemeName)
	return def, fmt.Errorf("theme %q not found", name)
}

// Reload re-reads a file-backed theme. Reports whether the CSS changed.
func (t *Theme) Reload() (bool, error) {
	if t.IsBundled || t.Path == "" {
		return false, nil
	}
	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	processed := ProcessImports(string(css), filepath.Dir(t.Path), nil)
	changed := processed != t.CSS
	t.CSS = processed
	return changed, nil
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir, falling back to bundled files.
// The seen map prevents circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		imported, err := os.ReadFile(fullPath)
		if err != nil {
			baseName := filepath.Base(importPath)
			if strings.HasPrefix(baseName, "_") {
				if embedded, found := GetEmbeddedPartial(baseName); found {
					return "/* imported (embedded): " + importPath + " */\n" + embedded
				}
			}
			if embedded, found := GetEmbeddedTheme(strings.TrimSuffix(baseName, ".css")); found {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(embedded, "", seen)
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		return "/* imported: " + importPath + " */\n" + ProcessImports(string(imported), filepath.Dir(fullPath), seen)
	})
}

// DurationClass returns the class carrying the animation duration for d,
// e.g. "monolog-duration-300".
func DurationClass(d time.Duration) string {
	return fmt.Sprintf("%s-duration-%d", overlay.ClassPanel, d.Milliseconds())
}

// DurationRules renders one animation-duration rule per distinct duration,
// shortest first.
func DurationRules(durations []time.Duration) string {
	ms := make([]int64, 0, len(durations))
	for _, d := range durations {
		ms = append(ms, d.Milliseconds())
	}
	slices.Sort(ms)
	ms = slices.Compact(ms)

	var b strings.Builder
	for _, m := range ms {
		d := time.Duration(m) * time.Millisecond
		fmt.Fprintf(&b, ".%s.%s { animation-duration: %s; }\n",
			overlay.ClassPanel, DurationClass(d), overlay.FormatDuration(d))
	}
	return b.String()
}

// Stylesheet combines a theme with the duration rules.
func Stylesheet(t *Theme, durations []time.Duration) string {
	css := ""
	if t != nil {
		css = t.CSS
	}
	rules := DurationRules(durations)
	if rules == "" {
		return css
	}
	return css + "\n/* fade durations */\n" + rules
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
