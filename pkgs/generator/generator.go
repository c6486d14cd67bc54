package generator

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/aledsdavies/parsegen/pkgs/ir"
)

//go:embed all:templates
var builtinTemplates embed.FS

// Generate renders m through the named target's template and returns
// complete target-language source text (spec §4.6). target selects a
// subdirectory of the built-in templates/ tree ("rust" is the only one
// this repo ships — see SPEC_FULL.md's Non-goals); dir, if non-empty,
// overrides the template source with an external directory instead
// (spec §6: "A target directory contains parser.<tmpl> and optional
// partials").
func Generate(m *ir.Machine, name, target string, dir string, trace bool) (string, error) {
	fsys, root, err := templateFS(target, dir)
	if err != nil {
		return "", err
	}

	tmpl, err := loadTemplate(fsys, root)
	if err != nil {
		return "", err
	}

	ctx := BuildContext(m, name, trace)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "parser", ctx); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", target, err)
	}

	return postProcess(buf.String()), nil
}

func templateFS(target, dir string) (fs.FS, string, error) {
	if dir != "" {
		return os.DirFS(dir), target, nil
	}
	sub, err := fs.Sub(builtinTemplates, "templates")
	if err != nil {
		return nil, "", fmt.Errorf("internal: templates directory missing: %w", err)
	}
	if _, err := fs.Stat(sub, target); err != nil {
		return nil, "", fmt.Errorf("no template for target %q", target)
	}
	return sub, target, nil
}

// loadTemplate parses parser.<ext> plus every partial _*.<ext> in root,
// registering each partial under the name its filename encodes (spec
// §4.6's "tiny filesystem layer"): a partial _foo.tmpl is addressable in
// the template text as {{template "foo" .}}.
func loadTemplate(fsys fs.FS, root string) (*template.Template, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("no template for target %q: %w", root, err)
	}

	var mainFile string
	var partials []string
	var ext string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		switch {
		case strings.HasPrefix(n, "parser."):
			mainFile = n
			ext = n[len("parser."):]
		case strings.HasPrefix(n, "_"):
			partials = append(partials, n)
		}
	}
	if mainFile == "" {
		return nil, fmt.Errorf("target %q has no parser.<ext> template", root)
	}

	root0 := template.New("parser").Funcs(filterFuncs()).Funcs(rustRenderFuncs())

	mainText, err := fs.ReadFile(fsys, root+"/"+mainFile)
	if err != nil {
		return nil, err
	}
	root0, err = root0.Parse(string(mainText))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", mainFile, err)
	}

	for _, p := range partials {
		partialName := strings.TrimSuffix(strings.TrimPrefix(p, "_"), "."+ext)
		text, err := fs.ReadFile(fsys, root+"/"+p)
		if err != nil {
			return nil, err
		}
		if _, err := root0.New(partialName).Parse(string(text)); err != nil {
			return nil, fmt.Errorf("parsing partial %s: %w", p, err)
		}
	}

	return root0, nil
}

var multiBlankRE = regexp.MustCompile(`\n{3,}`)

// topLevelItemPrefixes are the Rust item keywords that start a new
// top-level declaration in the generated parser source.
var topLevelItemPrefixes = []string{"pub ", "pub(crate) ", "fn ", "struct ", "enum ", "impl ", "const ", "//"}

// postProcess gives generated output a predictable, cosmetic shape (spec
// §4.6): collapse runs of more than one blank line to exactly one, and
// insert a single blank line before a top-level item (or after a closing
// brace that precedes one) when the template didn't already leave one.
func postProcess(src string) string {
	src = multiBlankRE.ReplaceAllString(src, "\n\n")

	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines)+8)
	for i, line := range lines {
		if i > 0 && startsTopLevelItem(line) && !precededByBlank(out) {
			out = append(out, "")
		}
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

func startsTopLevelItem(line string) bool {
	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		return false // indented: not a top-level item
	}
	for _, p := range topLevelItemPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func precededByBlank(out []string) bool {
	return len(out) == 0 || out[len(out)-1] == ""
}
