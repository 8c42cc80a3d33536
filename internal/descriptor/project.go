package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// Rule describes which sections of a descriptor to patch and how.
type Rule struct {
	// Markers must all appear in a section's serialized form for it to be
	// patched.
	Markers []string
	// Flag is the tag of the child element forced to Value.
	Flag  string
	Value string

	// Pattern selects descriptor files by name (filepath.Match syntax).
	Pattern string
	// ExcludeSuffix skips descriptor files whose name ends with it.
	ExcludeSuffix string
}

// DefaultRule enables unsafe code in every configuration-scoped property
// group of every non-editor C# project.
func DefaultRule() Rule {
	return Rule{
		Markers:       []string{"PropertyGroup", "$(Configuration)|$(Platform)"},
		Flag:          "AllowUnsafeBlocks",
		Value:         "true",
		Pattern:       "*.csproj",
		ExcludeSuffix: "Editor.csproj",
	}
}

// Validate reports whether the rule can be applied.
func (r Rule) Validate() error {
	if r.Flag == "" {
		return errors.New("rule: flag is required")
	}
	if r.Pattern == "" {
		return errors.New("rule: pattern is required")
	}
	if _, err := filepath.Match(r.Pattern, ""); err != nil {
		return fmt.Errorf("rule: bad pattern %q: %w", r.Pattern, err)
	}
	return nil
}

// Report lists what PatchAll did with each descriptor file.
type Report struct {
	Patched   []string
	Unchanged []string
	Excluded  []string
	Failed    []string
}

// Patcher applies a Rule to the descriptor files of a directory.
type Patcher struct {
	rule   Rule
	logger *log.Logger
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithLogger sets the diagnostic logger. Default discards output.
func WithLogger(l *log.Logger) Option {
	return func(p *Patcher) {
		p.logger = l
	}
}

// NewPatcher creates a Patcher for rule.
func NewPatcher(rule Rule, opts ...Option) (*Patcher, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	p := &Patcher{rule: rule, logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Rule returns the rule the Patcher applies.
func (p *Patcher) Rule() Rule {
	return p.rule
}

// PatchAll patches every descriptor directly inside dir. Files that fail to
// parse are reported and skipped; a failure to write a patched file aborts
// the run.
func (p *Patcher) PatchAll(dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read project dir: %w", err)
	}

	report := &Report{}
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ok, _ := filepath.Match(p.rule.Pattern, name); !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if p.rule.ExcludeSuffix != "" && strings.HasSuffix(name, p.rule.ExcludeSuffix) {
			report.Excluded = append(report.Excluded, path)
			continue
		}

		changed, err := p.PatchFile(path)
		var perr *parseError
		switch {
		case errors.As(err, &perr):
			p.logger.Printf("warning: skipping %s: %v", path, err)
			report.Failed = append(report.Failed, path)
			errs = append(errs, err)
		case err != nil:
			report.Failed = append(report.Failed, path)
			return report, err
		case changed:
			p.logger.Printf("patched %s", path)
			report.Patched = append(report.Patched, path)
		default:
			report.Unchanged = append(report.Unchanged, path)
		}
	}

	if len(errs) > 0 {
		return report, fmt.Errorf("patching had %d error(s): %w", len(errs), errs[0])
	}
	return report, nil
}

type parseError struct {
	path string
	err  error
}

func (e *parseError) Error() string { return fmt.Sprintf("parse %s: %v", e.path, e.err) }
func (e *parseError) Unwrap() error { return e.err }

var utf8BOM = []byte("\xef\xbb\xbf")

// PatchFile patches a single descriptor in place. The file is rewritten
// only if patching changed it; the byte order mark and CRLF line endings
// of the original are kept.
func (p *Patcher) PatchFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	orig, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	out, err := p.Patch(orig)
	if err != nil {
		return false, &parseError{path: path, err: err}
	}
	if bytes.Equal(out, orig) {
		return false, nil
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// Patch applies the rule to descriptor source and returns the result.
func (p *Patcher) Patch(src []byte) ([]byte, error) {
	body, hasBOM := bytes.CutPrefix(src, utf8BOM)
	crlf := bytes.Contains(body, []byte("\r\n"))
	if crlf {
		// The decoder only normalizes line endings in character data, so
		// comments and processing instructions would keep their CRs.
		body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("no root element")
	}
	PatchDocument(doc, p.rule)

	doc.WriteSettings.CanonicalAttrVal = true
	doc.WriteSettings.CanonicalText = true
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}
	if crlf {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	if hasBOM {
		out = append(append([]byte{}, utf8BOM...), out...)
	}
	return out, nil
}
