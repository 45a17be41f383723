// Package languages loads grammar descriptors from YAML files, including the
// built-in set embedded in the binary.
package languages

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/rowlight/internal/highlight"
	"github.com/zjrosen/rowlight/internal/lexer/block"
	"github.com/zjrosen/rowlight/internal/lexer/dispatch"
	"github.com/zjrosen/rowlight/internal/lexer/grammar"
	"github.com/zjrosen/rowlight/internal/lexer/trie"
	"github.com/zjrosen/rowlight/internal/log"
)

//go:embed grammars/*.yaml
var builtin embed.FS

// File is the on-disk grammar format.
type File struct {
	Name         string      `yaml:"name"`
	Extensions   []string    `yaml:"extensions"`
	Aliases      []string    `yaml:"aliases"`
	Keywords     string      `yaml:"keywords"`
	Escape       string      `yaml:"escape"`
	Char         string      `yaml:"char"`
	String       string      `yaml:"string"`
	TextBlock    string      `yaml:"text_block"`
	LineComment  string      `yaml:"line_comment"`
	BlockComment []string    `yaml:"block_comment"`
	StatementEnd string      `yaml:"statement_end"`
	Blocks       []BlockFile `yaml:"blocks"`
	LineMarkers  []string    `yaml:"line_markers"`
	IdentExtra   string      `yaml:"ident_extra"`
}

// BlockFile declares an extra block type.
type BlockFile struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Open      string `yaml:"open"`
	Close     string `yaml:"close"`
	Style     string `yaml:"style"`
	LineStart bool   `yaml:"line_start"`
	// Delegate resolves the tag after a neutral_payload opener to another
	// language.
	Delegate bool `yaml:"delegate"`
}

// Parse decodes one grammar file. payload is attached to blocks that delegate.
func Parse(data []byte, payload block.PayloadFunc) (*grammar.Descriptor, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing grammar: %w", err)
	}
	return f.Descriptor(payload)
}

// Descriptor converts the file into a grammar descriptor.
func (f File) Descriptor(payload block.PayloadFunc) (*grammar.Descriptor, error) {
	d := &grammar.Descriptor{
		Name:        f.Name,
		Extensions:  f.Extensions,
		Aliases:     f.Aliases,
		Keywords:    trie.FromList(f.Keywords),
		LineComment: f.LineComment,
		LineMarkers: f.LineMarkers,
		IdentExtra:  f.IdentExtra,
	}

	var err error
	if d.Escape, err = single("escape", f.Escape); err != nil {
		return nil, fmt.Errorf("grammar %s: %w", f.Name, err)
	}
	if d.CharDelim, err = single("char", f.Char); err != nil {
		return nil, fmt.Errorf("grammar %s: %w", f.Name, err)
	}
	if d.StringDelim, err = single("string", f.String); err != nil {
		return nil, fmt.Errorf("grammar %s: %w", f.Name, err)
	}
	if d.StatementEnd, err = single("statement_end", f.StatementEnd); err != nil {
		return nil, fmt.Errorf("grammar %s: %w", f.Name, err)
	}

	if f.TextBlock != "" {
		d.TextBlock = block.NewNeutral("text_block", f.TextBlock, highlight.StyleTextBlock)
	}
	switch len(f.BlockComment) {
	case 0:
	case 2:
		d.BlockComment = block.NewRange("block_comment", f.BlockComment[0], f.BlockComment[1], highlight.StyleBlockComment)
	default:
		return nil, fmt.Errorf("grammar %s: block_comment needs [open, close], got %d entries", f.Name, len(f.BlockComment))
	}

	for _, bf := range f.Blocks {
		bt, err := bf.Type(payload)
		if err != nil {
			return nil, fmt.Errorf("grammar %s: %w", f.Name, err)
		}
		d.Blocks = append(d.Blocks, bt)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Type converts the declaration into a block type.
func (bf BlockFile) Type(payload block.PayloadFunc) (*block.Type, error) {
	kind, err := block.ParseKind(bf.Kind)
	if err != nil {
		return nil, fmt.Errorf("block %q: %w", bf.Name, err)
	}
	style := highlight.Style(bf.Style)
	if style == "" {
		style = highlight.StyleTextBlock
	}

	var bt *block.Type
	switch kind {
	case block.Range:
		bt = block.NewRange(bf.Name, bf.Open, bf.Close, style)
	case block.Neutral:
		bt = block.NewNeutral(bf.Name, bf.Open, style)
	case block.NeutralPayload:
		var fn block.PayloadFunc
		if bf.Delegate {
			fn = payload
		}
		bt = block.NewNeutralPayload(bf.Name, bf.Open, style, fn)
	}
	bt.LineStart = bt.LineStart || bf.LineStart
	return bt, nil
}

func single(field, s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", field, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// Load registers every .yaml/.yml grammar at the root of fsys.
func Load(reg *dispatch.Registry, fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading grammars: %w", err)
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })

	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return fmt.Errorf("reading grammar %s: %w", e.Name(), err)
		}
		desc, err := Parse(data, reg.Payload)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		if err := reg.Register(desc); err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
	}
	return nil
}

// LoadDir registers user grammars from a directory. A missing directory is
// not an error.
func LoadDir(reg *dispatch.Registry, dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Debug(log.CatLexer, "Grammar directory not found, skipping", "dir", dir)
		return nil
	}
	if err := Load(reg, os.DirFS(dir)); err != nil {
		return fmt.Errorf("loading grammars from %s: %w", dir, err)
	}
	log.Info(log.CatLexer, "Loaded user grammars", "dir", dir)
	return nil
}

// Builtin registers the embedded grammars.
func Builtin(reg *dispatch.Registry) error {
	sub, err := fs.Sub(builtin, "grammars")
	if err != nil {
		return err
	}
	return Load(reg, sub)
}

// NewRegistry returns a registry holding the built-in grammars plus any user
// grammars in dir (which override built-ins of the same name).
func NewRegistry(dir string, opts ...dispatch.Option) (*dispatch.Registry, error) {
	reg := dispatch.New(opts...)
	if err := Builtin(reg); err != nil {
		return nil, err
	}
	if err := LoadDir(reg, dir); err != nil {
		return nil, err
	}
	return reg, nil
}
