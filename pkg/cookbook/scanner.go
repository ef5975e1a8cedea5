// Package cookbook walks a Chef cookbook directory and classifies its
// files so the DSL parsers can be dispatched per kind. All filesystem
// I/O for a conversion run lives here; the parsers themselves stay pure.
package cookbook

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

// FileKind classifies a cookbook file by the parser it needs.
type FileKind int

// Cookbook file kinds.
const (
	KindOther FileKind = iota
	KindRecipe
	KindAttributes
	KindCustomResource
	KindLibrary
	KindTemplate
	KindMetadata
)

// String returns the kind name used in reports and JSON output.
func (k FileKind) String() string {
	switch k {
	case KindRecipe:
		return "recipe"
	case KindAttributes:
		return "attributes"
	case KindCustomResource:
		return "custom_resource"
	case KindLibrary:
		return "library"
	case KindTemplate:
		return "template"
	case KindMetadata:
		return "metadata"
	default:
		return "other"
	}
}

// File is one classified cookbook file.
type File struct {
	Path string   `json:"path"` // absolute
	Rel  string   `json:"rel"`  // relative to the cookbook root, slash-separated
	Kind FileKind `json:"kind"`
	Size int64    `json:"size"`
}

// Inventory is the result of scanning one cookbook directory.
type Inventory struct {
	Root     string    `json:"root"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Files    []File    `json:"files"`
	Warnings []string  `json:"warnings"`
}

// TotalSize returns the byte total of all inventoried files.
func (inv *Inventory) TotalSize() int64 {
	var total int64
	for _, f := range inv.Files {
		total += f.Size
	}

	return total
}

// ByKind returns the inventoried files of one kind, in walk order.
func (inv *Inventory) ByKind(kind FileKind) []File {
	var out []File

	for _, f := range inv.Files {
		if f.Kind == kind {
			out = append(out, f)
		}
	}

	return out
}

// ErrNotADirectory is returned by Scan when root is not a directory.
var ErrNotADirectory = errors.New("cookbook root is not a directory")

// maxSniffBytes bounds how much of a file is read for language detection.
const maxSniffBytes = 8 << 10

// Scan walks a cookbook directory and produces a classified inventory.
// Files under the conventional directories (recipes/, attributes/,
// resources/, providers/, libraries/, templates/) are classified by
// location; files that look like Ruby by extension are confirmed with
// content-based language detection so stray shell or YAML files in those
// directories are skipped with a warning instead of being fed to the
// Ruby parsers.
func Scan(root string) (*Inventory, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat cookbook root: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	inv := &Inventory{Root: root, Files: []File{}, Warnings: []string{}}

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("skipping %s: %v", path, err))

			return nil
		}

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}

			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		rel = filepath.ToSlash(rel)

		kind := classify(rel)
		if kind == KindOther {
			return nil
		}

		fi, statErr := entry.Info()
		if statErr != nil {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("skipping %s: %v", rel, statErr))

			return nil
		}

		if kind != KindTemplate && kind != KindMetadata && !isRubySource(path) {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("skipping %s: not detected as Ruby", rel))

			return nil
		}

		inv.Files = append(inv.Files, File{
			Path: path,
			Rel:  rel,
			Kind: kind,
			Size: fi.Size(),
		})

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk cookbook: %w", walkErr)
	}

	if len(inv.Files) == 0 {
		inv.Warnings = append(inv.Warnings, "no cookbook files found")
	}

	loadMetadata(inv)

	return inv, nil
}

// classify maps a cookbook-relative path to its file kind.
func classify(rel string) FileKind {
	if rel == "metadata.rb" || rel == "metadata.json" {
		return KindMetadata
	}

	dir, _, found := strings.Cut(rel, "/")
	if !found {
		return KindOther
	}

	switch dir {
	case "recipes":
		return KindRecipe
	case "attributes":
		return KindAttributes
	case "resources", "providers", "definitions":
		return KindCustomResource
	case "libraries":
		return KindLibrary
	case "templates":
		return KindTemplate
	default:
		return KindOther
	}
}

// isRubySource reports whether the file's content is detected as Ruby.
func isRubySource(path string) bool {
	if !strings.HasSuffix(path, ".rb") {
		return false
	}

	content, err := readHead(path, maxSniffBytes)
	if err != nil {
		return false
	}

	// Empty Ruby files are legitimate (placeholder recipes).
	if len(content) == 0 {
		return true
	}

	return enry.GetLanguage(filepath.Base(path), content) == "Ruby"
}

// readHead reads up to n bytes from the start of a file.
func readHead(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)

	read, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return buf[:read], nil
}

// loadMetadata parses metadata.rb or metadata.json when present,
// preferring the Ruby form since it is authoritative in modern cookbooks.
func loadMetadata(inv *Inventory) {
	for _, f := range inv.ByKind(KindMetadata) {
		if !strings.HasSuffix(f.Rel, ".rb") {
			continue
		}

		content, err := os.ReadFile(f.Path)
		if err != nil {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("read %s: %v", f.Rel, err))

			continue
		}

		inv.Metadata = ParseMetadataRB(string(content))

		return
	}

	for _, f := range inv.ByKind(KindMetadata) {
		if !strings.HasSuffix(f.Rel, ".json") {
			continue
		}

		content, err := os.ReadFile(f.Path)
		if err != nil {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("read %s: %v", f.Rel, err))

			continue
		}

		meta, err := ParseMetadataJSON(content)
		if err != nil {
			inv.Warnings = append(inv.Warnings, fmt.Sprintf("parse %s: %v", f.Rel, err))

			continue
		}

		inv.Metadata = meta

		return
	}
}
