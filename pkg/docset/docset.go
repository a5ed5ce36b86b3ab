// Package docset loads implementor fragments from a rendered
// documentation tree.
//
// A doc build places one fragment per trait under
// <root>/implementors/<module path>/trait.<Name>.js. The scanner walks
// that subtree, parses every fragment, and merges the results into one
// implementor table per trait. The trait identity is derived from the
// fragment's relative path:
//
//	implementors/core/ops/drop/trait.Drop.js  →  core::ops::drop::Drop
package docset

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/traitdex/pkg/errors"
	"github.com/matzehuels/traitdex/pkg/fragment"
	"github.com/matzehuels/traitdex/pkg/index"
	"github.com/matzehuels/traitdex/pkg/observability"
)

// implementorsDir is the subtree of a doc root holding fragments.
const implementorsDir = "implementors"

// fragmentPrefix and fragmentSuffix bracket the trait name in a
// fragment filename (e.g. "trait.Drop.js").
const (
	fragmentPrefix = "trait."
	fragmentSuffix = ".js"
)

// Docset is a rendered documentation tree on disk.
type Docset struct {
	root string
}

// New creates a docset rooted at the given directory. The directory must
// exist; fragments may be added to it between scans.
func New(root string) (*Docset, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "doc root %s does not exist", root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "doc root %s is not a directory", root)
	}
	return &Docset{root: root}, nil
}

// Root returns the docset's root directory.
func (d *Docset) Root() string { return d.root }

// Set holds the scan result: one merged implementor table per trait.
// Trait order is the (lexical) order fragments were discovered in.
type Set struct {
	traits []string
	tables map[string]*index.Table
	files  int
}

// Traits returns the trait paths in discovery order.
func (s *Set) Traits() []string {
	out := make([]string, len(s.traits))
	copy(out, s.traits)
	return out
}

// Table returns the merged implementor table for a trait.
func (s *Set) Table(trait string) (*index.Table, bool) {
	t, ok := s.tables[trait]
	return t, ok
}

// Len returns the number of traits in the set.
func (s *Set) Len() int { return len(s.traits) }

// FragmentCount returns the number of fragment files parsed.
func (s *Set) FragmentCount() int { return s.files }

// Scan walks the implementors subtree and parses every fragment.
// Traits appearing in multiple fragments are merged; a crate key
// appearing twice for the same trait is reported as INVALID_FRAGMENT.
// A doc root without an implementors subtree yields an empty set.
func (d *Docset) Scan(ctx context.Context) (*Set, error) {
	start := time.Now()
	observability.Docset().OnScanStart(ctx, d.root)

	set := &Set{tables: make(map[string]*index.Table)}
	base := filepath.Join(d.root, implementorsDir)

	err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == base {
				return filepath.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !isFragmentName(entry.Name()) {
			return nil
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		trait, err := TraitFromPath(rel)
		if err != nil {
			return err
		}
		return d.loadFragment(ctx, set, trait, path, rel)
	})

	observability.Docset().OnScanComplete(ctx, d.root, set.Len(), set.files, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// loadFragment parses one fragment file and merges it into the set.
func (d *Docset) loadFragment(ctx context.Context, set *Set, trait, path, rel string) error {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err == nil {
		var tbl *index.Table
		tbl, err = fragment.Parse(data)
		if err == nil {
			err = set.merge(trait, tbl)
		}
	}

	crates := 0
	if err == nil {
		set.files++
		crates = set.tables[trait].Len()
	}
	observability.Docset().OnFragmentParsed(ctx, trait, rel, crates, time.Since(start), err)

	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInvalidFragment
		}
		return errors.Wrap(code, err, "fragment %s", rel)
	}
	return nil
}

// merge folds a fragment's table into the per-trait table.
func (s *Set) merge(trait string, tbl *index.Table) error {
	existing, ok := s.tables[trait]
	if !ok {
		s.traits = append(s.traits, trait)
		s.tables[trait] = tbl
		return nil
	}
	return existing.Merge(tbl)
}

// isFragmentName reports whether a filename looks like a trait fragment.
func isFragmentName(name string) bool {
	return strings.HasPrefix(name, fragmentPrefix) &&
		strings.HasSuffix(name, fragmentSuffix) &&
		len(name) > len(fragmentPrefix)+len(fragmentSuffix)
}

// TraitFromPath derives the fully-qualified trait path from a fragment's
// path relative to the implementors directory. The path must pass
// [errors.ValidateDocPath] and its final element must be a fragment
// filename (trait.<Name>.js).
func TraitFromPath(rel string) (string, error) {
	rel = filepath.ToSlash(rel)
	if err := errors.ValidateDocPath(rel); err != nil {
		return "", err
	}
	dir, file := "", rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		dir, file = rel[:i], rel[i+1:]
	}
	if !isFragmentName(file) {
		return "", errors.New(errors.ErrCodeInvalidPath, "%s is not a fragment path", rel)
	}

	name := strings.TrimSuffix(strings.TrimPrefix(file, fragmentPrefix), fragmentSuffix)
	trait := name
	if dir != "" {
		trait = strings.ReplaceAll(dir, "/", "::") + "::" + name
	}

	if err := errors.ValidateTraitPath(trait); err != nil {
		return "", err
	}
	return trait, nil
}
