// Package corpus loads labeled document splits restricted to a set of
// named categories.
package corpus

import (
	"context"
	"fmt"
	"sort"

	"github.com/cognicore/topical/pkg/topical/internalerr"
)

// Split names.
const (
	SplitTrain = "train"
	SplitTest  = "test"
	SplitAll   = "all"
)

// Loader supplies documents and integer labels for one split.
// Labels index into Dataset.Categories.
type Loader interface {
	Load(ctx context.Context, split string, categories []string) (Dataset, error)
}

// Dataset is one labeled split.
type Dataset struct {
	Docs       []string
	Labels     []int
	Categories []string
	Names      []string
}

// Len returns the number of documents.
func (d Dataset) Len() int { return len(d.Docs) }

// Validate checks that docs and labels line up and every label names a category.
func (d Dataset) Validate() error {
	if len(d.Docs) != len(d.Labels) {
		return fmt.Errorf("dataset: %d docs, %d labels: %w", len(d.Docs), len(d.Labels), internalerr.ErrLengthMismatch)
	}
	for i, l := range d.Labels {
		if l < 0 || l >= len(d.Categories) {
			return fmt.Errorf("dataset: label %d for doc %d: %w", l, i, internalerr.ErrLabelOutOfRange)
		}
	}
	return nil
}

// Category returns the name for label, or "" when out of range.
func (d Dataset) Category(label int) string {
	if label < 0 || label >= len(d.Categories) {
		return ""
	}
	return d.Categories[label]
}

// Counts returns the number of documents per category.
func (d Dataset) Counts() map[string]int {
	counts := make(map[string]int, len(d.Categories))
	for _, l := range d.Labels {
		counts[d.Category(l)]++
	}
	return counts
}

// Record is one labeled document before split and category filtering.
type Record struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Split    string `json:"split"`
	Name     string `json:"name,omitempty"`
}

// Static serves an in-memory record set.
type Static struct {
	Records []Record
	Remove  []string
}

// Load filters the records like the file-backed loaders do.
func (s Static) Load(ctx context.Context, split string, categories []string) (Dataset, error) {
	c, err := newCleaner(s.Remove)
	if err != nil {
		return Dataset{}, err
	}
	return fromRecords(ctx, s.Records, split, categories, c)
}

func validSplit(split string) error {
	switch split {
	case SplitTrain, SplitTest, SplitAll:
		return nil
	}
	return fmt.Errorf("%w: unknown split %q", internalerr.ErrInvalidInput, split)
}

// recordSplit treats an unset split as training data.
func recordSplit(r Record) string {
	if r.Split == "" {
		return SplitTrain
	}
	return r.Split
}

func fromRecords(ctx context.Context, records []Record, split string, categories []string, c cleaner) (Dataset, error) {
	if err := validSplit(split); err != nil {
		return Dataset{}, err
	}

	present := make(map[string]bool)
	var matching []Record
	for _, r := range records {
		if split != SplitAll && recordSplit(r) != split {
			continue
		}
		present[r.Category] = true
		matching = append(matching, r)
	}

	cats, err := resolveCategories(categories, present)
	if err != nil {
		return Dataset{}, err
	}
	index := make(map[string]int, len(cats))
	for i, cat := range cats {
		index[cat] = i
	}

	ds := Dataset{Categories: cats}
	for i, r := range matching {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		label, ok := index[r.Category]
		if !ok {
			continue
		}
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("%s/%d", r.Category, i)
		}
		ds.Docs = append(ds.Docs, c.clean(r.Text))
		ds.Labels = append(ds.Labels, label)
		ds.Names = append(ds.Names, name)
	}
	if ds.Len() == 0 {
		return Dataset{}, fmt.Errorf("load %s split: %w", split, internalerr.ErrEmptyCorpus)
	}
	return ds, nil
}

// resolveCategories returns the requested categories sorted and deduplicated,
// or every present category when none are requested.
func resolveCategories(requested []string, present map[string]bool) ([]string, error) {
	seen := make(map[string]bool)
	var cats []string
	if len(requested) == 0 {
		for cat := range present {
			cats = append(cats, cat)
		}
	} else {
		for _, cat := range requested {
			if seen[cat] {
				continue
			}
			seen[cat] = true
			if !present[cat] {
				return nil, fmt.Errorf("category %q: %w", cat, internalerr.ErrNotFound)
			}
			cats = append(cats, cat)
		}
	}
	sort.Strings(cats)
	return cats, nil
}
