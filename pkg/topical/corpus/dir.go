package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/topical/pkg/topical/internalerr"
)

// DefaultPrefix names the split directories of the by-date newsgroup layout.
const DefaultPrefix = "20news-bydate"

// DirLoader reads a local copy of the by-date layout:
//
//	<Root>/<Prefix>-train/<category>/<file>
//	<Root>/<Prefix>-test/<category>/<file>
type DirLoader struct {
	Root    string
	Prefix  string
	Remove  []string
	Shuffle bool
	Seed    int64

	logger *logrus.Entry
}

// NewDirLoader creates a loader rooted at root. A nil logger falls back to
// the standard logrus logger.
func NewDirLoader(root string, logger *logrus.Entry) *DirLoader {
	if logger == nil {
		logger = logrus.WithField("component", "corpus")
	}
	return &DirLoader{Root: root, Prefix: DefaultPrefix, logger: logger}
}

// Load reads one split. The "all" split concatenates train and test.
func (l *DirLoader) Load(ctx context.Context, split string, categories []string) (Dataset, error) {
	if err := validSplit(split); err != nil {
		return Dataset{}, err
	}
	c, err := newCleaner(l.Remove)
	if err != nil {
		return Dataset{}, err
	}

	splits := []string{split}
	if split == SplitAll {
		splits = []string{SplitTrain, SplitTest}
	}

	present := make(map[string]bool)
	for _, s := range splits {
		names, err := l.categoryDirs(s)
		if err != nil {
			return Dataset{}, err
		}
		for _, name := range names {
			present[name] = true
		}
	}
	cats, err := resolveCategories(categories, present)
	if err != nil {
		return Dataset{}, err
	}

	ds := Dataset{Categories: cats}
	for _, s := range splits {
		for label, cat := range cats {
			if err := l.readCategory(ctx, s, cat, label, c, &ds); err != nil {
				return Dataset{}, err
			}
		}
	}
	if ds.Len() == 0 {
		return Dataset{}, fmt.Errorf("load %s split from %s: %w", split, l.Root, internalerr.ErrEmptyCorpus)
	}

	if l.Shuffle {
		rng := rand.New(rand.NewSource(l.Seed))
		rng.Shuffle(ds.Len(), func(i, j int) {
			ds.Docs[i], ds.Docs[j] = ds.Docs[j], ds.Docs[i]
			ds.Labels[i], ds.Labels[j] = ds.Labels[j], ds.Labels[i]
			ds.Names[i], ds.Names[j] = ds.Names[j], ds.Names[i]
		})
	}

	l.log().WithFields(logrus.Fields{
		"split":      split,
		"docs":       ds.Len(),
		"categories": len(cats),
	}).Debug("Loaded corpus split")
	return ds, nil
}

func (l *DirLoader) splitDir(split string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return filepath.Join(l.Root, prefix+"-"+split)
}

// categoryDirs lists the category directories of a split.
func (l *DirLoader) categoryDirs(split string) ([]string, error) {
	dir := l.splitDir(split)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("split directory %s: %w", dir, internalerr.ErrNotFound)
		}
		return nil, fmt.Errorf("read split directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (l *DirLoader) readCategory(ctx context.Context, split, cat string, label int, c cleaner, ds *Dataset) error {
	dir := filepath.Join(l.splitDir(split), cat)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// category present in the other split only
			return nil
		}
		return fmt.Errorf("read category %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read document %s: %w", path, err)
		}
		ds.Docs = append(ds.Docs, c.clean(decode(data)))
		ds.Labels = append(ds.Labels, label)
		ds.Names = append(ds.Names, filepath.Join(split, cat, e.Name()))
	}
	return nil
}

func (l *DirLoader) log() *logrus.Entry {
	if l.logger == nil {
		l.logger = logrus.WithField("component", "corpus")
	}
	return l.logger
}
