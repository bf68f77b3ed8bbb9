package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// JSONLLoader reads one Record per line from a JSONL file.
type JSONLLoader struct {
	Path   string
	Remove []string

	logger *logrus.Entry
}

// NewJSONLLoader creates a loader for path.
func NewJSONLLoader(path string, logger *logrus.Entry) *JSONLLoader {
	if logger == nil {
		logger = logrus.WithField("component", "corpus")
	}
	return &JSONLLoader{Path: path, logger: logger}
}

// Load reads the file and filters it by split and categories.
func (l *JSONLLoader) Load(ctx context.Context, split string, categories []string) (Dataset, error) {
	c, err := newCleaner(l.Remove)
	if err != nil {
		return Dataset{}, err
	}
	records, err := l.readRecords()
	if err != nil {
		return Dataset{}, err
	}
	return fromRecords(ctx, records, split, categories, c)
}

// readRecords skips malformed lines with a warning.
func (l *JSONLLoader) readRecords() ([]Record, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", l.Path, err)
	}

	logger := l.logger
	if logger == nil {
		logger = logrus.WithField("component", "corpus")
	}

	var records []Record
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path": l.Path,
				"line": i + 1,
			}).Warn("Skipping malformed JSON line")
			continue
		}
		if r.Category == "" {
			logger.WithFields(logrus.Fields{"path": l.Path, "line": i + 1}).Warn("Skipping record without category")
			continue
		}
		if r.Name == "" {
			r.Name = fmt.Sprintf("%s:%d", l.Path, i+1)
		}
		records = append(records, r)
	}
	return records, nil
}
