// Package baseline records known lint findings so a run only reports new
// ones.
package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dotcommander/sitecms/internal/cue"
)

// DefaultFile is the baseline file name, relative to the site root.
const DefaultFile = ".sitecms-baseline.json"

const formatVersion = "1"

// Baseline is a set of finding fingerprints.
type Baseline struct {
	Version      string   `json:"version"`
	CreatedAt    string   `json:"created_at"`
	Fingerprints []string `json:"fingerprints"`
	index        map[string]bool
}

// Create builds a baseline holding every issue.
func Create(issues []cue.ValidationError, now time.Time) *Baseline {
	b := &Baseline{
		Version:   formatVersion,
		CreatedAt: now.UTC().Format(time.RFC3339),
		index:     make(map[string]bool, len(issues)),
	}
	for _, issue := range issues {
		fp := Fingerprint(issue)
		if !b.index[fp] {
			b.index[fp] = true
			b.Fingerprints = append(b.Fingerprints, fp)
		}
	}
	sort.Strings(b.Fingerprints)
	return b
}

// Load reads a baseline file. A missing file yields (nil, nil).
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	b.index = make(map[string]bool, len(b.Fingerprints))
	for _, fp := range b.Fingerprints {
		b.index[fp] = true
	}
	return &b, nil
}

// Save writes the baseline as indented JSON.
func (b *Baseline) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}
	return nil
}

// Len returns the number of fingerprints.
func (b *Baseline) Len() int {
	return len(b.Fingerprints)
}

// IsKnown reports whether issue is in the baseline.
func (b *Baseline) IsKnown(issue cue.ValidationError) bool {
	return b.index[Fingerprint(issue)]
}

// Fingerprint identifies an issue independently of its line number and of
// the specific values quoted in its message, so edits elsewhere in the file
// do not resurface it.
func Fingerprint(issue cue.ValidationError) string {
	key := strings.Join([]string{issue.File, issue.Source, issue.Field, normalizeMessage(issue.Message)}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

var (
	doubleQuoted = regexp.MustCompile(`"[^"]*"`)
	parenthesis  = regexp.MustCompile(`\([^)]*\)`)
	numbers      = regexp.MustCompile(`\b\d+\b`)
)

func normalizeMessage(msg string) string {
	msg = parenthesis.ReplaceAllString(msg, "(*)")
	msg = doubleQuoted.ReplaceAllString(msg, `"*"`)
	msg = numbers.ReplaceAllString(msg, "N")
	return strings.Join(strings.Fields(msg), " ")
}
