package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lorekeep/lore/internal/errors"
	"github.com/lorekeep/lore/internal/event"
)

// RebalanceReport describes one directory split.
type RebalanceReport struct {
	Dir    string              `json:"dir"`
	Groups map[string][]string `json:"groups"` // topic -> moved filenames
}

// RebalanceIfNeeded splits a domain directory into topic subdirectories when
// its non-index file count exceeds the threshold. No-op below the threshold
// and at the tree's maximum depth. Every file present before the split stays
// reachable from the directory's index, directly or via exactly one
// subdirectory row. Topic directories left by an earlier split are merged
// into, never replaced.
//
// Partitioning heuristic: files group by their entry's first tag; entries
// without tags group by the first word of their filename slug. See partition
// for the fallback keys that keep a split from degenerating to one group.
func (t *Tree) RebalanceIfNeeded(dir string) (*RebalanceReport, error) {
	count, err := countLeafFiles(dir)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOFailed, "count files in "+dir, err)
	}
	if count <= t.Threshold {
		return nil, nil
	}

	// Splitting would create directories one level deeper.
	if t.depthOf(dir)+1 > MaxDepth {
		t.logWarn("directory over threshold but at maximum depth, leaving as is",
			"dir", dir, "count", count)
		return nil, nil
	}

	groups, err := t.partition(dir)
	if err != nil {
		return nil, err
	}

	ix, err := LoadIndex(dir)
	if err != nil {
		return nil, err
	}

	report := &RebalanceReport{Dir: dir, Groups: make(map[string][]string)}
	date := t.today()

	for topic, files := range groups {
		topicDir := filepath.Join(dir, topic)
		if err := os.MkdirAll(topicDir, 0755); err != nil {
			return nil, errors.Wrap(errors.CodeIOFailed, "create topic dir "+topicDir, err)
		}

		// An earlier split may have created this topic dir already; merge
		// into its index so previously moved entries stay listed.
		topicIx, loadErr := LoadIndex(topicDir)
		if loadErr != nil {
			topicIx = NewDomainIndex(topic, date)
		}

		var moved []string
		for _, name := range files {
			dst := filepath.Join(topicDir, name)
			if _, statErr := os.Stat(dst); statErr == nil {
				// A same-named entry already lives in the topic dir.
				// Renaming over it would destroy its content, so the new
				// file stays at the domain level with its index row.
				t.logWarn("name collision during rebalance, file left in place",
					"dir", dir, "file", name, "topic", topic)
				continue
			}
			if err := os.Rename(filepath.Join(dir, name), dst); err != nil {
				return nil, errors.Wrap(errors.CodeIOFailed, "move "+name+" into "+topicDir, err)
			}
			summary, updated := "", date
			if row := ix.Find(name); row != nil {
				summary, updated = row.Summary, row.Updated
			}
			topicIx.Upsert(IndexRow{Name: name, Summary: summary, Updated: updated})
			ix.Remove(name)
			moved = append(moved, name)
		}
		if len(moved) == 0 {
			continue
		}
		if err := SaveIndex(topicDir, topicIx, date); err != nil {
			return nil, err
		}

		ix.Upsert(IndexRow{
			Name:    topic + "/",
			Summary: fmt.Sprintf("%d entries — %s", len(topicIx.Rows), topic),
			Updated: date,
		})
		report.Groups[topic] = moved
	}

	if err := SaveIndex(dir, ix, date); err != nil {
		return nil, err
	}

	t.emit(event.TreeRebalanced, map[string]interface{}{"dir": dir, "groups": len(groups)})
	t.logDebug("directory rebalanced", "dir", dir, "groups", len(groups))
	return report, nil
}

// partition assigns each leaf file to a topic group. Grouping keys are
// tried in order until at least two groups form: the entry's first tag,
// its second tag, then the filename's first letter. Files that tie on all
// three are split into halves of the sorted listing, so a split always
// reduces the directory's direct file count.
func (t *Tree) partition(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOFailed, "read "+dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == IndexFile {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	groups := t.groupByTag(dir, names, 0)
	if len(groups) < 2 {
		groups = t.groupByTag(dir, names, 1)
	}
	if len(groups) < 2 {
		groups = groupByInitial(names)
	}
	if len(groups) < 2 {
		groups = splitHalves(names)
	}
	for _, files := range groups {
		sort.Strings(files)
	}
	return groups, nil
}

// groupByTag buckets files by the tag at position idx, via topicFor.
func (t *Tree) groupByTag(dir string, names []string, idx int) map[string][]string {
	groups := make(map[string][]string)
	for _, name := range names {
		topic := t.topicFor(dir, name, idx)
		groups[topic] = append(groups[topic], name)
	}
	return groups
}

// groupByInitial buckets files by the first character of their filename.
func groupByInitial(names []string) map[string][]string {
	groups := make(map[string][]string)
	for _, name := range names {
		topic := sanitizeTopic(name[:1])
		groups[topic] = append(groups[topic], name)
	}
	return groups
}

// splitHalves is the last-resort partition: the sorted listing cut in two.
func splitHalves(names []string) map[string][]string {
	mid := (len(names) + 1) / 2
	groups := map[string][]string{"part-1": names[:mid]}
	if mid < len(names) {
		groups["part-2"] = names[mid:]
	}
	return groups
}

// topicFor picks the grouping key for one file: the entry's tag at tagIdx,
// else the first hyphen-separated word of the filename.
func (t *Tree) topicFor(dir, name string, tagIdx int) string {
	if c, ok := t.loadCandidate(dir, name); ok && len(c.entry.Tags) > tagIdx {
		return sanitizeTopic(c.entry.Tags[tagIdx])
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.IndexByte(stem, '-'); i > 0 {
		stem = stem[:i]
	}
	return sanitizeTopic(stem)
}

// sanitizeTopic makes a tag safe as a directory name.
func sanitizeTopic(s string) string {
	topic := Slugify(s)
	if topic == "untitled" {
		topic = "misc"
	}
	return topic
}
