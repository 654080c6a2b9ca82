package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// nineBugItems spans two first-word topics so a split has usable groups.
func nineBugItems() []Item {
	titles := []string{
		"auth login flow",
		"auth token refresh",
		"auth password reset",
		"auth session cookie",
		"auth mfa setup",
		"db connection pool",
		"db migration order",
		"db index tuning",
		"db backup schedule",
	}
	items := make([]Item, len(titles))
	for i, title := range titles {
		items[i] = Item{Domain: "bugs", Title: title, Content: "details for " + title}
	}
	return items
}

func TestRebalance_SplitsOverThreshold(t *testing.T) {
	tr := newTestTree(t)

	report := mustWrite(t, tr, nineBugItems()...)
	if len(report.Rebalanced) != 1 {
		t.Fatalf("expected one rebalance, got %d", len(report.Rebalanced))
	}

	rb := report.Rebalanced[0]
	if len(rb.Groups) < 2 {
		t.Fatalf("expected at least 2 groups, got %v", rb.Groups)
	}

	bugsDir := tr.DomainPath("bugs")
	ix, err := LoadIndex(bugsDir)
	if err != nil {
		t.Fatal(err)
	}

	// Every moved file stays reachable: present in its topic dir, listed in
	// the topic index, and the topic itself listed in the domain index.
	for topic, files := range rb.Groups {
		if ix.Find(topic+"/") == nil {
			t.Errorf("topic %s missing from domain index", topic)
		}
		topicIx, err := LoadIndex(filepath.Join(bugsDir, topic))
		if err != nil {
			t.Fatalf("topic %s has no index: %v", topic, err)
		}
		for _, name := range files {
			if _, err := os.Stat(filepath.Join(bugsDir, topic, name)); err != nil {
				t.Errorf("moved file missing: %s/%s", topic, name)
			}
			if topicIx.Find(name) == nil {
				t.Errorf("moved file not in topic index: %s/%s", topic, name)
			}
			if ix.Find(name) != nil {
				t.Errorf("moved file still listed at domain level: %s", name)
			}
		}
	}

	// Nothing but the index left at the domain level.
	left, err := countLeafFiles(bugsDir)
	if err != nil {
		t.Fatal(err)
	}
	if left != 0 {
		t.Errorf("expected 0 leaf files after split, got %d", left)
	}
}

func TestRebalance_NoopAtThreshold(t *testing.T) {
	tr := newTestTree(t)

	report := mustWrite(t, tr, nineBugItems()[:8]...)
	if len(report.Rebalanced) != 0 {
		t.Fatalf("expected no rebalance at threshold, got %v", report.Rebalanced)
	}
}

func TestRebalance_SingleTopicFallsBackToHalves(t *testing.T) {
	tr := newTestTree(t)

	// Same first word, no tags, same filename initial: every grouping key
	// ties, so the split falls back to halves of the sorted listing.
	var items []Item
	pairs := []string{
		"login flow", "token refresh", "password reset", "session cookie",
		"mfa setup", "redirect loop", "logout race", "signup validation",
		"captcha throttle",
	}
	for _, p := range pairs {
		items = append(items, Item{Domain: "bugs", Title: "auth " + p, Content: "x"})
	}
	report := mustWrite(t, tr, items...)

	if len(report.Rebalanced) != 1 {
		t.Fatalf("expected one rebalance, got %v", report.Rebalanced)
	}
	groups := report.Rebalanced[0].Groups
	if len(groups) < 2 {
		t.Fatalf("fallback split produced fewer than 2 groups: %v", groups)
	}

	total := 0
	for _, files := range groups {
		total += len(files)
	}
	if total != 9 {
		t.Errorf("expected all 9 files moved, got %d", total)
	}

	count, err := countLeafFiles(tr.DomainPath("bugs"))
	if err != nil {
		t.Fatal(err)
	}
	if count > tr.Threshold {
		t.Errorf("direct file count still over threshold after split: %d", count)
	}

	problems, err := tr.Audit()
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 0 {
		t.Errorf("index drift after fallback split:\n%s", strings.Join(problems, "\n"))
	}
}

func TestRebalance_MergesIntoExistingTopicDir(t *testing.T) {
	tr := newTestTree(t)

	// First split leaves bugs/auth/ and bugs/db/ behind.
	mustWrite(t, tr, nineBugItems()...)

	// A second wave collides with both topic names. Titles share only their
	// first word with anything already written, so nothing dedups.
	secondWave := []string{
		"db quorum latency", "db shard routing", "db vacuum timing",
		"db replica drift", "db cache warming",
		"auth oauth scopes", "auth device codes", "auth key rotation",
		"auth audit trail",
	}
	var items []Item
	for _, title := range secondWave {
		items = append(items, Item{Domain: "bugs", Title: title, Content: "details for " + title})
	}
	report := mustWrite(t, tr, items...)
	if len(report.Rebalanced) != 1 {
		t.Fatalf("expected a second rebalance, got %v", report.Rebalanced)
	}

	// The earlier wave's entries must survive the merge, on disk and in
	// their topic index.
	dbDir := filepath.Join(tr.DomainPath("bugs"), "db")
	dbIx, err := LoadIndex(dbDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"db-connection-pool.md", "db-quorum-latency.md"} {
		if _, err := os.Stat(filepath.Join(dbDir, name)); err != nil {
			t.Errorf("entry missing from topic dir: %s", name)
		}
		if dbIx.Find(name) == nil {
			t.Errorf("entry missing from merged topic index: %s", name)
		}
	}

	problems, err := tr.Audit()
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 0 {
		t.Errorf("index drift after merged split:\n%s", strings.Join(problems, "\n"))
	}
}

func TestRebalance_CollidingFilenameLeftInPlace(t *testing.T) {
	tr := newTestTree(t)

	// An unindexed entry with a name the next split will also produce.
	authDir := filepath.Join(tr.DomainPath("bugs"), "auth")
	if err := os.MkdirAll(authDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := SaveIndex(authDir, NewDomainIndex("auth", "2026-01-15"), "2026-01-15"); err != nil {
		t.Fatal(err)
	}
	stray := []byte("# stray\nhand-written notes\n")
	if err := os.WriteFile(filepath.Join(authDir, "auth-login-flow.md"), stray, 0644); err != nil {
		t.Fatal(err)
	}

	mustWrite(t, tr, nineBugItems()...)

	// The stray file keeps its content; the new same-named entry stays at
	// the domain level, still listed there.
	got, err := os.ReadFile(filepath.Join(authDir, "auth-login-flow.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(stray) {
		t.Error("pre-existing file overwritten by rebalance")
	}

	bugsDir := tr.DomainPath("bugs")
	if _, err := os.Stat(filepath.Join(bugsDir, "auth-login-flow.md")); err != nil {
		t.Error("colliding entry missing from domain level")
	}
	ix, err := LoadIndex(bugsDir)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Find("auth-login-flow.md") == nil {
		t.Error("colliding entry dropped from domain index")
	}
}

func TestRebalance_GroupsByFirstTag(t *testing.T) {
	tr := newTestTree(t)

	cachingTitles := []string{
		"redis eviction policy", "memcache warm start", "cdn purge strategy",
		"browser asset headers", "etag validation notes",
	}
	queueTitles := []string{
		"rabbitmq retry backoff", "kafka consumer lag",
		"sqs visibility timeout", "nats stream limits",
	}

	var items []Item
	for i, title := range cachingTitles {
		items = append(items, Item{
			Domain:  "research",
			Title:   title,
			Content: "x",
			Tags:    []string{"caching", fmt.Sprintf("detail-%d", i), fmt.Sprintf("extra-%d", i)},
		})
	}
	for i, title := range queueTitles {
		items = append(items, Item{
			Domain:  "research",
			Title:   title,
			Content: "x",
			Tags:    []string{"queues", fmt.Sprintf("note-%d", i), fmt.Sprintf("more-%d", i)},
		})
	}

	report := mustWrite(t, tr, items...)
	if len(report.Rebalanced) != 1 {
		t.Fatalf("expected a rebalance, got %v", report.Rebalanced)
	}

	groups := report.Rebalanced[0].Groups
	if len(groups["caching"]) != 5 || len(groups["queues"]) != 4 {
		t.Errorf("tag grouping wrong: %v", groups)
	}
}

func TestRebalance_DepthGuard(t *testing.T) {
	tr := newTestTree(t)

	// Build a directory at the maximum depth with too many files.
	deep := filepath.Join(tr.DomainPath("plans"), "a", "b", "c", "d")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}
	if err := SaveIndex(deep, NewDomainIndex("d", "2026-01-15"), "2026-01-15"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		e := NewEntry(fmt.Sprintf("deep entry %d", i), "s", "d", nil, "", "2026-01-15")
		name := fmt.Sprintf("deep-entry-%d.md", i)
		if err := os.WriteFile(filepath.Join(deep, name), []byte(e.Render()), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rb, err := tr.RebalanceIfNeeded(deep)
	if err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	if rb != nil {
		t.Fatal("split created directories past the maximum depth")
	}
}

func TestWriteEntries_DedupReachesTopicSubdirs(t *testing.T) {
	tr := newTestTree(t)
	mustWrite(t, tr, nineBugItems()...)

	// The duplicate's entry now lives inside a topic subdirectory.
	report := mustWrite(t, tr, Item{Domain: "bugs", Title: "auth login flow", Content: "more detail"})
	if report.Updated() != 1 {
		t.Fatalf("expected update against a rebalanced entry, got %+v", report.Results)
	}
	if !strings.Contains(report.Results[0].Path, string(filepath.Separator)+"auth"+string(filepath.Separator)) {
		t.Errorf("update did not land in the topic subdir: %s", report.Results[0].Path)
	}
}
