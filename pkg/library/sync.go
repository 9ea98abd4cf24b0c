// ABOUTME: Reconciles the library document with a fresh crawl of the root
// ABOUTME: Prunes missing paths, merges crawled fields, then saves

package library

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nainya/assetlib/pkg/item"
)

// ProgressFunc receives sync progress. percent is in (0, 1] while items
// are merged and -1 for the post-sync and save phases.
type ProgressFunc func(message string, percent float64)

// SyncReport summarizes one sync run
type SyncReport struct {
	RunID   string        `json:"run_id" yaml:"run_id"`
	Library string        `json:"library" yaml:"library"`
	Crawled int           `json:"crawled" yaml:"crawled"`
	Pruned  int           `json:"pruned" yaml:"pruned"`
	Total   int           `json:"total" yaml:"total"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Sync re-crawls the root and reconciles the document with it:
//  1. entries whose path no longer exists are dropped
//  2. the root is crawled to RecursiveDepth
//  3. crawled fields are merged over the persisted ones, keeping the rest
//  4. PostSync may rewrite the document
//  5. the document is saved
//
// A library without a root syncs nothing. ctx is checked between items;
// a cancelled sync saves nothing.
func (l *Library) Sync(ctx context.Context, progress ProgressFunc) (report SyncReport, err error) {
	start := time.Now()
	report = SyncReport{RunID: uuid.NewString(), Library: l.name}
	if progress == nil {
		progress = func(string, float64) {}
	}

	if !l.hasRoot() {
		l.log.Warn("No library root, nothing to sync").Send()
		return report, nil
	}

	defer func() {
		report.Elapsed = time.Since(start)
		status := "ok"
		if err != nil {
			status = "error"
		}
		l.metrics.RecordSync(l.name, status, report.Crawled, report.Pruned, report.Total, report.Elapsed)
		l.log.LogSync(report.RunID, report.Crawled, report.Pruned, report.Total, report.Elapsed, err)
	}()

	doc, err := l.Read()
	if err != nil {
		return report, err
	}
	report.Pruned = pruneMissing(doc)

	crawled, err := l.crawl(ctx)
	if err != nil {
		return report, err
	}
	report.Crawled = len(crawled)

	doc, err = mergeCrawled(ctx, doc, crawled, progress)
	if err != nil {
		return report, err
	}

	progress("Post Sync", -1)
	if l.postSync != nil {
		doc = l.postSync(doc)
	}

	progress("Saving Cache", -1)
	if err := l.Save(doc); err != nil {
		return report, fmt.Errorf("save synced document: %w", err)
	}
	report.Total = len(doc)
	return report, nil
}

// crawl collects the items under the root, leaving out the document's own
// files
func (l *Library) crawl(ctx context.Context) ([]*item.Item, error) {
	var items []*item.Item
	for it := range l.registry.Crawl(l.root, l.depth) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(it.Path, l.dataPath) {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// pruneMissing drops the entries whose path is gone and returns how many
func pruneMissing(doc Document) int {
	pruned := 0
	for p := range doc {
		if _, err := os.Stat(p); err != nil {
			delete(doc, p)
			pruned++
		}
	}
	return pruned
}

// mergeCrawled returns doc with each crawled item's fields merged over the
// persisted entry for its path
func mergeCrawled(ctx context.Context, doc Document, items []*item.Item, progress ProgressFunc) (Document, error) {
	count := len(items)
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(fmt.Sprintf("%d/%d", i+1, count), float64(i+1)/float64(count))

		fields := doc[it.Path]
		if fields == nil {
			fields = item.Fields{}
		}
		maps.Copy(fields, it.Fields)
		doc[it.Path] = fields
	}
	return doc, nil
}
