package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/tidwall/gjson"
)

// StaticItemSource serves a fixed set of confluence items for a single
// source kind, used for file backed and offline runs.
type StaticItemSource struct {
	kind  shared.SourceKind
	items []shared.ConfluenceItem
}

// Ensure the StaticItemSource implements the ConfluenceSourcer interface.
var _ shared.ConfluenceSourcer = (*StaticItemSource)(nil)

// NewStaticItemSource initializes a new static item source.
func NewStaticItemSource(kind shared.SourceKind, items []shared.ConfluenceItem) *StaticItemSource {
	return &StaticItemSource{
		kind:  kind,
		items: items,
	}
}

// Kind returns the source kind shared by the produced items.
func (s *StaticItemSource) Kind() shared.SourceKind {
	return s.kind
}

// Items produces the source's confluence items for the provided market.
func (s *StaticItemSource) Items(_ context.Context, _ string) ([]shared.ConfluenceItem, error) {
	return s.items, nil
}

// LoadItemSources loads confluence item sources from a json file keyed by
// source kind:
//
//	{"cam-daily": [{"name": "R3", "center": 101.5, "strength": 1.5}, ...], ...}
//
// The low, high, strength and timestamp fields are optional per item.
func LoadItemSources(path string) ([]shared.ConfluenceSourcer, error) {
	readb, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading confluence items from file with path '%s': %w", path, err)
	}

	if !gjson.ValidBytes(readb) {
		return nil, fmt.Errorf("confluence items file with path '%s' is not valid json", path)
	}

	var parseErr error
	sources := make([]shared.ConfluenceSourcer, 0)
	gjson.ParseBytes(readb).ForEach(func(key, value gjson.Result) bool {
		kind := shared.SourceKind(key.String())
		items := make([]shared.ConfluenceItem, 0, len(value.Array()))
		for _, entry := range value.Array() {
			item, err := parseItem(kind, entry)
			if err != nil {
				parseErr = err
				return false
			}
			items = append(items, item)
		}
		sources = append(sources, NewStaticItemSource(kind, items))
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	// Sort for a deterministic source order regardless of the json key order.
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Kind() < sources[j].Kind()
	})

	return sources, nil
}

// parseItem converts a json entry into a confluence item.
func parseItem(kind shared.SourceKind, entry gjson.Result) (shared.ConfluenceItem, error) {
	item := shared.ConfluenceItem{
		Name:     entry.Get("name").String(),
		Center:   entry.Get("center").Float(),
		Kind:     kind,
		Strength: entry.Get("strength").Float(),
	}

	if low := entry.Get("low"); low.Exists() {
		item.Low = shared.FloatPtr(low.Float())
	}
	if high := entry.Get("high"); high.Exists() {
		item.High = shared.FloatPtr(high.Float())
	}
	if ts := entry.Get("timestamp"); ts.Exists() {
		parsed, err := time.Parse(shared.DateLayout, ts.String())
		if err != nil {
			return shared.ConfluenceItem{}, fmt.Errorf("parsing timestamp for item %q: %w", item.Name, err)
		}
		item.Timestamp = parsed
	}

	err := item.Validate()
	if err != nil {
		return shared.ConfluenceItem{}, err
	}

	return item, nil
}
