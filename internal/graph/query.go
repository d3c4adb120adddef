package graph

import (
	"fmt"
	"regexp"
)

// AreRelated reports whether source records target under at least one of
// relations. An empty relations list means every registered relation.
// Placeholders are never related to anything.
func (c *Collection) AreRelated(sourceID string, relations []string, targetID string) bool {
	source, ok := c.items[sourceID]
	if !ok || source.IsPlaceholder() {
		return false
	}
	target, ok := c.items[targetID]
	if !ok || target.IsPlaceholder() {
		return false
	}
	if len(relations) == 0 {
		relations = c.registry.Relations()
	}
	return source.IsRelated(relations, targetID)
}

// GetItems returns the sorted ids of the real items whose id matches pattern
// and whose attributes match every entry of filters (attribute name to
// pattern). Patterns are regular expressions anchored at the start of the
// id or attribute value.
func (c *Collection) GetItems(pattern string, filters map[string]string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("item pattern %q: %w", pattern, err)
	}
	attrs := make(map[string]*regexp.Regexp, len(filters))
	for name, p := range filters {
		attrRe, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("attribute %s pattern %q: %w", name, p, err)
		}
		attrs[name] = attrRe
	}

	matches := []string{}
	for _, id := range c.Items() {
		it := c.items[id]
		if it.IsPlaceholder() {
			continue
		}
		if it.IsMatch(re) && it.AttributesMatch(attrs) {
			matches = append(matches, id)
		}
	}
	return matches, nil
}
