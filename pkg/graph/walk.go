package graph

import "strings"

// IsDocumented reports whether an endpoint carries both a description and at
// least one saved example response. Folders are never documented.
func (i Item) IsDocumented() bool {
	if i.Kind != KindEndpoint {
		return false
	}
	return strings.TrimSpace(i.Description) != "" && len(i.Responses) > 0
}

// IsTested reports whether an endpoint has a test event with a non-empty
// executable script body.
func (i Item) IsTested() bool {
	if i.Kind != KindEndpoint {
		return false
	}
	for _, ev := range i.Events {
		if ev.Listen != "test" {
			continue
		}
		if strings.TrimSpace(strings.Join(ev.Script, "\n")) != "" {
			return true
		}
	}
	return false
}

// TotalEndpoints counts endpoints across the item tree. Folder totals are
// strictly additive over their children.
func TotalEndpoints(items []Item) int {
	return countEndpoints(items, func(Item) bool { return true })
}

// DocumentedEndpoints counts endpoints satisfying IsDocumented.
func DocumentedEndpoints(items []Item) int {
	return countEndpoints(items, Item.IsDocumented)
}

// TestedEndpoints counts endpoints satisfying IsTested.
func TestedEndpoints(items []Item) int {
	return countEndpoints(items, Item.IsTested)
}

func countEndpoints(items []Item, match func(Item) bool) int {
	total := 0
	for _, it := range items {
		switch it.Kind {
		case KindFolder:
			total += countEndpoints(it.Children, match)
		case KindEndpoint:
			if match(it) {
				total++
			}
		}
	}
	return total
}
