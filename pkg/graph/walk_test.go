package graph

import "testing"

func endpoint(name string, documented, tested bool) Item {
	it := Item{
		Kind:    KindEndpoint,
		Name:    name,
		Request: &Request{Method: "GET", URL: "https://api.example.com/" + name},
	}
	if documented {
		it.Description = "Returns the " + name
		it.Responses = []Response{{Name: "ok", Code: 200}}
	}
	if tested {
		it.Events = []Event{{Listen: "test", Script: []string{`pm.test("status", () => pm.response.to.have.status(200));`}}}
	}
	return it
}

func folder(name string, children ...Item) Item {
	return Item{Kind: KindFolder, Name: name, Children: children}
}

func TestTotalEndpointsAdditivity(t *testing.T) {
	tree := []Item{
		endpoint("a", true, false),
		folder("v1",
			endpoint("b", false, true),
			folder("admin",
				endpoint("c", true, true),
				endpoint("d", false, false),
			),
		),
		folder("empty"),
	}

	if got := TotalEndpoints(tree); got != 4 {
		t.Fatalf("expected 4 endpoints, got %d", got)
	}

	// Folder totals are the sum of their children plus direct endpoints.
	direct := 1
	sub := 0
	for _, it := range tree {
		if it.Kind == KindFolder {
			sub += TotalEndpoints(it.Children)
		}
	}
	if direct+sub != TotalEndpoints(tree) {
		t.Fatalf("additivity broken: %d direct + %d nested != %d total", direct, sub, TotalEndpoints(tree))
	}

	if doc := DocumentedEndpoints(tree); doc > TotalEndpoints(tree) {
		t.Fatalf("documented (%d) exceeds total (%d)", doc, TotalEndpoints(tree))
	}
}

func TestDocumentationPredicate(t *testing.T) {
	descOnly := Item{Kind: KindEndpoint, Description: "has words"}
	exampleOnly := Item{Kind: KindEndpoint, Responses: []Response{{Name: "ok"}}}
	both := Item{Kind: KindEndpoint, Description: "has words", Responses: []Response{{Name: "ok"}}}
	blankDesc := Item{Kind: KindEndpoint, Description: "   ", Responses: []Response{{Name: "ok"}}}

	if descOnly.IsDocumented() {
		t.Fatal("description without example must not count as documented")
	}
	if exampleOnly.IsDocumented() {
		t.Fatal("example without description must not count as documented")
	}
	if !both.IsDocumented() {
		t.Fatal("description plus example must count as documented")
	}
	if blankDesc.IsDocumented() {
		t.Fatal("whitespace-only description must not count as documented")
	}
}

func TestTestedPredicate(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want bool
	}{
		{"test event with script", endpoint("x", false, true), true},
		{"no events", endpoint("x", false, false), false},
		{"prerequest only", Item{Kind: KindEndpoint, Events: []Event{{Listen: "prerequest", Script: []string{"x"}}}}, false},
		{"test event empty script", Item{Kind: KindEndpoint, Events: []Event{{Listen: "test", Script: []string{"  ", ""}}}}, false},
		{"folder never tested", folder("f", endpoint("x", false, true)), false},
	}
	for _, tc := range tests {
		if got := tc.item.IsTested(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestTestedEndpointsWalksFolders(t *testing.T) {
	tree := []Item{
		folder("v1", endpoint("a", false, true), endpoint("b", false, false)),
		endpoint("c", false, true),
	}
	if got := TestedEndpoints(tree); got != 2 {
		t.Fatalf("expected 2 tested endpoints, got %d", got)
	}
}
