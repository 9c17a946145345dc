package resolve

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/pairlens/internal/model"
	"github.com/ppiankov/pairlens/internal/probe"
)

const testBase = "http://corpus.test/pairs"

// fakeStrategy answers existence questions from in-memory sets.
type fakeStrategy struct {
	dirs  map[string]bool
	files map[string]bool
	known map[string][]string
}

func newFakeStrategy() *fakeStrategy {
	return &fakeStrategy{
		dirs:  make(map[string]bool),
		files: make(map[string]bool),
		known: make(map[string][]string),
	}
}

func (f *fakeStrategy) DirExists(_ context.Context, path string) bool  { return f.dirs[path] }
func (f *fakeStrategy) FileExists(_ context.Context, path string) bool { return f.files[path] }
func (f *fakeStrategy) KnownImages(path string) ([]string, bool) {
	images, ok := f.known[path]
	return images, ok
}

// addPair registers a pair directory containing the given image names.
func (f *fakeStrategy) addPair(dataset, summarySet, pairDir string, images ...string) {
	dir := testBase + "/" + dataset + "/" + summarySet + "/" + pairDir
	f.dirs[dir] = true
	for _, name := range images {
		f.files[dir+"/"+name] = true
	}
}

func newTestResolver(strategy probe.Strategy) *Resolver {
	r := New(testBase, strategy, model.ProbeConfig{Concurrency: 4}, nil)
	r.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestResolver_PairsHaveExactlyTwoSortedImages(t *testing.T) {
	strategy := newFakeStrategy()
	// Three images resolve; only the first two by numeric order survive
	strategy.addPair("Inc500Charts", "sum3_ques2", "pair1", "3.png", "1.png", "2.png")

	resolver := newTestResolver(strategy)
	pairs, err := resolver.ResolveAll(context.Background(), Filter{Dataset: "Inc500Charts"})
	if err != nil {
		t.Fatal(err)
	}

	if len(pairs) != 1 {
		t.Fatalf("Expected one pair, got %d", len(pairs))
	}
	if len(pairs[0].Images) != 2 {
		t.Fatalf("Expected exactly two images, got %d", len(pairs[0].Images))
	}
	if pairs[0].Images[0].Name != "1.png" || pairs[0].Images[1].Name != "2.png" {
		t.Errorf("Expected images [1.png 2.png], got [%s %s]",
			pairs[0].Images[0].Name, pairs[0].Images[1].Name)
	}
}

func TestResolver_NumericSortNotLexicographic(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.addPair("Inc500Charts", "sum3_ques2", "pair1", "1.png", "2.png")
	strategy.addPair("Inc500Charts", "sum3_ques2", "pair2", "10.png", "8.png")

	resolver := newTestResolver(strategy)
	pairs, err := resolver.ResolveAll(context.Background(), Filter{Dataset: "Inc500Charts", Summary: "3", Question: "2"})
	if err != nil {
		t.Fatal(err)
	}

	if len(pairs) != 2 {
		t.Fatalf("Expected two pairs, got %d", len(pairs))
	}

	// "8.png" sorts before "10.png" numerically, after it lexicographically
	second := pairs[1]
	if second.Images[0].Name != "8.png" || second.Images[1].Name != "10.png" {
		t.Errorf("Expected pair2 images [8.png 10.png], got [%s %s]",
			second.Images[0].Name, second.Images[1].Name)
	}
}

func TestResolver_InsufficientImagesDropsPair(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.addPair("Inc500Charts", "sum1_ques1", "pair1", "5.png")

	resolver := newTestResolver(strategy)
	pairs, err := resolver.ResolveAll(context.Background(), Filter{Dataset: "Inc500Charts"})
	if err != nil {
		t.Fatal(err)
	}

	if len(pairs) != 0 {
		t.Errorf("Expected single-image pair to be dropped, got %d pairs", len(pairs))
	}
}

func TestResolver_VirtualPairsFromLooseImages(t *testing.T) {
	strategy := newFakeStrategy()
	// No pair directories; the summary directory itself holds four images
	dir := testBase + "/ATP_rendered_charts/sum1_ques3"
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png"} {
		strategy.files[dir+"/"+name] = true
	}

	resolver := newTestResolver(strategy)
	pairs, err := resolver.ResolveAll(context.Background(), Filter{Dataset: "ATP_rendered_charts", Summary: "1"})
	if err != nil {
		t.Fatal(err)
	}

	if len(pairs) != 2 {
		t.Fatalf("Expected two virtual pairs, got %d", len(pairs))
	}
	if pairs[0].PairDir != "virtual_pair_1" || pairs[1].PairDir != "virtual_pair_2" {
		t.Errorf("Unexpected virtual pair dirs %s, %s", pairs[0].PairDir, pairs[1].PairDir)
	}
	if pairs[0].Images[0].Name != "1.png" || pairs[0].Images[1].Name != "2.png" {
		t.Errorf("Expected first virtual pair [1.png 2.png], got [%s %s]",
			pairs[0].Images[0].Name, pairs[0].Images[1].Name)
	}
	if pairs[0].Metadata.PairNumber != 1 || pairs[1].Metadata.PairNumber != 2 {
		t.Errorf("Unexpected virtual pair numbers %d, %d",
			pairs[0].Metadata.PairNumber, pairs[1].Metadata.PairNumber)
	}
}

func TestResolver_RealPairsSuppressVirtualPairs(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.addPair("ATP_rendered_charts", "sum1_ques3", "pair1", "11.png", "9.png")
	// Loose images alongside the real pair directory must be ignored
	dir := testBase + "/ATP_rendered_charts/sum1_ques3"
	strategy.files[dir+"/20.png"] = true
	strategy.files[dir+"/21.png"] = true

	resolver := newTestResolver(strategy)
	pairs, err := resolver.ResolveAll(context.Background(), Filter{Dataset: "ATP_rendered_charts", Summary: "1"})
	if err != nil {
		t.Fatal(err)
	}

	if len(pairs) != 1 {
		t.Fatalf("Expected one real pair, got %d", len(pairs))
	}
	if pairs[0].PairDir != "pair1" {
		t.Errorf("Expected real pair1, got %s", pairs[0].PairDir)
	}
}

func TestResolver_Deterministic(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.addPair("Inc500Charts", "sum1_ques1", "pair1", "5.png", "7.png")
	strategy.addPair("Inc500Charts", "sum1_ques1", "pair2", "10.png", "8.png")
	strategy.addPair("Inc500Charts", "sum3_ques1", "pair1", "6.png", "7.png")
	strategy.addPair("fifa18_rendered_charts", "sum3_ques2", "pair3", "16.png", "18.png")

	resolver := newTestResolver(strategy)
	ctx := context.Background()

	first, err := resolver.ResolveAll(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := resolver.ResolveAll(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical pair lists across resolutions of the same input")
	}

	// fifa18 precedes Inc500 in dataset order
	if first[0].DatasetKey != "fifa18_rendered_charts" {
		t.Errorf("Expected fifa18 pair first, got %s", first[0].ID)
	}
}

func TestResolver_FilterSemantics(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.addPair("Inc500Charts", "sum1_ques1", "pair1", "5.png", "7.png")
	strategy.addPair("Inc500Charts", "sum3_ques1", "pair1", "6.png", "7.png")
	strategy.addPair("Inc500Charts", "sum3_ques2", "pair1", "1.png", "2.png")

	resolver := newTestResolver(strategy)
	ctx := context.Background()

	pairs, err := resolver.ResolveAll(ctx, Filter{Dataset: "Inc500Charts", Summary: "3"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 2 {
		t.Errorf("Summary filter: expected 2 pairs, got %d", len(pairs))
	}

	pairs, err = resolver.ResolveAll(ctx, Filter{Summary: "3", Question: "2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 || pairs[0].SummarySet != "sum3_ques2" {
		t.Errorf("Combined filter: expected only sum3_ques2, got %v", pairs)
	}

	pairs, err = resolver.ResolveAll(ctx, Filter{Dataset: "ATP_rendered_charts"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 0 {
		t.Errorf("Dataset filter: expected no pairs, got %d", len(pairs))
	}
}

func TestResolver_ManifestStrategyEndToEnd(t *testing.T) {
	prober := probe.NewManifestProber(testBase, nil)
	resolver := newTestResolver(prober)

	pairs, err := resolver.ResolveAll(context.Background(), Filter{Dataset: "Inc500Charts", Summary: "3", Question: "2"})
	if err != nil {
		t.Fatal(err)
	}

	if len(pairs) != 3 {
		t.Fatalf("Expected three authored pairs, got %d", len(pairs))
	}
	// The manifest lists pair2 as [10.png, 8.png]; resolution sorts it
	if pairs[1].Images[0].Name != "8.png" || pairs[1].Images[1].Name != "10.png" {
		t.Errorf("Expected manifest pair2 sorted to [8.png 10.png], got [%s %s]",
			pairs[1].Images[0].Name, pairs[1].Images[1].Name)
	}
}

func TestResolver_MetadataFields(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.addPair("Inc500Charts", "sum3_ques2", "pair2", "10.png", "8.png")

	resolver := newTestResolver(strategy)
	pairs, err := resolver.ResolveAll(context.Background(), Filter{Dataset: "Inc500Charts"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Fatalf("Expected one pair, got %d", len(pairs))
	}

	p := pairs[0]
	if p.ID != "Inc500Charts_sum3_ques2_pair2" {
		t.Errorf("Unexpected pair ID %q", p.ID)
	}
	meta := p.Metadata
	if meta.Dataset != "Inc5000 Company List 2014" {
		t.Errorf("Unexpected dataset display name %q", meta.Dataset)
	}
	if meta.Summary != "sum3" || meta.Question != "ques2" || meta.PairNumber != 2 {
		t.Errorf("Unexpected metadata %+v", meta)
	}
}

func TestLeadingInt(t *testing.T) {
	cases := map[string]int{
		"8.png":      8,
		"10.png":     10,
		"chart3.jpg": 3,
		"cover.png":  0,
	}
	for name, want := range cases {
		if got := leadingInt(name); got != want {
			t.Errorf("leadingInt(%q) = %d, expected %d", name, got, want)
		}
	}
}
