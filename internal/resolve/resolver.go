// Package resolve enumerates the dataset / summary-set / pair hierarchy into
// the flat, ordered pair list the rating session walks.
package resolve

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/pairlens/internal/model"
	"github.com/ppiankov/pairlens/internal/probe"
	"go.uber.org/zap"
)

// Filter narrows resolution. All fields are optional and combine with AND
// semantics; zero values match everything.
type Filter struct {
	Dataset  string // exact dataset key, e.g. "Inc500Charts"
	Summary  string // summary index, e.g. "3" matches "sum3_*"
	Question string // question index, e.g. "2" matches "*_ques2"
}

func (f Filter) matchesDataset(key string) bool {
	return f.Dataset == "" || f.Dataset == key
}

func (f Filter) matchesSummarySet(name string) bool {
	if f.Summary != "" && !strings.HasPrefix(name, "sum"+f.Summary+"_") {
		return false
	}
	// Trailing separator so both "sum1_ques1" and "sum1_ques1_25" forms match.
	if f.Question != "" && !strings.Contains(name+"_", "_ques"+f.Question+"_") {
		return false
	}
	return true
}

// Resolver walks the corpus through an existence strategy and produces the
// ordered pair list. The output order is dataset order, then configured
// summary-set order, then ascending pair number — stable across resolutions
// of the same input regardless of probe completion order.
type Resolver struct {
	baseURL  string
	strategy probe.Strategy
	cfg      model.ProbeConfig
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a resolver rooted at baseURL using the given existence
// strategy.
func New(baseURL string, strategy probe.Strategy, cfg model.ProbeConfig, logger *zap.Logger) *Resolver {
	if cfg.MaxPairNumber <= 0 {
		cfg.MaxPairNumber = 20
	}
	if cfg.MaxNumericImage <= 0 {
		cfg.MaxNumericImage = 30
	}
	if cfg.MaxNamedImage <= 0 {
		cfg.MaxNamedImage = 15
	}
	if cfg.MaxImagesPerDir <= 0 {
		cfg.MaxImagesPerDir = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		baseURL:  strings.TrimRight(baseURL, "/"),
		strategy: strategy,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// ResolveAll enumerates every pair matching the filter. A broken or
// inaccessible subtree contributes zero pairs and never aborts the scan.
func (r *Resolver) ResolveAll(ctx context.Context, filter Filter) ([]model.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summarySets := model.SummarySets()
	var pairs []model.Pair

	for _, dataset := range model.Datasets() {
		if !filter.matchesDataset(dataset.Key) {
			continue
		}

		for _, ssName := range summarySets[dataset.Key] {
			if !filter.matchesSummarySet(ssName) {
				continue
			}

			resolved := r.resolveSummarySet(ctx, dataset, ssName)
			pairs = append(pairs, resolved...)
		}
	}

	r.logger.Info("resolution complete",
		zap.Int("pairs", len(pairs)),
		zap.String("dataset_filter", filter.Dataset))
	return pairs, nil
}

// resolveSummarySet finds the real pair directories under one summary set,
// falling back to virtual pairs synthesized from loose images when no
// numbered pair directory exists. Real pairs always take precedence.
func (r *Resolver) resolveSummarySet(ctx context.Context, dataset model.Dataset, ssName string) []model.Pair {
	summaryPath := fmt.Sprintf("%s/%s/%s", r.baseURL, dataset.Key, ssName)

	var pairs []model.Pair
	pairNumbers := r.findPairNumbers(ctx, summaryPath)
	for _, n := range pairNumbers {
		pairDir := fmt.Sprintf("pair%d", n)
		pair, ok := r.buildPair(ctx, dataset, ssName, pairDir, summaryPath+"/"+pairDir, nil)
		if ok {
			pairs = append(pairs, pair)
		}
	}
	// Any real numbered pair directory, even an unusable one, suppresses the
	// virtual-pair fallback.
	if len(pairNumbers) > 0 {
		return pairs
	}

	// No numbered pair directories: group the summary directory's own images
	// two at a time, in sorted order.
	images := r.imagesIn(ctx, summaryPath)
	for i := 0; i+1 < len(images); i += 2 {
		pairDir := fmt.Sprintf("virtual_pair_%d", i/2+1)
		pair, ok := r.buildPair(ctx, dataset, ssName, pairDir, summaryPath, images[i:i+2])
		if ok {
			pairs = append(pairs, pair)
		}
	}
	if len(pairs) > 0 {
		r.logger.Info("synthesized virtual pairs",
			zap.String("path", summaryPath), zap.Int("count", len(pairs)))
	}
	return pairs
}

// findPairNumbers probes pair1..pairN concurrently and gathers the hits back
// into ascending order. Probes are independent, so fan-out keeps latency
// proportional to the slowest probe instead of the sum.
func (r *Resolver) findPairNumbers(ctx context.Context, summaryPath string) []int {
	exists := make([]bool, r.cfg.MaxPairNumber)
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.cfg.Concurrency)

	for i := 0; i < r.cfg.MaxPairNumber; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			path := fmt.Sprintf("%s/pair%d", summaryPath, idx+1)
			exists[idx] = r.strategy.DirExists(ctx, path)
		}(i)
	}
	wg.Wait()

	var numbers []int
	for i, ok := range exists {
		if ok {
			numbers = append(numbers, i+1)
		}
	}
	return numbers
}

// buildPair assembles one pair record. When images is nil they are discovered
// in fullPath. Pairs resolving fewer than two images are dropped; more than
// two keep exactly the first two in sorted numeric order — the ordering
// raters rely on for the Chart A / Chart B labels.
func (r *Resolver) buildPair(ctx context.Context, dataset model.Dataset, ssName, pairDir, fullPath string, images []model.Image) (model.Pair, bool) {
	if images == nil {
		images = r.imagesIn(ctx, fullPath)
	}
	if len(images) < 2 {
		r.logger.Warn("insufficient images for pair comparison",
			zap.String("path", fullPath), zap.Int("found", len(images)))
		return model.Pair{}, false
	}

	ss := model.ParseSummarySet(ssName)
	return model.Pair{
		ID:         model.PairID(dataset.Key, ssName, pairDir),
		DatasetKey: dataset.Key,
		SummarySet: ssName,
		PairDir:    pairDir,
		FullPath:   fullPath,
		Images:     images[:2],
		Metadata: model.PairMetadata{
			Dataset:    dataset.DisplayName,
			Summary:    ss.Summary,
			Question:   ss.Question,
			PairNumber: pairNumber(pairDir),
			Created:    r.now().UTC(),
		},
	}, true
}

// imagesIn discovers the images in a directory, sorted by the leading integer
// in each filename. The strategy's authored list is used when it has one;
// otherwise bounded candidate names are probed in concurrent waves, stopping
// once enough images resolve.
func (r *Resolver) imagesIn(ctx context.Context, dirPath string) []model.Image {
	names, ok := r.strategy.KnownImages(dirPath)
	if !ok {
		names = r.probeCandidates(ctx, dirPath)
	}

	images := make([]model.Image, 0, len(names))
	for _, name := range names {
		path := dirPath + "/" + name
		fullURL := path
		if r.cfg.CacheBust {
			fullURL = probe.CacheBust(path, r.now())
		}
		images = append(images, model.Image{Name: name, Path: path, FullURL: fullURL})
	}

	sort.SliceStable(images, func(i, j int) bool {
		a, b := leadingInt(images[i].Name), leadingInt(images[j].Name)
		if a != b {
			return a < b
		}
		return images[i].Name < images[j].Name
	})
	return images
}

// candidateNames generates the bounded candidate filename list: numeric names
// first, then chartN/imageN variants.
func (r *Resolver) candidateNames() []string {
	extensions := []string{".png", ".jpg", ".jpeg"}

	var names []string
	for i := 1; i <= r.cfg.MaxNumericImage; i++ {
		for _, ext := range extensions {
			names = append(names, strconv.Itoa(i)+ext)
		}
	}
	for i := 1; i <= r.cfg.MaxNamedImage; i++ {
		for _, ext := range extensions {
			names = append(names, fmt.Sprintf("chart%d%s", i, ext))
			names = append(names, fmt.Sprintf("image%d%s", i, ext))
		}
	}
	return names
}

// probeCandidates fans out existence probes in waves of the configured
// concurrency, gathering each wave back in candidate order so results are
// deterministic regardless of probe arrival order.
func (r *Resolver) probeCandidates(ctx context.Context, dirPath string) []string {
	candidates := r.candidateNames()

	var found []string
	for start := 0; start < len(candidates) && len(found) < r.cfg.MaxImagesPerDir; start += r.cfg.Concurrency {
		end := start + r.cfg.Concurrency
		if end > len(candidates) {
			end = len(candidates)
		}
		wave := candidates[start:end]

		exists := make([]bool, len(wave))
		var wg sync.WaitGroup
		for i, name := range wave {
			wg.Add(1)
			go func(idx int, name string) {
				defer wg.Done()
				exists[idx] = r.strategy.FileExists(ctx, dirPath+"/"+name)
			}(i, name)
		}
		wg.Wait()

		for i, ok := range exists {
			if ok && len(found) < r.cfg.MaxImagesPerDir {
				found = append(found, wave[i])
			}
		}
	}
	return found
}

var leadingIntPattern = regexp.MustCompile(`\d+`)

// leadingInt extracts the first integer in a filename; names without digits
// sort first.
func leadingInt(name string) int {
	match := leadingIntPattern.FindString(name)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// pairNumber extracts the sequence number from "pair<N>" or
// "virtual_pair_<N>".
func pairNumber(pairDir string) int {
	return leadingInt(pairDir)
}
