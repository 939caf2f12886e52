package extractor

import (
	"context"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/catalog-cli/internal/dedup"
	"github.com/sells-group/catalog-cli/internal/model"
)

// seedList is the optional YAML tuning file for the keyword adapter:
// extra stop terms dropped outright and extra intent markers stripped
// from keyword terms before they become candidate names.
type seedList struct {
	StopTerms   []string `yaml:"stop_terms"`
	IntentTerms []string `yaml:"intent_terms"`
}

// defaultStopPrefixes mark informational queries that never name an offering.
var defaultStopPrefixes = []string{
	"how ", "what ", "why ", "when ", "where ", "who ", "can ", "does ", "is ", "are ", "diy ",
}

// defaultIntentMarkers are transactional qualifiers stripped from terms.
var defaultIntentMarkers = []string{
	"near me", "best", "cheap", "affordable", "top rated", "local",
	"cost", "price", "prices", "quote", "estimate", "hire", "buy",
	"company", "companies", "contractor", "contractors",
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Keyword extracts candidates from search-keyword research rows,
// weighting confidence by search volume.
type Keyword struct {
	store SourceStore
	cfg   Config

	loadOnce sync.Once
	stop     []string
	intent   []string
}

// NewKeyword creates the keyword adapter.
func NewKeyword(store SourceStore, cfg Config) *Keyword {
	return &Keyword{store: store, cfg: cfg}
}

func (k *Keyword) Source() model.CandidateSource { return model.SourceKeyword }

const (
	keywordBaseConfidence = 0.35
	keywordVolumeWeight   = 0.4
)

// Extract filters keyword rows down to transactional terms and converts
// them into candidates. Volume-weighted: the highest-volume term in the
// batch anchors the confidence scale.
func (k *Keyword) Extract(ctx context.Context, tenantID string) (*model.SingleSourceResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return failure(model.SourceKeyword, start, err), err
	}

	k.loadSeedList()

	rows, err := k.store.Keywords(ctx, tenantID)
	if err != nil {
		return failure(model.SourceKeyword, start, err), nil
	}
	if len(rows) == 0 {
		err := eris.New("keyword: no keyword research on file for tenant")
		return failure(model.SourceKeyword, start, err), nil
	}

	maxVolume := 0
	for _, row := range rows {
		if row.Volume > maxVolume {
			maxVolume = row.Volume
		}
	}

	seen := make(map[string]struct{})
	var cands []model.ExtractedCandidate
	dropped := 0

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return failure(model.SourceKeyword, start, err), err
		}

		term := strings.ToLower(strings.TrimSpace(row.Term))
		if term == "" || k.informational(term, row.Intent) {
			dropped++
			continue
		}

		name := k.stripIntentMarkers(term)
		key := dedup.NormalizeName(name)
		if key == "" {
			dropped++
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		conf := keywordBaseConfidence
		if maxVolume > 0 {
			conf += keywordVolumeWeight * float64(row.Volume) / float64(maxVolume)
		}

		cands = append(cands, model.ExtractedCandidate{
			Name:       name,
			IsService:  serviceWords.MatchString(name),
			Confidence: conf,
			Tags:       []string{"search-demand"},
			Raw:        row,
		})
	}

	zap.L().Debug("keyword: extraction complete",
		zap.String("tenant", tenantID),
		zap.Int("rows", len(rows)),
		zap.Int("dropped", dropped),
		zap.Int("candidates", len(cands)),
	)

	return finalize(model.SourceKeyword, cands, start, k.cfg.maxCandidates(), map[string]any{
		"rows":    len(rows),
		"dropped": dropped,
	}), nil
}

// informational reports whether a term is a research query rather than a
// purchasable offering. An explicit intent label wins over heuristics.
func (k *Keyword) informational(term, intent string) bool {
	switch strings.ToLower(intent) {
	case "transactional", "commercial":
		return false
	case "informational", "navigational":
		return true
	}
	for _, prefix := range defaultStopPrefixes {
		if strings.HasPrefix(term, prefix) {
			return true
		}
	}
	for _, stop := range k.stop {
		if term == stop {
			return true
		}
	}
	return false
}

// stripIntentMarkers removes transactional qualifiers so "furnace repair
// near me" becomes "furnace repair".
func (k *Keyword) stripIntentMarkers(term string) string {
	markers := append(append([]string{}, defaultIntentMarkers...), k.intent...)
	for _, marker := range markers {
		term = strings.ReplaceAll(term, marker, " ")
	}
	term = multiSpace.ReplaceAllString(term, " ")
	return strings.TrimSpace(term)
}

// loadSeedList reads the optional YAML seed list once. A missing or
// malformed file leaves the defaults in place.
func (k *Keyword) loadSeedList() {
	k.loadOnce.Do(func() {
		if k.cfg.SeedListPath == "" {
			return
		}
		raw, err := os.ReadFile(k.cfg.SeedListPath)
		if err != nil {
			zap.L().Warn("keyword: seed list unreadable", zap.String("path", k.cfg.SeedListPath), zap.Error(err))
			return
		}
		var list seedList
		if err := yaml.Unmarshal(raw, &list); err != nil {
			zap.L().Warn("keyword: seed list malformed", zap.String("path", k.cfg.SeedListPath), zap.Error(err))
			return
		}
		for _, t := range list.StopTerms {
			k.stop = append(k.stop, strings.ToLower(strings.TrimSpace(t)))
		}
		for _, t := range list.IntentTerms {
			k.intent = append(k.intent, strings.ToLower(strings.TrimSpace(t)))
		}
	})
}
