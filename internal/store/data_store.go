package store

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"BarPulse/internal/domain/keys"
	"BarPulse/internal/domain/models"
	"BarPulse/internal/domain/repository"
	"BarPulse/internal/indicator"
	"BarPulse/pkg/logger"
)

// barJob aggregates one asset's raw ticks into one bar series.
type barJob struct {
	asset models.Asset
	key   string
}

// indicatorJob computes one (indicator, config, asset) series.
type indicatorJob struct {
	def    *indicator.Definition
	cfg    indicator.Config
	asset  models.Asset
	barKey string
	key    string
}

type timeframePlan struct {
	bars       []barJob
	indicators []indicatorJob
}

// DataStore owns the computed tables. A static plan built from the
// indicator definitions maps each timeframe to its bar and indicator jobs;
// a cron entry per timeframe replays the plan every T seconds. The bar
// stage of a firing completes before its indicator stage starts, and
// firings of the same timeframe never overlap.
type DataStore struct {
	raw        *Series[models.Tick]
	bars       *Series[models.Bar]
	indicators *Series[models.IndicatorRow]
	plan       map[int]*timeframePlan
	poolSize   int
	cron       *cron.Cron
	metrics    repository.Metrics
	log        *logger.Logger
}

// NewDataStore builds the computation plan. Bar jobs are deduplicated per
// (timeframe, asset identity) and indicator jobs per series key, so shared
// declarations across definitions compute once.
func NewDataStore(
	defs []*indicator.Definition,
	raw *Series[models.Tick],
	bars *Series[models.Bar],
	indicators *Series[models.IndicatorRow],
	metrics repository.Metrics,
	log *logger.Logger,
) (*DataStore, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("no indicator definitions declared: %w", models.ErrConfiguration)
	}

	plan := make(map[int]*timeframePlan)
	seenBars := make(map[string]struct{})
	seenIndicators := make(map[string]struct{})

	for _, def := range defs {
		for _, cfg := range def.Configs() {
			tf := cfg.Timeframe
			p, ok := plan[tf]
			if !ok {
				p = &timeframePlan{}
				plan[tf] = p
			}
			for _, asset := range def.Assets() {
				barKey := keys.Bar(tf, asset)
				if _, dup := seenBars[barKey]; !dup {
					seenBars[barKey] = struct{}{}
					p.bars = append(p.bars, barJob{asset: asset, key: barKey})
				}
				indKey := keys.Indicator(tf, asset, def.Kind(), cfg.Signature())
				if _, dup := seenIndicators[indKey]; !dup {
					seenIndicators[indKey] = struct{}{}
					p.indicators = append(p.indicators, indicatorJob{
						def: def, cfg: cfg, asset: asset, barKey: barKey, key: indKey,
					})
				}
			}
		}
	}

	poolSize := runtime.NumCPU() - 2
	if poolSize < 1 {
		poolSize = 1
	}

	return &DataStore{
		raw:        raw,
		bars:       bars,
		indicators: indicators,
		plan:       plan,
		poolSize:   poolSize,
		metrics:    metrics,
		log:        log,
	}, nil
}

// Bars exposes the bar table.
func (ds *DataStore) Bars() *Series[models.Bar] { return ds.bars }

// Indicators exposes the indicator table.
func (ds *DataStore) Indicators() *Series[models.IndicatorRow] { return ds.indicators }

// Timeframes returns the scheduled timeframes in ascending order.
func (ds *DataStore) Timeframes() []int {
	out := make([]int, 0, len(ds.plan))
	for tf := range ds.plan {
		out = append(out, tf)
	}
	sort.Ints(out)
	return out
}

// Start schedules one cron entry per timeframe. DelayIfStillRunning queues
// a firing behind a slow predecessor of the same timeframe instead of
// interleaving them; distinct timeframes run independently.
func (ds *DataStore) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.DelayIfStillRunning(cron.DiscardLogger)),
	)
	for tf := range ds.plan {
		tf := tf
		spec := fmt.Sprintf("@every %ds", tf)
		if _, err := c.AddFunc(spec, func() { ds.runCycle(ctx, tf) }); err != nil {
			return fmt.Errorf("schedule timeframe %d: %w", tf, err)
		}
	}
	c.Start()
	ds.cron = c

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		ds.log.Info("data store scheduler stopped")
	}()

	ds.log.Info("data store scheduler started",
		logger.Any("timeframes", ds.Timeframes()),
		logger.Int("pool_size", ds.poolSize))
	return nil
}

// runCycle executes one firing for one timeframe: every bar job, then
// every indicator job, each stage fanned out over the bounded pool.
func (ds *DataStore) runCycle(ctx context.Context, tf int) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	now := start
	p := ds.plan[tf]

	g := new(errgroup.Group)
	g.SetLimit(ds.poolSize)
	for _, job := range p.bars {
		job := job
		g.Go(func() error {
			ds.computeBar(job, tf, now)
			return nil
		})
	}
	_ = g.Wait()

	g = new(errgroup.Group)
	g.SetLimit(ds.poolSize)
	for _, job := range p.indicators {
		job := job
		g.Go(func() error {
			ds.computeIndicator(job)
			return nil
		})
	}
	_ = g.Wait()

	ds.metrics.RecordLatency("aggregation_cycle", time.Since(start).Seconds())
}

// computeBar aggregates the raw ticks of the last tf seconds into one bar.
// An empty window with no prior bar emits nothing; an empty window with a
// prior bar carries it forward unchanged.
func (ds *DataStore) computeBar(job barJob, tf int, now time.Time) {
	ds.bars.Ensure(job.key)

	rawKey := keys.Raw(job.asset)
	if !ds.raw.Has(rawKey) {
		return
	}

	cutoff := now.Add(-time.Duration(tf) * time.Second)
	window := ds.raw.TailWhile(rawKey, func(t models.Tick) bool {
		return t.Time.After(cutoff)
	})

	if len(window) == 0 {
		last, ok := ds.bars.Last(job.key)
		if !ok {
			return
		}
		ds.bars.Append(job.key, last)
		ds.metrics.RecordBar(tf)
		return
	}

	bar := models.Bar{
		Time:  now,
		Open:  window[0].LastPrice,
		High:  window[0].LastPrice,
		Low:   window[0].LastPrice,
		Close: window[len(window)-1].LastPrice,
	}
	for _, t := range window {
		if t.LastPrice > bar.High {
			bar.High = t.LastPrice
		}
		if t.LastPrice < bar.Low {
			bar.Low = t.LastPrice
		}
		bar.Volume += t.Volume
	}

	ds.bars.Append(job.key, bar)
	ds.metrics.RecordBar(tf)
}

// computeIndicator appends one row when the bar series has accumulated
// enough history; anything short of MinLength is skipped quietly.
func (ds *DataStore) computeIndicator(job indicatorJob) {
	ds.indicators.Ensure(job.key)

	if ds.bars.Len(job.barKey) < job.cfg.MinLength {
		return
	}
	window := ds.bars.Tail(job.barKey, job.cfg.MinLength)

	row, err := job.def.Compute(window, job.cfg)
	if err != nil {
		ds.log.Error("indicator compute failed", logger.Error(err),
			logger.String("key", job.key))
		ds.metrics.RecordError("indicator_compute")
		return
	}

	ds.indicators.Append(job.key, row)
	ds.metrics.RecordIndicatorRow(job.def.Kind())
}
