package tableview

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ubio-intake/internal/domain"
	"ubio-intake/internal/metrics"
	"ubio-intake/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultRefreshInterval period of the background reload
const DefaultRefreshInterval = 30 * time.Second

// Store persistence operations the table view needs
type Store interface {
	LoadAll(ctx context.Context) service.LoadResult
	Update(ctx context.Context, id string, rec domain.Record) (*domain.Record, error)
	Delete(ctx context.Context, id string) error
}

// State everything the table view remembers between events
type State struct {
	Records  []domain.Record
	Filters  Filters
	Sort     SortConfig
	End      int
	Selected map[string]struct{}
	// Banner non-fatal error shown above the table; empty when healthy
	Banner   string
	LoadedAt time.Time
}

func NewState() State {
	return State{
		Records:  []domain.Record{},
		Sort:     DefaultSort,
		End:      InitialWindow,
		Selected: map[string]struct{}{},
	}
}

// View rendered table: filter -> sort -> window
type View struct {
	Rows        []domain.Record `json:"rows"`
	Total       int             `json:"total"`
	Filtered    int             `json:"filtered"`
	End         int             `json:"end"`
	HasMore     bool            `json:"hasMore"`
	Sort        SortConfig      `json:"sort"`
	Filters     Filters         `json:"filters"`
	Selected    []string        `json:"selected"`
	AllSelected bool            `json:"allSelected"`
	Banner      string          `json:"banner,omitempty"`
	LoadedAt    string          `json:"loadedAt,omitempty"`
}

// sorted filtered and sorted records
func (s *State) sorted(loc *time.Location) ([]domain.Record, error) {
	return ApplySort(ApplyFilter(s.Records, s.Filters, loc), s.Sort, loc)
}

// Render computes the visible view of s
func (s *State) Render(loc *time.Location) (*View, error) {
	rows, err := s.sorted(loc)
	if err != nil {
		return nil, err
	}
	visible := Window(rows, s.End)
	// the window itself never shrinks; the reported end does not pass the filtered rows
	end := s.End
	if end > len(rows) {
		end = len(rows)
	}

	selected := make([]string, 0, len(s.Selected))
	for id := range s.Selected {
		selected = append(selected, id)
	}
	sort.Strings(selected)

	v := &View{
		Rows:        visible,
		Total:       len(s.Records),
		Filtered:    len(rows),
		End:         end,
		HasMore:     len(visible) < len(rows),
		Sort:        s.Sort,
		Filters:     s.Filters,
		Selected:    selected,
		AllSelected: len(s.Records) > 0 && allSelected(s.Records, s.Selected),
		Banner:      s.Banner,
	}
	if !s.LoadedAt.IsZero() {
		v.LoadedAt = domain.FormatTimestamp(s.LoadedAt)
	}
	return v, nil
}

func allSelected(records []domain.Record, sel map[string]struct{}) bool {
	for i := range records {
		if _, ok := sel[records[i].ID]; !ok {
			return false
		}
	}
	return true
}

// Controller owns one table view: its state, the periodic reload and the
// record operations started from the table.
type Controller struct {
	store    Store
	interval time.Duration
	loc      *time.Location
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewController(store Store, interval time.Duration, loc *time.Location, m *metrics.Collector, logger *zap.Logger) *Controller {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if loc == nil {
		loc = time.Local
	}
	return &Controller{
		store:    store,
		interval: interval,
		loc:      loc,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		state:    NewState(),
	}
}

// Start loads the records in the background and then reloads every interval
// until Stop or ctx is done. It does not wait for the first load. Starting a
// running controller is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.refreshLoop(runCtx, c.done)
	c.logger.Info("table view refresh started", zap.Duration("interval", c.interval))
}

// Stop cancels the periodic reload and waits for it to exit
func (c *Controller) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
	c.logger.Info("table view refresh stopped")
}

// Running reports whether the periodic reload is active
func (c *Controller) Running() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.cancel != nil
}

func (c *Controller) refreshLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	_ = c.Reload(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Reload(ctx)
		}
	}
}

// Reload replaces the records with a fresh merged load. A degraded load
// still applies the records it got and sets the banner; the error is
// returned for the caller's information only.
func (c *Controller) Reload(ctx context.Context) error {
	res := c.store.LoadAll(ctx)

	c.mu.Lock()
	c.state.Records = res.Records
	c.state.LoadedAt = c.now()
	if res.Err != nil {
		c.state.Banner = res.Err.Error()
	} else {
		c.state.Banner = ""
	}
	c.mu.Unlock()

	switch {
	case res.Success:
		c.metrics.Refresh("ok")
	default:
		c.metrics.Refresh("degraded")
		c.logger.Warn("table reload degraded", zap.Int("records", len(res.Records)), zap.Error(res.Err))
	}
	return res.Err
}

// View renders the current state
func (c *Controller) View() (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.state.Render(c.loc)
	if err == nil {
		c.metrics.SetVisible(len(v.Rows))
	}
	return v, err
}

// Records copy of every loaded record, unfiltered
func (c *Controller) Records() []domain.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Record(nil), c.state.Records...)
}

// SetFilters replaces all filters
func (c *Controller) SetFilters(f Filters) (*View, error) {
	c.mu.Lock()
	c.state.Filters = f
	c.mu.Unlock()
	return c.View()
}

// ResetFilters clears all filters
func (c *Controller) ResetFilters() (*View, error) {
	return c.SetFilters(Filters{})
}

// ToggleSort see ToggleSort
func (c *Controller) ToggleSort(key string) (*View, error) {
	c.mu.Lock()
	next, err := ToggleSort(c.state.Sort, key)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state.Sort = next
	c.mu.Unlock()
	return c.View()
}

// Scroll grows the window when the event is near the bottom
func (c *Controller) Scroll(ev ScrollEvent) (*View, error) {
	if ev.IsNearBottom() {
		c.mu.Lock()
		rows, err := c.state.sorted(c.loc)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.state.End = Grow(c.state.End, len(rows))
		c.mu.Unlock()
	}
	return c.View()
}

// ToggleSelect flips one id in the selection
func (c *Controller) ToggleSelect(id string) (*View, error) {
	c.mu.Lock()
	if _, ok := c.state.Selected[id]; ok {
		delete(c.state.Selected, id)
	} else {
		c.state.Selected[id] = struct{}{}
	}
	c.mu.Unlock()
	return c.View()
}

// SelectAll selects every loaded record (not only the filtered ones), or clears
func (c *Controller) SelectAll(all bool) (*View, error) {
	c.mu.Lock()
	sel := map[string]struct{}{}
	if all {
		for i := range c.state.Records {
			sel[c.state.Records[i].ID] = struct{}{}
		}
	}
	c.state.Selected = sel
	c.mu.Unlock()
	return c.View()
}

// DeleteSelected deletes every selected id concurrently and waits for all.
// Any failure fails the batch: deletes that succeeded stay deleted, the
// selection is kept and the banner set. On success the records are reloaded
// and the selection cleared.
func (c *Controller) DeleteSelected(ctx context.Context) (int, error) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.state.Selected))
	for id := range c.state.Selected {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	if len(ids) == 0 {
		return 0, domain.ErrNothingSelected
	}

	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return c.store.Delete(ctx, id)
		})
	}
	if err := g.Wait(); err != nil {
		c.mu.Lock()
		c.state.Banner = err.Error()
		c.mu.Unlock()
		c.logger.Error("bulk delete failed", zap.Int("selected", len(ids)), zap.Error(err))
		return 0, err
	}

	_ = c.Reload(ctx)

	c.mu.Lock()
	c.state.Selected = map[string]struct{}{}
	c.mu.Unlock()

	c.logger.Info("bulk delete finished", zap.Int("deleted", len(ids)))
	return len(ids), nil
}

// Edit overwrites record id, reloads, and shows the edited copy in place of
// every loaded record with that id.
func (c *Controller) Edit(ctx context.Context, id string, rec domain.Record) (*domain.Record, error) {
	updated, err := c.store.Update(ctx, id, rec)
	if err != nil {
		return nil, err
	}

	_ = c.Reload(ctx)

	c.mu.Lock()
	for i := range c.state.Records {
		if c.state.Records[i].ID == id {
			c.state.Records[i] = *updated
		}
	}
	c.mu.Unlock()
	return updated, nil
}

// Replace swaps the in-memory records (restore / import); nothing is persisted
func (c *Controller) Replace(records []domain.Record) {
	if records == nil {
		records = []domain.Record{}
	}
	c.mu.Lock()
	c.state.Records = records
	c.state.Banner = ""
	c.mu.Unlock()
}

// IsDegraded reports whether err came from a degraded load rather than a hard failure
func IsDegraded(err error) bool {
	return errors.Is(err, domain.ErrRemoteUnavailable)
}
