package persist

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/imgajeed76/pgrid/internal/metrics"
	"github.com/imgajeed76/pgrid/internal/viewstate"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every backend call made by an Adapter.
const DefaultTimeout = 2 * time.Second

// Adapter reads and writes the persisted slices of a grid's view state.
// Load and Save swallow backend and decoding failures after logging them.
type Adapter struct {
	backend Backend
	log     zerolog.Logger
	timeout time.Duration
}

// NewAdapter wraps b. Pass zerolog.Nop() to silence failure logging.
func NewAdapter(b Backend, log zerolog.Logger) *Adapter {
	return &Adapter{
		backend: b,
		log:     log.With().Str("component", "persist").Logger(),
		timeout: DefaultTimeout,
	}
}

// Backend returns the wrapped backend.
func (a *Adapter) Backend() Backend { return a.backend }

// Load reads both slots of grid. ok is false when neither slot held a
// usable value, in which case the caller keeps its defaults.
func (a *Adapter) Load(ctx context.Context, grid string) (p viewstate.Persisted, ok bool) {
	if data, found := a.get(ctx, StateKey(grid)); found {
		if err := json.Unmarshal(data, &p); err != nil {
			a.log.Warn().Err(err).Str("grid", grid).Msg("ignoring corrupt stored view state")
			p = viewstate.Persisted{}
		} else {
			ok = true
		}
	}

	if data, found := a.get(ctx, SizingKey(grid)); found {
		var sizing map[string]int
		if err := json.Unmarshal(data, &sizing); err != nil {
			a.log.Warn().Err(err).Str("grid", grid).Msg("ignoring corrupt stored column sizing")
		} else {
			p.ColumnSizing = sizing
			ok = true
		}
	}
	return p, ok
}

// Reconcile drops the parts of p that no longer fit schema.
func (a *Adapter) Reconcile(p viewstate.Persisted, schema viewstate.Schema) viewstate.Persisted {
	return p.Reconcile(schema)
}

// Save writes both slots.
func (a *Adapter) Save(ctx context.Context, grid string, p viewstate.Persisted) {
	a.SaveState(ctx, grid, p)
	a.SaveSizing(ctx, grid, p.ColumnSizing)
}

// SaveState writes the state slot.
func (a *Adapter) SaveState(ctx context.Context, grid string, p viewstate.Persisted) {
	a.put(ctx, StateKey(grid), p)
}

// SaveSizing writes the column sizing slot.
func (a *Adapter) SaveSizing(ctx context.Context, grid string, sizing map[string]int) {
	if sizing == nil {
		sizing = map[string]int{}
	}
	a.put(ctx, SizingKey(grid), sizing)
}

// Reset deletes every slot of grid. Unlike Load and Save it reports
// failures, since it is only called on explicit request.
func (a *Adapter) Reset(ctx context.Context, grid string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	keys := make([]Key, len(Slots))
	for i, slot := range Slots {
		keys[i] = Key{Grid: grid, Slot: slot}
	}

	var err error
	if b, ok := a.backend.(BatchDeleter); ok {
		err = b.DeleteAll(ctx, keys)
	} else {
		var errs []error
		for _, k := range keys {
			errs = append(errs, a.backend.Delete(ctx, k))
		}
		err = errors.Join(errs...)
	}
	metrics.ObservePersist("delete", err)
	return err
}

// Raw returns the stored bytes for key, for inspection.
func (a *Adapter) Raw(ctx context.Context, key Key) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.backend.Get(ctx, key)
}

// Grids lists the grid ids that have any stored slot.
func (a *Adapter) Grids(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	keys, err := a.backend.Keys(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var grids []string
	for _, k := range keys {
		if !seen[k.Grid] {
			seen[k.Grid] = true
			grids = append(grids, k.Grid)
		}
	}
	return grids, nil
}

func (a *Adapter) get(ctx context.Context, key Key) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	data, err := a.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		metrics.ObservePersist("load", nil)
		return nil, false
	}
	metrics.ObservePersist("load", err)
	if err != nil {
		a.log.Warn().Err(err).Str("key", key.String()).Msg("view state unavailable, using defaults")
		return nil, false
	}
	return data, true
}

func (a *Adapter) put(ctx context.Context, key Key, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.log.Warn().Err(err).Str("key", key.String()).Msg("cannot encode view state")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	err = a.backend.Put(ctx, key, data)
	metrics.ObservePersist("save", err)
	if err != nil {
		a.log.Warn().Err(err).Str("key", key.String()).Msg("failed to save view state")
		return
	}
	a.log.Debug().Str("key", key.String()).Int("bytes", len(data)).Msg("saved view state")
}
