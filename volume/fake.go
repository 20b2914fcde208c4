package volume

import (
	"math"
	"sync"
)

// Fake is an in-memory Device. Step emulates a device that quantizes the
// level it stores, so reads may differ slightly from the last write.
type Fake struct {
	mu     sync.Mutex
	db     float64
	rng    Range
	step   float64
	getErr error
	setErr error
	sets   []float64
}

func NewFake(initialDB float64) *Fake {
	return &Fake{db: initialDB, rng: DefaultRange}
}

func (f *Fake) Name() string { return "fake" }
func (f *Fake) Close()       {}

func (f *Fake) VolumeDB() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.db, nil
}

func (f *Fake) SetVolumeDB(db float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	db = f.rng.Clamp(db)
	if f.step > 0 {
		db = math.Round(db/f.step) * f.step
	}
	f.db = db
	f.sets = append(f.sets, db)
	return nil
}

func (f *Fake) Range() (Range, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng, nil
}

// SetExternal changes the level without recording a write, the way a user
// dragging the system slider would.
func (f *Fake) SetExternal(db float64) {
	f.mu.Lock()
	f.db = db
	f.mu.Unlock()
}

func (f *Fake) SetRange(r Range) {
	f.mu.Lock()
	f.rng = r
	f.mu.Unlock()
}

func (f *Fake) SetStep(step float64) {
	f.mu.Lock()
	f.step = step
	f.mu.Unlock()
}

func (f *Fake) FailReads(err error) {
	f.mu.Lock()
	f.getErr = err
	f.mu.Unlock()
}

func (f *Fake) FailWrites(err error) {
	f.mu.Lock()
	f.setErr = err
	f.mu.Unlock()
}

// Sets returns a copy of every level written so far.
func (f *Fake) Sets() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.sets...)
}
