package control

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"loudctl/config"
	"loudctl/log"
	"loudctl/loudness"
	"loudctl/volume"
)

var (
	ErrCaptureUnavailable = errors.New("capture unavailable")
	ErrActuationFailed    = errors.New("actuation failed")
)

const (
	DefaultTick = 100 * time.Millisecond

	// ActuationThresholdDB is the smallest change worth sending to the
	// device, unless the slew rate itself caps the step below it.
	ActuationThresholdDB = 0.1

	// DeadbandDB separates Tracking from Adjusting.
	DeadbandDB = 0.5

	defaultQueueSize = 64
)

// VolumeSink is the output device the loop drives.
type VolumeSink interface {
	VolumeDB() (float64, error)
	SetVolumeDB(db float64) error
	Range() (volume.Range, error)
}

// StatusSink receives a snapshot every tick. Publish must not block.
type StatusSink interface {
	Publish(Status)
}

type Option func(*Driver)

func WithTick(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.tick = d
		}
	}
}

func WithStatusSink(s StatusSink) Option {
	return func(dr *Driver) { dr.status = s }
}

func WithQueueSize(n int) Option {
	return func(dr *Driver) {
		if n > 0 {
			dr.blocks = make(chan loudness.Block, n)
		}
	}
}

func WithGate(g loudness.GateConfig) Option {
	return func(dr *Driver) { dr.gateCfg = &g }
}

// Driver runs the control loop. Feed and SetCapture may be called from the
// capture goroutine; Snapshot from anywhere. Everything else belongs to the
// goroutine calling Tick or Run.
type Driver struct {
	store  *config.Store
	sink   VolumeSink
	status StatusSink
	tick   time.Duration

	blocks     chan loudness.Block
	dropped    atomic.Uint64
	captureErr atomic.Pointer[error]

	gateCfg  *loudness.GateConfig
	est      *loudness.Estimator
	slew     *SlewLimiter
	gate     *HoldReleaseGate
	override *OverrideDetector
	rng      volume.Range
	cfg      config.Config
	cfgErr   error
	mode     Mode
	primed   bool

	actuations atomic.Int64
	overrides  atomic.Int64

	snap atomic.Pointer[Status]
}

func NewDriver(store *config.Store, sink VolumeSink, opts ...Option) *Driver {
	cfg := store.Load()
	d := &Driver{
		store:  store,
		sink:   sink,
		tick:   DefaultTick,
		blocks: make(chan loudness.Block, defaultQueueSize),
		rng:    volume.DefaultRange,
		cfg:    cfg,
		mode:   ModeTracking,
	}
	for _, o := range opts {
		o(d)
	}
	var estOpts []loudness.Option
	if d.gateCfg != nil {
		estOpts = append(estOpts, loudness.WithGate(*d.gateCfg))
	}
	d.est = loudness.NewEstimator(cfg.Window(), estOpts...)
	d.slew = NewSlewLimiter(cfg.SlewRateDBPerS)
	d.gate = NewHoldReleaseGate(cfg.HoldTime())
	d.override = NewOverrideDetector(cfg.ManualPause())
	if !cfg.Enabled {
		d.mode = ModeDisabled
	}
	d.snap.Store(&Status{Mode: d.mode, TargetDB: cfg.TargetLUFS, CaptureOK: true})
	return d
}

// Feed hands a captured block to the loop without blocking. It returns
// false when the queue is full and the block was dropped.
func (d *Driver) Feed(b loudness.Block) bool {
	select {
	case d.blocks <- b:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// SetCapture records whether capture is delivering blocks. A nil error
// means it is.
func (d *Driver) SetCapture(err error) {
	if err == nil {
		d.captureErr.Store(nil)
		return
	}
	if !errors.Is(err, ErrCaptureUnavailable) {
		err = fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	d.captureErr.Store(&err)
}

func (d *Driver) captureError() error {
	if p := d.captureErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Snapshot returns the status published by the most recent tick.
func (d *Driver) Snapshot() Status {
	return *d.snap.Load()
}

// Stats reports counters for the session summary.
func (d *Driver) Stats() (actuations, overrides int, dropped uint64) {
	return int(d.actuations.Load()), int(d.overrides.Load()), d.dropped.Load()
}

// RefreshRange re-reads the device range, keeping the old one on error.
func (d *Driver) RefreshRange() error {
	r, err := d.sink.Range()
	if err != nil {
		return err
	}
	if r.MinDB > r.MaxDB || math.IsNaN(r.MinDB) || math.IsNaN(r.MaxDB) {
		return fmt.Errorf("device reported bad range [%g, %g]", r.MinDB, r.MaxDB)
	}
	d.rng = r
	return nil
}

// Start primes the loop from the device. Failures are not fatal; the first
// tick that can read the device primes it instead.
func (d *Driver) Start(now time.Time) {
	if err := d.RefreshRange(); err != nil {
		log.Warnf("volume range: %v, using [%g, %g]", err, d.rng.MinDB, d.rng.MaxDB)
	}
	if v, err := d.readVolume(); err == nil {
		d.prime(v, now)
	} else {
		log.Warnf("read volume: %v", err)
	}
}

// readVolume reads the device level clamped into its range, so a muted or
// zero volume becomes the range minimum rather than -Inf.
func (d *Driver) readVolume() (float64, error) {
	v, err := d.sink.VolumeDB()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, errors.New("device reported NaN volume")
	}
	return d.rng.Clamp(v), nil
}

func (d *Driver) prime(v float64, now time.Time) {
	d.slew.Reset(v, now)
	d.override.Adopt(v)
	d.primed = true
}

// Run ticks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	d.Start(time.Now())
	t := time.NewTicker(d.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			d.Tick(now)
		}
	}
}

// Tick runs one pass of the loop and publishes the resulting status.
func (d *Driver) Tick(now time.Time) Status {
	d.applyConfig()
	d.drain()

	est := d.est.Estimate()
	st := Status{
		At:         now,
		TargetDB:   d.cfg.TargetLUFS,
		EstimateDB: est.DB,
		Silent:     est.Silent,
		Err:        d.cfgErr,
	}
	captureErr := d.captureError()
	st.CaptureOK = captureErr == nil

	reported, err := d.readVolume()
	if err != nil {
		st.Err = fmt.Errorf("read volume: %w", err)
		st.VolumeDB = d.slew.Last()
		d.slew.Touch(now)
		if !d.cfg.Enabled {
			return d.publish(st, ModeDisabled)
		}
		return d.publish(st, ModeSilent)
	}
	if !d.primed {
		d.prime(reported, now)
	}
	st.VolumeDB = reported

	if !d.cfg.Enabled {
		d.slew.Reset(reported, now)
		d.gate.Reset()
		d.override.Adopt(reported)
		d.override.ClearPause()
		return d.publish(st, ModeDisabled)
	}

	commanded := d.override.Commanded()
	if d.override.Observe(reported, now) {
		d.overrides.Add(1)
		log.ManualOverride(commanded, reported, d.override.PausedUntil())
		d.slew.Reset(reported, now)
		d.gate.Reset()
	}
	if d.override.Paused(now) {
		d.slew.Touch(now)
		st.PausedUntil = d.override.PausedUntil()
		return d.publish(st, ModePaused)
	}

	if captureErr != nil || est.Silent {
		if captureErr != nil {
			st.Err = captureErr
		}
		d.slew.Touch(now)
		d.gate.Reset()
		return d.publish(st, ModeSilent)
	}

	desired, ok := Desired(d.cfg.TargetLUFS, est.DB, d.rng)
	if !ok {
		d.slew.Touch(now)
		return d.publish(st, d.mode)
	}
	st.DesiredDB = desired

	last := d.slew.Last()
	gated := d.gate.Apply(last, desired, now)
	next := d.rng.Clamp(d.slew.Step(gated, now))
	st.Holding = d.gate.Holding()
	st.AtMax = d.cfg.TargetLUFS-est.DB > d.rng.MaxDB && next >= d.rng.MaxDB-DeadbandDB

	if math.Abs(next-last) > ActuationThresholdDB || (d.slew.Limited() && next != last) {
		if err := d.sink.SetVolumeDB(next); err != nil {
			st.Err = fmt.Errorf("%w: %v", ErrActuationFailed, err)
			log.ActuationFailed(next, err)
		} else {
			d.slew.Commit(next)
			d.override.Commit(next, now)
			d.actuations.Add(1)
			log.Actuation(last, next, desired)
			st.VolumeDB = next
		}
	}

	mode := ModeTracking
	if math.Abs(gated-d.slew.Last()) > DeadbandDB {
		mode = ModeAdjusting
	}
	return d.publish(st, mode)
}

func (d *Driver) applyConfig() {
	if err := d.store.LastError(); err != d.cfgErr {
		if err != nil {
			log.ConfigRejected(err)
		}
		d.cfgErr = err
	}

	cfg := d.store.Load()
	if cfg == d.cfg {
		return
	}
	d.est.SetWindow(cfg.Window())
	d.slew.SetRate(cfg.SlewRateDBPerS)
	d.gate.SetHold(cfg.HoldTime())
	d.override.SetPause(cfg.ManualPause())
	if cfg.Enabled != d.cfg.Enabled {
		log.Infof("controller enabled=%t", cfg.Enabled)
	}
	d.cfg = cfg
}

func (d *Driver) drain() {
	for {
		select {
		case b := <-d.blocks:
			if err := d.est.Add(b); err != nil {
				log.InvalidBlock(err)
			}
		default:
			return
		}
	}
}

func (d *Driver) publish(st Status, mode Mode) Status {
	if mode != d.mode {
		log.ModeChange(d.mode.String(), mode.String(), st.EstimateDB, st.VolumeDB)
		d.mode = mode
	}
	st.Mode = mode
	d.snap.Store(&st)
	if d.status != nil {
		d.status.Publish(st)
	}
	return st
}
