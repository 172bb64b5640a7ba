package scan

import (
	"context"
	"encoding/binary"
	"fmt"

	"valscan/process"
	"valscan/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/dustin/go-humanize"
	fsm "github.com/qmuntal/stateless"
)

// State is the phase of a scan session
type State string

const (
	// StateUninitialized has no candidate set yet
	StateUninitialized State = "uninitialized"
	// StateScanning holds a candidate set that further targets narrow down
	StateScanning State = "scanning"
)

var (
	firstScanTrigger = fsm.Trigger("first-scan")
	narrowTrigger    = fsm.Trigger("narrow")
	resetTrigger     = fsm.Trigger("reset")
)

// Pass records one completed scan pass
type Pass struct {
	Number int
	Target uint32
	Before int // candidates before the pass, 0 for a first scan
	After  int
	Stats  Stats
}

// Engine runs scan passes against one process. It is not safe for
// concurrent use.
type Engine struct {
	proc         process.Process
	order        binary.ByteOrder
	writableOnly bool
	log          *logger.Logger

	sm         *fsm.StateMachine
	candidates Candidates
	history    []Pass
}

// Option is a function that configures an Engine
type Option func(*Engine)

// WithByteOrder sets the order words are decoded in. The default is little endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(e *Engine) {
		e.order = order
	}
}

// WithWritableOnly restricts passes to regions that are both readable and writable
func WithWritableOnly(writableOnly bool) Option {
	return func(e *Engine) {
		e.writableOnly = writableOnly
	}
}

// WithLogger replaces the per-process logger
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an engine in the uninitialized state
func New(proc process.Process, options ...Option) *Engine {
	e := &Engine{
		proc:  proc,
		order: binary.LittleEndian,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.log == nil {
		e.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("scan-%d", proc.GetPID())))
	}

	e.sm = fsm.NewStateMachine(StateUninitialized)
	e.sm.Configure(StateUninitialized).
		Permit(firstScanTrigger, StateScanning).
		Ignore(resetTrigger)
	e.sm.Configure(StateScanning).
		PermitReentry(narrowTrigger).
		Permit(resetTrigger, StateUninitialized)
	e.sm.OnTransitioned(func(_ context.Context, t fsm.Transition) {
		e.log.Debugln("Transition", t.Source, "->", t.Destination, "on", t.Trigger)
	})

	return e
}

// State returns the current phase
func (e *Engine) State() State {
	return e.sm.MustState().(State)
}

// Candidates returns a copy of the current candidate set
func (e *Engine) Candidates() Candidates {
	return e.candidates.Clone()
}

// History returns the completed passes, oldest first
func (e *Engine) History() []Pass {
	out := make([]Pass, len(e.history))
	copy(out, e.history)
	return out
}

// Scan runs a first scan when there is no candidate set and a narrowing scan otherwise.
func (e *Engine) Scan(target uint32) (Candidates, error) {
	if e.State() == StateUninitialized {
		return e.First(target)
	}
	return e.Narrow(target)
}

// First scans the whole readable address space for target, discarding any
// previous candidate set.
func (e *Engine) First(target uint32) (Candidates, error) {
	e.Reset()

	e.log.Infoln("Starting first scan for", target)

	var found Candidates
	var stats Stats
	err := e.withPass(func(regions []memory_map.MemoryRegion, src WordSource) error {
		var err error
		found, stats, err = FirstScan(regions, src, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.commit(firstScanTrigger, Pass{Target: target, After: len(found), Stats: stats}, found)
	e.log.Infoln("First scan complete, scanned", humanize.IBytes(stats.BytesScanned), "in", stats.Regions, "regions, found", len(found), "matches")
	if stats.RegionsFaulted > 0 {
		e.log.Debugln("Skipped", stats.RegionsFaulted, "regions that could not be read")
	}
	return found.Clone(), nil
}

// Narrow keeps the candidates that now hold target.
func (e *Engine) Narrow(target uint32) (Candidates, error) {
	if e.State() != StateScanning {
		return nil, ErrNotScanning
	}

	previous := e.candidates
	e.log.Infoln("Narrowing", len(previous), "candidates to", target)

	var current Candidates
	var stats Stats
	err := e.withPass(func(regions []memory_map.MemoryRegion, src WordSource) error {
		var err error
		current, stats, err = Narrow(previous, regions, src, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.commit(narrowTrigger, Pass{Target: target, Before: len(previous), After: len(current), Stats: stats}, current)
	e.log.Infoln("Narrowing complete,", len(current), "of", len(previous), "candidates left")
	return current.Clone(), nil
}

// Reset drops the candidate set and history
func (e *Engine) Reset() {
	if err := e.sm.Fire(resetTrigger); err != nil {
		e.log.Warn("unable to reset scan state: ", err)
	}
	e.candidates = nil
	e.history = nil
}

func (e *Engine) commit(trigger fsm.Trigger, pass Pass, candidates Candidates) {
	if err := e.sm.Fire(trigger); err != nil {
		// the trigger table permits both transitions from the states we fire them in
		e.log.Warn("unexpected scan transition: ", err)
	}
	pass.Number = len(e.history) + 1
	e.history = append(e.history, pass)
	e.candidates = candidates
}

// withPass checks the target is still alive, re-reads its regions, opens its
// memory image and hands both to fn.
func (e *Engine) withPass(fn func(regions []memory_map.MemoryRegion, src WordSource) error) error {
	pid := e.proc.GetPID()

	if !e.proc.IsAlive() {
		e.log.Warn("Process ", pid, " is gone")
		return fmt.Errorf("pid %d: %w", pid, process.ErrProcessGone)
	}

	regions, err := e.proc.Regions()
	if err != nil {
		return e.lost(err)
	}

	regions = e.scannable(regions)
	if len(regions) == 0 {
		return fmt.Errorf("pid %d: %w", pid, ErrNoReadableRegions)
	}

	img, err := e.proc.OpenMemory()
	if err != nil {
		return e.lost(err)
	}
	defer img.Close()

	if err := fn(regions, process.NewWordReader(img, e.order)); err != nil {
		return e.lost(err)
	}
	return nil
}

// lost turns err into ErrProcessGone when the target exited during the pass.
func (e *Engine) lost(err error) error {
	if !e.proc.IsAlive() {
		e.log.Warn("Process ", e.proc.GetPID(), " exited during scan: ", err)
		return fmt.Errorf("pid %d: %w: %w", e.proc.GetPID(), process.ErrProcessGone, err)
	}
	return err
}

func (e *Engine) scannable(regions []memory_map.MemoryRegion) []memory_map.MemoryRegion {
	out := regions[:0:0]
	for _, region := range regions {
		if !region.IsReadable() {
			continue
		}
		if e.writableOnly && !region.IsWritable() {
			continue
		}
		out = append(out, region)
	}
	return out
}
