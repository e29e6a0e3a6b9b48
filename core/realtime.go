// Realtime event register: two word-sized bitsets (exec state, exec
// alarm) written by any producer — interrupt callbacks, control-pin
// handlers, the foreground itself — and drained only by the foreground.
// Writers OR in, the drainer swaps to zero; there is no lock anywhere on
// this path.
package core

import "sync/atomic"

// Exec state bits. The *Deferred* group exists so interrupt-level
// producers never touch foreground-owned state directly: the producer
// ORs the bit, the foreground performs the action at the next drain.
const (
	ExecStateReset         uint32 = 1 << 0
	ExecStateCycleStart    uint32 = 1 << 1
	ExecStateFeedHold      uint32 = 1 << 2
	ExecStateSafetyDoor    uint32 = 1 << 3
	ExecStateMotionCancel  uint32 = 1 << 4
	ExecStateSleep         uint32 = 1 << 5
	ExecStateStatusReport  uint32 = 1 << 6
	ExecStateGCodeReport   uint32 = 1 << 7
	ExecStatePIDReport     uint32 = 1 << 8
	ExecStateStop          uint32 = 1 << 9
	ExecStateCycleComplete uint32 = 1 << 10

	ExecStateDiscardLine        uint32 = 1 << 11 // drop the partially assembled input line
	ExecStateOptionalStopToggle uint32 = 1 << 12 // flip the M1 optional-stop disable flag
	ExecStateToolChangeCancel   uint32 = 1 << 13 // clear a pending tool change
	ExecStateReportAll          uint32 = 1 << 14 // widen the next status report
)

// AlarmCode is a latched fault requiring operator acknowledgement.
// Zero means "no alarm".
type AlarmCode uint8

const (
	AlarmNone AlarmCode = iota
	AlarmHardLimit
	AlarmSoftLimit
	AlarmAbortCycle
	AlarmProbeFailInitial
	AlarmProbeFailContact
	AlarmHomingFailReset
	AlarmHomingRequired
	AlarmEStop
)

// OverrideCommand is an enqueued realtime override request.
type OverrideCommand uint8

const (
	OverrideFeedReset OverrideCommand = iota
	OverrideFeedCoarsePlus
	OverrideFeedCoarseMinus
	OverrideFeedFinePlus
	OverrideFeedFineMinus
	OverrideRapidFull
	OverrideRapidMedium
	OverrideRapidLow
	OverrideSpindleReset
	OverrideSpindleCoarsePlus
	OverrideSpindleCoarseMinus
	OverrideSpindleFinePlus
	OverrideSpindleFineMinus
	OverrideSpindleStopToggle
	OverrideCoolantFloodToggle
	OverrideCoolantMistToggle
)

const overrideRingSize = 16

// RealtimeRegister is the lock-free event register. Zero value is ready to use.
//
// The override ring is multi-producer (serial reader, telemetry relay),
// single-consumer (the foreground drain). A producer claims a slot by
// CAS on the head, then publishes into it; a slot value of zero means
// "empty or claimed but not yet published", so commands are stored
// offset by one and the drain stops at the first unpublished slot to
// preserve FIFO order.
type RealtimeRegister struct {
	execState uint32 // atomic bitset, ExecState* bits
	execAlarm uint32 // atomic AlarmCode; CAS-set, first writer wins per drain

	ring     [overrideRingSize]uint32 // atomic slots: 0 = empty, else OverrideCommand+1
	ringHead uint32                   // atomic, next slot a producer may claim
	ringTail uint32                   // consumer-owned, next slot to drain
}

// SetStateFlag ORs bits into the exec state. Safe from any goroutine.
func (r *RealtimeRegister) SetStateFlag(mask uint32) {
	for {
		old := atomic.LoadUint32(&r.execState)
		if atomic.CompareAndSwapUint32(&r.execState, old, old|mask) {
			return
		}
	}
}

// SetAlarm posts an alarm code. The first alarm posted between drains
// wins; later ones are dropped until the register is cleared.
func (r *RealtimeRegister) SetAlarm(code AlarmCode) {
	atomic.CompareAndSwapUint32(&r.execAlarm, 0, uint32(code))
}

// ClearStateFlags drains the exec state, returning the pre-drain snapshot.
func (r *RealtimeRegister) ClearStateFlags() uint32 {
	return atomic.SwapUint32(&r.execState, 0)
}

// ClearStateFlag clears only the given bits, returning the prior value.
func (r *RealtimeRegister) ClearStateFlag(mask uint32) uint32 {
	for {
		old := atomic.LoadUint32(&r.execState)
		if atomic.CompareAndSwapUint32(&r.execState, old, old&^mask) {
			return old
		}
	}
}

// ClearAlarm drains the alarm code, returning the pre-drain value.
func (r *RealtimeRegister) ClearAlarm() AlarmCode {
	return AlarmCode(atomic.SwapUint32(&r.execAlarm, 0))
}

// Test peeks at the exec state without draining it.
func (r *RealtimeRegister) Test(mask uint32) bool {
	return atomic.LoadUint32(&r.execState)&mask != 0
}

// PendingAlarm peeks at the alarm register without draining it.
func (r *RealtimeRegister) PendingAlarm() AlarmCode {
	return AlarmCode(atomic.LoadUint32(&r.execAlarm))
}

// EnqueueOverride pushes an override command onto the lock-free ring.
// Safe from any number of concurrent producers. Returns false if the
// ring is full; the command is dropped rather than ever blocking the
// producer.
func (r *RealtimeRegister) EnqueueOverride(cmd OverrideCommand) bool {
	for {
		head := atomic.LoadUint32(&r.ringHead)
		next := (head + 1) % overrideRingSize
		if next == atomic.LoadUint32(&r.ringTail) {
			return false // full
		}
		if atomic.CompareAndSwapUint32(&r.ringHead, head, next) {
			// The slot is ours; the drain was here already and zeroed it.
			atomic.StoreUint32(&r.ring[head], uint32(cmd)+1)
			return true
		}
	}
}

// DrainOverrides is foreground-only: it pops every pending override and
// calls fn for each, in FIFO order. A slot claimed by a producer that
// has not yet published stops the drain; the command arrives on the
// next pass instead of being reordered.
func (r *RealtimeRegister) DrainOverrides(fn func(OverrideCommand)) {
	for {
		tail := r.ringTail
		if tail == atomic.LoadUint32(&r.ringHead) {
			return
		}
		v := atomic.LoadUint32(&r.ring[tail])
		if v == 0 {
			return // claimed, not yet published
		}
		atomic.StoreUint32(&r.ring[tail], 0)
		atomic.StoreUint32(&r.ringTail, (tail+1)%overrideRingSize)
		fn(OverrideCommand(v - 1))
	}
}

// FlushOverrides discards every queued override command. Foreground-only.
func (r *RealtimeRegister) FlushOverrides() {
	r.DrainOverrides(func(OverrideCommand) {})
}

// Snapshot is an all-at-once drain of both registers.
type Snapshot struct {
	State uint32
	Alarm AlarmCode
}

// Drain atomically clears both registers and returns what was pending.
// Draining twice with no new events in between returns a zero Snapshot
// the second time.
func (r *RealtimeRegister) Drain() Snapshot {
	return Snapshot{
		State: r.ClearStateFlags(),
		Alarm: r.ClearAlarm(),
	}
}
