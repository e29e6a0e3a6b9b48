package host

import (
	"fmt"
	"strings"

	"grblcore/core"
	"grblcore/state"
)

// Version is the firmware identification string.
const Version = "0.9"

// Reporter formats the user-visible responses: per-line status, realtime
// status reports, alarms and feedback messages. All output funnels
// through the stream so a single transport ordering holds.
type Reporter struct {
	M *state.Machine

	// Broadcast, when set, additionally receives every realtime status
	// snapshot (the telemetry transport).
	Broadcast func(*state.Machine)
}

func (r *Reporter) write(s string) {
	if r.M.Stream != nil {
		r.M.Stream.Write([]byte(s))
	}
}

// StatusLine reports the result of one input line.
func (r *Reporter) StatusLine(status state.Status) {
	if status == state.StatusOK {
		r.write("ok\r\n")
		return
	}
	r.write(fmt.Sprintf("error:%d\r\n", status))
}

// Alarm reports a latched alarm code.
func (r *Reporter) Alarm(code core.AlarmCode) {
	r.write(fmt.Sprintf("ALARM:%d\r\n", code))
}

// Feedback emits a bracketed advisory message.
func (r *Reporter) Feedback(msg string) {
	r.write("[MSG:" + msg + "]\r\n")
}

// Probe reports the latched probe coordinates and success flag.
func (r *Reporter) Probe(position []float64, ok bool) {
	flag := "0"
	if ok {
		flag = "1"
	}
	r.write("[PRB:" + formatVector(position) + ":" + flag + "]\r\n")
}

// Realtime emits the angle-bracketed realtime status report.
func (r *Reporter) Realtime() {
	m := r.M
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(m.Mode.String())
	b.WriteString("|MPos:")
	b.WriteString(formatVector(m.MachinePosition()))
	fmt.Fprintf(&b, "|Ov:%.0f,%.0f,%.0f", m.Override.FeedPct, m.Override.RapidPct, m.Override.SpindlePct)
	if m.Report.All {
		fmt.Fprintf(&b, "|Hm:%d", m.Homed)
		m.Report.All = false
	}
	b.WriteString(">\r\n")
	r.write(b.String())

	if r.Broadcast != nil {
		r.Broadcast(m)
	}
}

// GCodeModes reports the modal snapshot.
func (r *Reporter) GCodeModes(e *Executor) {
	m := r.M
	distance := "G90"
	if !e.Absolute {
		distance = "G91"
	}
	spindle := "M5"
	switch m.Modal.Spindle.State {
	case core.SpindleCW:
		spindle = "M3"
	case core.SpindleCCW:
		spindle = "M4"
	}
	r.write(fmt.Sprintf("[GC:%s %s F%.1f S%.0f]\r\n", distance, spindle, e.Feed, m.Modal.Spindle.RPM))
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.3f", x)
	}
	return strings.Join(parts, ",")
}
