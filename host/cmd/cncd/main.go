package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"grblcore/core"
	"grblcore/host"
	"grblcore/host/serial"
	"grblcore/host/telemetry"
	"grblcore/motion"
	"grblcore/planner"
	"grblcore/state"
)

var (
	device     = flag.String("device", "", "serial device for the control stream (empty = stdin/stdout)")
	baud       = flag.Int("baud", 115200, "baud rate (ignored for USB CDC)")
	configPath = flag.String("config", "", "settings JSON file")
	telAddr    = flag.String("telemetry", "", "WebSocket telemetry listen address (e.g. :7125)")
	verbose    = flag.Bool("verbose", false, "enable debug output")
)

func main() {
	flag.Parse()

	settings := &core.Settings{}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: read config: %v\n", err)
			os.Exit(1)
		}
		loaded, err := core.LoadSettings(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: parse config: %v\n", err)
			os.Exit(1)
		}
		settings = loaded
	} else {
		settings.ApplyDefaults()
	}

	core.SetDebugWriter(func(msg string) { log.Print(msg) })
	core.SetDebugEnabled(*verbose)

	rt := &core.RealtimeRegister{}
	m := state.NewMachine(settings, rt)
	m.Clock = host.NewWallClock()

	driver := host.NewSimDriver(rt, settings.AxisCount)
	plan := planner.New(settings, driver.MachinePosition)
	driver.Planner = plan

	m.Planner = plan
	m.Motion = driver
	m.Spindle = &host.SimSpindle{}
	m.Coolant = &host.SimCoolant{}
	m.Probe = &host.SimProbe{}
	m.Control = &host.SimControl{}

	var stream core.StreamHAL
	if *device != "" {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		port, err := serial.Open(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: open %s: %v\n", *device, err)
			os.Exit(1)
		}
		s := serial.NewStream(port)
		defer s.Close()
		stream = s
		m.Stream = s
	} else {
		s := newStdioStream()
		stream = s
		m.Stream = s
	}

	mc := motion.NewController(m)
	proto := host.NewProtocol(m, mc)

	// Control characters act the moment they arrive, even while the
	// foreground is parked in a busy-wait.
	if s, ok := stream.(*serial.Stream); ok {
		s.Siphon = proto.Ingest.Classify
	}

	if *telAddr != "" {
		tel := telemetry.New(*telAddr)
		tel.Relay = proto.Ingest.Classify
		if err := tel.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "error: telemetry: %v\n", err)
			os.Exit(1)
		}
		defer tel.Stop()
		proto.Report.Broadcast = tel.BroadcastStatus
	}

	// Re-initialize after every abort, exactly like a hardware reset.
	cold := true
	for {
		if !proto.Run(cold) {
			return
		}
		m.SetAbort(false)
		rt.Drain()
		rt.FlushOverrides()
		plan.Reset()
		m.SyncPositions()
		m.SetMode(state.ModeIdle)
		cold = false
	}
}

// stdioStream adapts stdin/stdout to the stream contract for bench use.
type stdioStream struct {
	mu        sync.Mutex
	buf       []byte
	suspended bool
}

func newStdioStream() *stdioStream {
	s := &stdioStream{}
	go func() {
		chunk := make([]byte, 64)
		for {
			n, err := os.Stdin.Read(chunk)
			if n > 0 {
				s.mu.Lock()
				if !s.suspended {
					s.buf = append(s.buf, chunk[:n]...)
				}
				s.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()
	return s
}

func (s *stdioStream) Read() (byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return 0, false
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	return b, true
}

func (s *stdioStream) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (s *stdioStream) SuspendRead(suspend bool) {
	s.mu.Lock()
	s.suspended = suspend
	s.mu.Unlock()
}

func (s *stdioStream) CancelReadBuffer() {
	s.mu.Lock()
	s.buf = s.buf[:0]
	s.mu.Unlock()
}
