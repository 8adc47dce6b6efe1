// Command signal-counter records debounced GPIO signals to a local log and
// delivers them in batches to a collector endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/graze/signal-counter/internal/capture"
	"github.com/graze/signal-counter/internal/eventlog"
	"github.com/graze/signal-counter/internal/gpio"
	"github.com/graze/signal-counter/internal/identity"
	"github.com/graze/signal-counter/internal/logic"
	"github.com/graze/signal-counter/internal/metrics"
	"github.com/graze/signal-counter/internal/mqtt"
	"github.com/graze/signal-counter/internal/status"
	"github.com/graze/signal-counter/internal/submit"
	"github.com/graze/signal-counter/internal/transport"
	"github.com/graze/signal-counter/internal/web"
)

type config struct {
	chip           string
	pin            int
	ledPin         int
	mode           logic.Mode
	window         time.Duration
	blink          time.Duration
	logPath        string
	swapPath       string
	macPath        string
	endpoint       string
	interval       time.Duration
	timeout        time.Duration
	submitOnSignal bool
	broker         string
	heartbeat      time.Duration
	httpAddr       string
	printPending   bool
}

func main() {
	var cfg config
	var mode string
	var debounce, hold time.Duration

	flag.StringVar(&cfg.chip, "chip", gpio.DefaultChip, "GPIO chip")
	flag.IntVar(&cfg.pin, "pin", gpio.DefaultPinIn, "BCM pin number of the signal input")
	flag.IntVar(&cfg.ledPin, "led-pin", gpio.DefaultPinLED, "BCM pin number of the indicator LED (-1 to disable)")
	flag.StringVar(&mode, "mode", string(logic.ModePaired), `Debounce mode: "paired" or "falling"`)
	flag.DurationVar(&debounce, "debounce", 200*time.Millisecond, "Minimum spacing between falling edges (falling mode)")
	flag.DurationVar(&hold, "hold", 300*time.Millisecond, "Minimum rising-to-falling hold (paired mode)")
	flag.DurationVar(&cfg.blink, "blink", 200*time.Millisecond, "LED on-time per recorded signal")
	flag.StringVar(&cfg.logPath, "log", eventlog.DefaultActivePath, "Active signal log")
	flag.StringVar(&cfg.swapPath, "swap", eventlog.DefaultSwapPath, "Pending batch (swap) path")
	flag.StringVar(&cfg.macPath, "mac-path", identity.DefaultMACPath, "File holding the device MAC address")
	flag.StringVar(&cfg.endpoint, "endpoint", "", "Collector URL")
	flag.DurationVar(&cfg.interval, "interval", time.Second, "Submission interval")
	flag.DurationVar(&cfg.timeout, "timeout", transport.DefaultTimeout, "Collector request timeout")
	flag.BoolVar(&cfg.submitOnSignal, "submit-on-signal", false, "Also submit right after each recorded signal")
	flag.StringVar(&cfg.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&cfg.printPending, "print-pending", false, "Print storage state and exit")

	flag.Parse()

	m, ok := logic.ParseMode(mode)
	if !ok {
		log.Fatalf("fatal: unknown mode %q", mode)
	}
	cfg.mode = m
	cfg.window = debounce
	if m == logic.ModePaired {
		cfg.window = hold
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	store := eventlog.New(cfg.logPath, cfg.swapPath)

	if cfg.printPending {
		st, err := store.Inspect()
		if err != nil {
			return fmt.Errorf("inspect storage: %w", err)
		}
		fmt.Print(formatStorageState(store, st))
		return nil
	}

	if cfg.endpoint == "" {
		return errors.New("-endpoint is required")
	}

	debouncer, err := logic.NewDebouncer(cfg.mode, cfg.window)
	if err != nil {
		return fmt.Errorf("init debouncer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sink := metrics.NewPrometheusSink(reg)

	ident := identity.FileSource{Path: cfg.macPath}
	pipeline := submit.New(store, transport.NewHTTPSender(cfg.endpoint, cfg.timeout), ident, sink)

	var led gpio.Indicator = gpio.NoopIndicator{}
	if cfg.ledPin >= 0 {
		dev, err := gpio.NewRealLED(cfg.chip, cfg.ledPin)
		if err != nil {
			// counting does not depend on the LED
			log.Printf("indicator disabled: %v", err)
		} else {
			led = dev
		}
	}
	defer led.Close()

	recorder := capture.NewRecorder(debouncer, store, capture.Config{
		Indicator:      led,
		Blink:          cfg.blink,
		Metrics:        sink,
		SubmitOnSignal: cfg.submitOnSignal,
	})

	tracker := status.NewTracker(time.Now(), status.Config{
		Mode:       string(cfg.mode),
		WindowMs:   cfg.window.Milliseconds(),
		IntervalMs: cfg.interval.Milliseconds(),
		Endpoint:   cfg.endpoint,
		Broker:     cfg.broker,
		HTTPAddr:   cfg.httpAddr,
		LogPath:    cfg.logPath,
		SwapPath:   cfg.swapPath,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	l := &loop{
		pipeline:  pipeline,
		store:     store,
		recorder:  recorder,
		tracker:   tracker,
		heartbeat: cfg.heartbeat,
	}

	if cfg.broker != "" {
		publisher, err := mqtt.NewRealPublisher(cfg.broker, clientID(ident))
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		l.publisher = publisher
		l.mqttStatus = publisher
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	// The loop closes the watcher on shutdown; nothing may return between here and run.
	watcher, err := gpio.NewRealWatcher(cfg.chip, cfg.pin, time.Now, func(e logic.RawEdge) { recorder.OnEdge(e) })
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	l.watcher = watcher

	gpio.StartupPattern(led, 3, 300*time.Millisecond)
	log.Printf("started: pin=%d mode=%s window=%v interval=%v endpoint=%s", cfg.pin, cfg.mode, cfg.window, cfg.interval, cfg.endpoint)

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return l.run(time.Now, ticker.C, recorder.Kick(), sigCh)
}

// submitter is the part of submit.Pipeline the loop drives.
type submitter interface {
	SubmitPending(ctx context.Context) submit.Result
}

// loop owns the periodic rotate-and-submit cycle and the lifecycle events.
// Submissions run in their own goroutine so a slow collector never delays
// the next tick; the pipeline's guard turns overlapping attempts into skips.
type loop struct {
	pipeline   submitter
	store      *eventlog.Log
	recorder   *capture.Recorder
	watcher    gpio.Watcher   // closed first on shutdown; may be nil
	publisher  mqtt.Publisher // nil when MQTT is disabled
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
}

func (l *loop) run(now func() time.Time, tick <-chan time.Time, kick <-chan struct{}, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hb := logic.NewHeartbeatTimer(now())
	results := make(chan submit.Result, 1)
	var wg sync.WaitGroup

	start := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := l.pipeline.SubmitPending(ctx)
			results <- res
			// Publishing can wait on the broker, so it stays off the loop goroutine.
			l.report(res, now())
		}()
	}

	l.inspect()
	l.publishStatus("STARTUP", "", now())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if l.watcher != nil {
				if err := l.watcher.Close(); err != nil {
					log.Printf("close gpio: %v", err)
				}
			}
			cancel()
			go func() {
				wg.Wait()
				close(results)
			}()
			for res := range results {
				l.handle(res, now())
			}
			l.inspect()
			l.publishStatus("SHUTDOWN", signalName(s), now())
			return nil

		case <-tick:
			start()
			t := now()
			if hbData := hb.Check(t, l.heartbeat); hbData != nil {
				counts := l.recorder.Counts()
				log.Printf("heartbeat: uptime=%v recorded=%d rejected=%d lost=%d",
					hbData.Uptime, counts.Recorded, counts.Rejected, counts.Lost)
				if net := readNetworkInfo(); net != nil {
					l.tracker.SetNetwork(net)
				}
				l.inspect()
				l.publishStatus("HEARTBEAT", "", hbData.Timestamp)
			}

		case <-kick:
			start()

		case res := <-results:
			l.handle(res, now())
		}
	}
}

// handle records one submission result in the tracker. It runs about once
// per tick, so it only stats the swap slot instead of reading it.
func (l *loop) handle(res submit.Result, t time.Time) {
	l.tracker.RecordSubmission(string(res.Outcome), t)
	if res.Outcome == submit.Delivered {
		log.Printf("delivered %d records (%d bytes) in %v", res.Records, res.Bytes, res.Duration)
	}
	l.syncTracker()

	if res.Outcome == submit.Busy {
		return
	}
	pending, err := l.store.PendingExists()
	if err != nil {
		log.Printf("stat swap: %v", err)
		return
	}
	records := 0
	if pending {
		// a batch left behind is the one just attempted
		records = res.Records
	}
	l.tracker.SetPending(pending, records)
}

// report publishes attempts that reached the collector.
func (l *loop) report(res submit.Result, t time.Time) {
	if l.publisher == nil {
		return
	}
	if res.Outcome != submit.Delivered && res.Outcome != submit.DeliveryFailed {
		return
	}

	report := mqtt.Report{
		Timestamp: t,
		Outcome:   string(res.Outcome),
		Records:   res.Records,
		Bytes:     res.Bytes,
		Duration:  res.Duration,
	}
	if res.Err != nil {
		report.Error = res.Err.Error()
	}
	if err := l.publisher.Publish(report); err != nil {
		log.Printf("publish error: %v", err)
	}
}

// syncTracker copies signal counts and MQTT state into the tracker.
func (l *loop) syncTracker() {
	l.tracker.SetCounts(l.recorder.Counts())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		l.tracker.SetMQTTBuffered(l.mqttStatus.Buffered())
	}
}

// inspect refreshes the tracker including exact record counts. It reads
// both files, so it runs only at startup, heartbeat and shutdown.
func (l *loop) inspect() {
	l.syncTracker()
	st, err := l.store.Inspect()
	if err != nil {
		log.Printf("inspect storage: %v", err)
		return
	}
	l.tracker.SetPending(st.PendingExists, st.PendingRecords)
}

func (l *loop) publishStatus(event, reason string, t time.Time) {
	if l.publisher == nil {
		return
	}
	snap := l.tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := l.publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", strings.ToLower(event), err)
		return
	}
	log.Printf("published %s event", strings.ToLower(event))
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// clientID derives a stable MQTT client ID from the device MAC.
func clientID(src identity.Source) string {
	id, err := src.DeviceID()
	if err != nil {
		log.Printf("mqtt: no device id, using generic client id: %v", err)
		return "signal-counter"
	}
	return "signal-counter-" + strings.ReplaceAll(id, ":", "")
}

func formatStorageState(store *eventlog.Log, st eventlog.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "active %s: ", store.ActivePath())
	if st.ActiveExists {
		fmt.Fprintf(&b, "%d records\n", st.ActiveRecords)
	} else {
		b.WriteString("absent\n")
	}
	fmt.Fprintf(&b, "pending %s: ", store.SwapPath())
	if st.PendingExists {
		fmt.Fprintf(&b, "%d records\n", st.PendingRecords)
	} else {
		b.WriteString("absent\n")
	}
	return b.String()
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
