package logger

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "sync"
    "time"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/axiomhq/axiom-go/axiom/ingest"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options defines logger initialization parameters.
type Options struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
    // Console receives console output; nil means stdout. The CLI passes
    // stderr so extracted text on stdout stays clean.
    Console      io.Writer

    // Axiom
    SendToAxiom  bool
    AxiomAPIKey  string
    AxiomOrgID   string
    AxiomDataset string
    AxiomFlush   time.Duration
    // AxiomLevel is the lowest level forwarded; empty means info.
    AxiomLevel   string

    // Service tags every forwarded event; empty means guidereader.
    Service      string
}

var (
    global zerolog.Logger
    ax     *axiomClient
)

// Init sets up global logger: file rotation, console, optional Axiom forwarding.
func Init(opts Options) error {
    // Ensure log directory exists
    if opts.File != "" {
        if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
            return fmt.Errorf("create logs dir: %w", err)
        }
    }

    // Build writers
    var writers []io.Writer

    if opts.File != "" {
        writers = append(writers, &lumberjack.Logger{
            Filename:   opts.File,
            MaxSize:    opts.MaxSizeMB,
            MaxBackups: opts.MaxBackups,
            MaxAge:     opts.MaxAgeDays,
            Compress:   opts.Compress,
        })
    }

    console := opts.Console
    if console == nil {
        console = os.Stdout
    }
    if opts.Pretty {
        writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339})
    } else {
        writers = append(writers, console)
    }

    // Optional Axiom writer
    if opts.SendToAxiom && opts.AxiomAPIKey != "" {
        client, err := newAxiomClient(opts.AxiomAPIKey, opts.AxiomOrgID, opts.AxiomDataset, opts.AxiomFlush)
        if err != nil {
            // log to stderr and continue without Axiom
            fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
        } else {
            ax = client
            writers = append(writers, &axiomWriter{sink: client, min: axiomLevel(opts.AxiomLevel), service: service(opts.Service)})
        }
    }

    out := zerolog.MultiLevelWriter(writers...)

    // Global zerolog config
    zerolog.TimeFieldFormat = time.RFC3339
    lvl, err := zerolog.ParseLevel(opts.Level)
    if err != nil {
        lvl = zerolog.InfoLevel
    }

    global = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
    log.Logger = global
    return nil
}

// Close flushes any buffered external loggers.
func Close() {
    if ax != nil {
        _ = ax.Close()
        ax = nil
    }
}

func axiomLevel(s string) zerolog.Level {
    lvl, err := zerolog.ParseLevel(s)
    if err != nil || s == "" {
        return zerolog.InfoLevel
    }
    return lvl
}

func service(s string) string {
    if s == "" {
        return "guidereader"
    }
    return s
}

// WithRequest returns a child of the global logger tagged with a request id.
func WithRequest(requestID string) *zerolog.Logger {
    l := global.With().Str("request_id", requestID).Logger()
    return &l
}

const (
    axiomBuffer = 1000
    axiomBatch  = 200
)

type eventSink interface {
    Send(ev axiom.Event)
}

// axiomWriter forwards zerolog JSON lines at or above min to Axiom.
type axiomWriter struct {
    sink    eventSink
    min     zerolog.Level
    service string
}

func (w *axiomWriter) Write(p []byte) (int, error) {
    return w.WriteLevel(zerolog.NoLevel, p)
}

func (w *axiomWriter) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
    if lvl != zerolog.NoLevel && lvl < w.min {
        return len(p), nil
    }
    var ev map[string]interface{}
    if err := json.Unmarshal(p, &ev); err != nil {
        ev = map[string]interface{}{zerolog.MessageFieldName: string(p), zerolog.LevelFieldName: zerolog.InfoLevel.String()}
    }
    ev["service"] = w.service
    if _, ok := ev[ingest.TimestampField]; !ok {
        ev[ingest.TimestampField] = time.Now()
    }
    w.sink.Send(axiom.Event(ev))
    return len(p), nil
}

// axiomClient batches events and ships them from one goroutine.
type axiomClient struct {
    client  *axiom.Client
    dataset string
    ch      chan axiom.Event
    wg      sync.WaitGroup
    ctx     context.Context
    cancel  context.CancelFunc
}

func newAxiomClient(token, orgID, dataset string, flushEvery time.Duration) (*axiomClient, error) {
    if dataset == "" { dataset = "dev_guidereader" }
    opts := []axiom.Option{axiom.SetToken(token)}
    if orgID != "" { opts = append(opts, axiom.SetOrganizationID(orgID)) }
    c, err := axiom.NewClient(opts...)
    if err != nil { return nil, err }
    ctx, cancel := context.WithCancel(context.Background())
    ac := &axiomClient{
        client:  c,
        dataset: dataset,
        ch:      make(chan axiom.Event, axiomBuffer),
        ctx:     ctx,
        cancel:  cancel,
    }
    if flushEvery <= 0 { flushEvery = 10 * time.Second }
    ac.wg.Add(1)
    go ac.loop(flushEvery)
    return ac, nil
}

// Send queues ev and drops it when the buffer is full.
func (a *axiomClient) Send(ev axiom.Event) {
    select {
    case a.ch <- ev:
    default:
    }
}

func (a *axiomClient) loop(flushEvery time.Duration) {
    defer a.wg.Done()
    ticker := time.NewTicker(flushEvery)
    defer ticker.Stop()
    batch := make([]axiom.Event, 0, axiomBatch)
    flush := func() {
        if len(batch) == 0 { return }
        ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
        if _, err := a.client.IngestEvents(ctx, a.dataset, batch); err != nil {
            fmt.Fprintf(os.Stderr, "axiom ingest of %d events failed: %v\n", len(batch), err)
        }
        cancel()
        batch = batch[:0]
    }
    for {
        select {
        case <-a.ctx.Done():
            flush()
            return
        case <-ticker.C:
            flush()
        case ev := <-a.ch:
            batch = append(batch, ev)
            if len(batch) >= axiomBatch { flush() }
        }
    }
}

func (a *axiomClient) Close() error {
    a.cancel()
    a.wg.Wait()
    return nil
}
