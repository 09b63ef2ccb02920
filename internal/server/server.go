package server

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/local/guidereader/internal/limiter"
    "github.com/local/guidereader/internal/logger"
    "github.com/local/guidereader/internal/metrics"
    "github.com/local/guidereader/internal/pdfxref"
    "github.com/local/guidereader/internal/reader"
)

type Extractor interface {
    Extract(ctx context.Context, req reader.Request) (*reader.Result, error)
}

type Options struct {
    Extractor      Extractor
    Slots          *limiter.Slots
    RequestTimeout time.Duration
    MaxUploadBytes int64
    // S3Bucket, when set, turns bare keys in file_path into s3://bucket/key.
    S3Bucket       string
}

type Server struct {
    opts Options
}

func New(opts Options) *Server {
    if opts.Slots == nil { opts.Slots = limiter.New(0) }
    if opts.RequestTimeout <= 0 { opts.RequestTimeout = 120 * time.Second }
    if opts.MaxUploadBytes <= 0 { opts.MaxUploadBytes = 64 << 20 }
    return &Server{opts: opts}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request){ w.WriteHeader(http.StatusOK); _,_ = w.Write([]byte("ok")) })
    mux.HandleFunc("/extract", s.handleExtract)
    mux.HandleFunc("/extract_upload", s.handleExtractUpload)
    mux.Handle("/metrics", metrics.Handler())
}

type extractReq struct {
    FilePath string `json:"file_path"`
    FileURL  string `json:"file_url"`
    Pages    string `json:"pages"`
    Format   string `json:"format"`
}

type extractResp struct {
    Status    string          `json:"status"`
    RequestID string          `json:"request_id"`
    Content   string          `json:"content,omitempty"`
    Result    json.RawMessage `json:"result,omitempty"`
    Cached    bool            `json:"cached,omitempty"`
    Warnings  []string        `json:"warnings,omitempty"`
    Error     string          `json:"error,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    defer r.Body.Close()
    var req extractReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest); return
    }
    ref := req.FilePath
    if ref == "" { ref = req.FileURL }
    if ref == "" {
        http.Error(w, "missing file_path/file_url", http.StatusBadRequest); return
    }
    if s.opts.S3Bucket != "" && !strings.Contains(ref, "://") && !strings.HasPrefix(ref, "/") {
        ref = fmt.Sprintf("s3://%s/%s", s.opts.S3Bucket, ref)
    }
    s.run(w, r, reader.Request{Ref: ref, Pages: req.Pages, Format: req.Format})
}

// handleExtractUpload accepts multipart/form-data with fields file (required), pages and format.
func (s *Server) handleExtractUpload(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
    if err := r.ParseMultipartForm(32 << 20); err != nil {
        http.Error(w, "invalid multipart form", http.StatusBadRequest); return
    }
    file, hdr, err := r.FormFile("file")
    if err != nil { http.Error(w, "missing file", http.StatusBadRequest); return }
    defer file.Close()
    data, err := io.ReadAll(file)
    if err != nil { http.Error(w, "cannot read upload", http.StatusBadRequest); return }
    s.run(w, r, reader.Request{Name: hdr.Filename, Data: data, Pages: r.FormValue("pages"), Format: r.FormValue("format")})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, req reader.Request) {
    reqID := uuid.NewString()
    lg := logger.WithRequest(reqID)
    ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
    defer cancel()

    release, err := s.opts.Slots.Acquire(ctx)
    if err != nil {
        lg.Warn().Err(err).Msg("no free extraction slot")
        writeJSON(w, http.StatusServiceUnavailable, extractResp{Status: "error", RequestID: reqID, Error: "server busy"})
        return
    }
    defer release()

    start := time.Now()
    res, err := s.opts.Extractor.Extract(ctx, req)
    if err != nil {
        status := http.StatusInternalServerError
        var eerr *pdfxref.ExtractionError
        if errors.As(err, &eerr) { status = http.StatusUnprocessableEntity }
        if req.Format != "" && req.Format != reader.FormatText && req.Format != reader.FormatJSON { status = http.StatusBadRequest }
        lg.Error().Err(err).Msg("extraction failed")
        writeJSON(w, status, extractResp{Status: "error", RequestID: reqID, Error: err.Error()})
        return
    }
    lg.Info().Dur("elapsed", time.Since(start)).Bool("cached", res.Cached).Msg("extraction done")

    resp := extractResp{Status: "ok", RequestID: reqID, Cached: res.Cached}
    if req.Format == reader.FormatJSON {
        resp.Result = json.RawMessage(res.Output)
    } else {
        resp.Content = res.Output
    }
    if res.Report != nil { resp.Warnings = res.Report.Warnings }
    writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}
