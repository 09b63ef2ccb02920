package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/guidereader/internal/config"
    "github.com/local/guidereader/internal/limiter"
    logpkg "github.com/local/guidereader/internal/logger"
    "github.com/local/guidereader/internal/metrics"
    "github.com/local/guidereader/internal/reader"
    "github.com/local/guidereader/internal/server"
    "github.com/local/guidereader/internal/source"
    "github.com/local/guidereader/internal/store"
)

func main() {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
        AxiomLevel: cfg.Axiom.Level,
        Service: "guidereader",
    })
    defer logpkg.Close()
    metrics.Init()

    loader := source.New(source.Options{
        HTTPTimeout: cfg.Source.HTTPTimeout,
        MaxBytes: cfg.Source.MaxDocumentMB << 20,
        S3Region: cfg.Source.S3Region,
        AWSAccessKeyID: cfg.Source.AWSAccessKeyID,
        AWSSecretAccessKey: cfg.Source.AWSSecretAccessKey,
    })

    opts := reader.Options{Loader: loader}
    // Result cache (optional)
    if cfg.Cache.Enabled {
        rs, err := store.NewResultStore(cfg.Cache.RedisURL, cfg.Cache.TTL)
        if err != nil {
            log.Warn().Err(err).Msg("result cache unavailable; continuing without it")
        } else {
            defer rs.Close()
            opts.Cache = rs
        }
    }

    srv := server.New(server.Options{
        Extractor: reader.New(opts),
        Slots: limiter.New(cfg.Server.MaxConcurrent),
        RequestTimeout: cfg.Server.RequestTimeout,
        MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
        S3Bucket: cfg.Source.S3Bucket,
    })
    mux := http.NewServeMux()
    srv.RegisterRoutes(mux)

    httpSrv := &http.Server{Addr: ":"+cfg.Server.Port, Handler: mux}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    _ = httpSrv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}
