package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/local/guidereader/internal/config"
	logpkg "github.com/local/guidereader/internal/logger"
	"github.com/local/guidereader/internal/reader"
	"github.com/local/guidereader/internal/source"
)

func extractCmd() *cobra.Command {
	var pages string
	var asJSON bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Print the selected pages with their internal links",
		Long: `Print the text of the selected pages of a PDF (local path, file://, http(s):// or s3://).

Pages are a comma-separated list of page numbers and ranges. Negative numbers
count from the end, so "1,3,5-7" or "2--1" (page 2 to the last page) are valid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cfgpkg.FromEnv()
			if logLevel == "" {
				logLevel = cfg.Logging.Level
			}
			_ = logpkg.Init(logpkg.Options{
				Level:   logLevel,
				Pretty:  true,
				Console: os.Stderr,
			})
			defer logpkg.Close()

			svc := reader.New(reader.Options{Loader: source.New(source.Options{
				HTTPTimeout:        cfg.Source.HTTPTimeout,
				MaxBytes:           cfg.Source.MaxDocumentMB << 20,
				S3Region:           cfg.Source.S3Region,
				AWSAccessKeyID:     cfg.Source.AWSAccessKeyID,
				AWSSecretAccessKey: cfg.Source.AWSSecretAccessKey,
			})})

			format := reader.FormatText
			if asJSON {
				format = reader.FormatJSON
			}
			res, err := svc.Extract(cmd.Context(), reader.Request{Ref: args[0], Pages: pages, Format: format})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&pages, "pages", "p", "", `pages to extract, e.g. "1,3,5-7" or "-1" (default: all)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print pages, links and diagnostics as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (default: LOG_LEVEL or info)")
	return cmd
}
