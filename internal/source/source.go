// Package source loads PDF bytes from a local path, file://, http(s):// or
// s3://bucket/key reference and checks that they really are a PDF.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyRef is returned for an empty document reference.
	ErrEmptyRef = errors.New("PDF path cannot be empty")
	// ErrNotPDF is returned when the loaded bytes are not a PDF.
	ErrNotPDF = errors.New("not a PDF document")
	// ErrTooLarge is returned when a document exceeds Options.MaxBytes.
	ErrTooLarge = errors.New("document too large")
)

// Options configures remote access.
type Options struct {
	HTTPTimeout        time.Duration
	MaxBytes           int64
	S3Region           string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// Document is a loaded PDF.
type Document struct {
	Name string
	Data []byte
}

// Loader fetches documents. It is safe for concurrent use.
type Loader struct {
	opts Options
	http *http.Client
}

// New creates a Loader.
func New(opts Options) *Loader {
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 60 * time.Second
	}
	return &Loader{opts: opts, http: &http.Client{Timeout: opts.HTTPTimeout}}
}

// Load returns the PDF referenced by ref. A "#page=N" fragment is ignored.
func (l *Loader) Load(ctx context.Context, ref string) (*Document, error) {
	ref = strings.TrimSpace(ref)
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	if ref == "" {
		return nil, ErrEmptyRef
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "s3://"):
		data, err = l.loadS3(ctx, ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		data, err = l.loadHTTP(ctx, ref)
	default:
		data, err = l.loadFile(strings.TrimPrefix(ref, "file://"))
	}
	if err != nil {
		return nil, err
	}
	return Check(path.Base(ref), data)
}

// Check wraps data as a Document after verifying its magic bytes.
func Check(name string, data []byte) (*Document, error) {
	mtype := mimetype.Detect(data)
	if !mtype.Is("application/pdf") {
		log.Debug().Str("mime", mtype.String()).Str("file", name).Msg("rejected non-pdf input")
		return nil, fmt.Errorf("%w: detected %s", ErrNotPDF, mtype.String())
	}
	return &Document{Name: name, Data: data}, nil
}

func (l *Loader) loadFile(p string) ([]byte, error) {
	if l.opts.MaxBytes > 0 {
		if fi, err := os.Stat(p); err == nil && fi.Size() > l.opts.MaxBytes {
			return nil, ErrTooLarge
		}
	}
	return os.ReadFile(p)
}

func (l *Loader) loadHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return l.readLimited(resp.Body)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	if l.opts.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.opts.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.opts.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(s3url string) (bucket, key string, err error) {
	p := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(p, "/")
	if slash <= 0 || slash == len(p)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return p[:slash], p[slash+1:], nil
}

func (l *Loader) loadS3(ctx context.Context, s3url string) ([]byte, error) {
	bucket, key, err := ParseS3URL(s3url)
	if err != nil {
		return nil, err
	}

	var optFns []func(*awscfg.LoadOptions) error
	if l.opts.S3Region != "" {
		optFns = append(optFns, awscfg.WithRegion(l.opts.S3Region))
	}
	if l.opts.AWSAccessKeyID != "" && l.opts.AWSSecretAccessKey != "" {
		optFns = append(optFns, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(l.opts.AWSAccessKeyID, l.opts.AWSSecretAccessKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	cli := s3.NewFromConfig(cfg)

	if l.opts.MaxBytes > 0 {
		head, err := cli.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			return nil, fmt.Errorf("failed to stat S3 object: %w", err)
		}
		if head.ContentLength != nil && *head.ContentLength > l.opts.MaxBytes {
			return nil, ErrTooLarge
		}
	}

	buf := manager.NewWriteAtBuffer(nil)
	n, err := manager.NewDownloader(cli).Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Int64("size", n).Msg("downloaded s3 pdf")
	return buf.Bytes(), nil
}
