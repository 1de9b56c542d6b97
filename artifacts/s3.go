package artifacts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Fetcher downloads artifacts from s3://Bucket/Prefix/<name>.
type S3Fetcher struct {
	Bucket     string
	Prefix     string
	downloader *manager.Downloader
	logger     *slog.Logger
}

// NewS3Fetcher builds a fetcher from the default AWS credential chain. An
// empty region keeps the region from the environment.
func NewS3Fetcher(ctx context.Context, bucket, prefix, region string, logger *slog.Logger) (*S3Fetcher, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Fetcher{
		Bucket:     bucket,
		Prefix:     prefix,
		downloader: manager.NewDownloader(s3.NewFromConfig(cfg)),
		logger:     logger,
	}, nil
}

// Fetch downloads name into dst. The file is written next to dst and
// renamed once complete.
func (f *S3Fetcher) Fetch(ctx context.Context, name, dst string) error {
	key := path.Join(f.Prefix, name)
	tmp := dst + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	w := NewProgressTrackingWriter(file, progressStep, func(written int64) {
		f.logger.Debug("downloading artifact", "key", key, "mib", written>>20)
	})
	_, err = f.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(f.Bucket),
		Key:    aws.String(key),
	})
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("downloading s3://%s/%s: %w", f.Bucket, key, err)
	}
	f.logger.Info("artifact downloaded", "key", key, "bytes", w.Written())
	return os.Rename(tmp, dst)
}

// progressStep is the download size between two progress reports.
const progressStep = 64 << 20

// ProgressTrackingWriter wraps a WriterAt and counts the bytes written,
// calling report every time the count crosses a multiple of step.
type ProgressTrackingWriter struct {
	underlying io.WriterAt
	totalBytes int64
	step       int64
	report     func(written int64)
}

func NewProgressTrackingWriter(writer io.WriterAt, step int64, report func(written int64)) *ProgressTrackingWriter {
	return &ProgressTrackingWriter{underlying: writer, step: step, report: report}
}

func (ptw *ProgressTrackingWriter) WriteAt(p []byte, offset int64) (int, error) {
	n, err := ptw.underlying.WriteAt(p, offset)
	total := atomic.AddInt64(&ptw.totalBytes, int64(n))
	if ptw.report != nil && ptw.step > 0 && (total-int64(n))/ptw.step != total/ptw.step {
		ptw.report(total)
	}
	return n, err
}

// Written returns the number of bytes written so far.
func (ptw *ProgressTrackingWriter) Written() int64 {
	return atomic.LoadInt64(&ptw.totalBytes)
}

// DirFetcher copies artifacts from another directory, e.g. a mounted
// volume shared between services.
type DirFetcher struct {
	Dir string
}

func (f DirFetcher) Fetch(_ context.Context, name, dst string) error {
	src, err := os.Open(filepath.Join(f.Dir, name))
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
