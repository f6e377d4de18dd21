// Package backup uploads periodic snapshots of the basketd database to
// S3-compatible storage and prunes old ones.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const keyTimeFormat = "2006-01-02T150405Z"

type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	S3        S3Config
	Prefix    string
	Interval  time.Duration
	Retention time.Duration
	// Passphrase, when set, encrypts every snapshot before upload.
	Passphrase string
}

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateError   State = "error"
)

type Status struct {
	State      State     `json:"state"`
	LastBackup time.Time `json:"last_backup,omitzero"`
	LastKey    string    `json:"last_key,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Manager snapshots one database on a schedule.
type Manager struct {
	mu     sync.RWMutex
	status Status

	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	return newManager(cfg, db, newS3Client(cfg.S3), logger)
}

func newManager(cfg Config, db *sql.DB, client s3Client, logger *slog.Logger) *Manager {
	if cfg.Prefix != "" && !strings.HasSuffix(cfg.Prefix, "/") {
		cfg.Prefix += "/"
	}
	return &Manager{
		cfg:    cfg,
		db:     db,
		client: client,
		logger: logger.With("component", "backup"),
		status: Status{State: StateIdle},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// Run takes a snapshot every Interval and prunes expired ones until ctx is
// cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.RunNow(ctx); err != nil {
				m.logger.Error("snapshot failed", "error", err)
				continue
			}
			if _, err := m.Prune(ctx); err != nil {
				m.logger.Error("prune failed", "error", err)
			}
		}
	}
}

// RunNow writes a consistent copy of the database with VACUUM INTO, seals it
// if a passphrase is configured, and uploads it. It returns the object key.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	m.setStatus(Status{State: StateRunning})

	key, err := m.snapshot(ctx)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return "", err
	}

	m.setStatus(Status{State: StateIdle, LastBackup: m.now(), LastKey: key})
	m.logger.Info("snapshot uploaded", "bucket", m.cfg.S3.Bucket, "key", key)
	return key, nil
}

func (m *Manager) snapshot(ctx context.Context) (string, error) {
	tmpDir, err := os.MkdirTemp("", "basket-backup-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	copyPath := filepath.Join(tmpDir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", copyPath); err != nil {
		return "", fmt.Errorf("vacuum into: %w", err)
	}

	data, err := os.ReadFile(copyPath)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}

	key := m.cfg.Prefix + "basket-" + m.now().Format(keyTimeFormat) + ".db"
	if m.cfg.Passphrase != "" {
		data, err = Seal(data, m.cfg.Passphrase)
		if err != nil {
			return "", fmt.Errorf("encrypt snapshot: %w", err)
		}
		key += ".enc"
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return key, nil
}

// keyTime extracts the snapshot time from an object key written by RunNow.
func keyTime(prefix, key string) (time.Time, bool) {
	name := strings.TrimPrefix(key, prefix)
	name, ok := strings.CutPrefix(name, "basket-")
	if !ok {
		return time.Time{}, false
	}
	name = strings.TrimSuffix(name, ".enc")
	name = strings.TrimSuffix(name, ".db")
	t, err := time.Parse(keyTimeFormat, name)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Prune deletes snapshots older than Retention. Objects under the prefix
// that were not written by RunNow are left alone.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	if m.cfg.Retention <= 0 {
		return 0, nil
	}
	before := m.now().Add(-m.cfg.Retention)

	var (
		deleted int
		token   *string
	)
	for {
		out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.cfg.S3.Bucket),
			Prefix:            aws.String(m.cfg.Prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return deleted, fmt.Errorf("list snapshots: %w", err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			t, ok := keyTime(m.cfg.Prefix, key)
			if !ok || !t.Before(before) {
				continue
			}
			if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(m.cfg.S3.Bucket),
				Key:    aws.String(key),
			}); err != nil {
				m.logger.Warn("delete snapshot", "key", key, "error", err)
				continue
			}
			deleted++
		}

		if !aws.ToBool(out.IsTruncated) {
			return deleted, nil
		}
		token = out.NextContinuationToken
	}
}
