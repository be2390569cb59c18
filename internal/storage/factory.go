package storage

import (
	"context"
	"fmt"
)

// Drivers accepted by New.
const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

// Options selects and configures a storage driver.
type Options struct {
	Driver    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New builds the Storage named by opts.Driver. An empty driver means MinIO.
func New(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case "", DriverMinio:
		return NewMinioStorage(ctx, opts.Endpoint, opts.AccessKey, opts.SecretKey, opts.Bucket, opts.UseSSL)
	case DriverS3:
		return NewS3Storage(ctx, S3Config{
			Region:    opts.Region,
			Bucket:    opts.Bucket,
			AccessKey: opts.AccessKey,
			SecretKey: opts.SecretKey,
			Endpoint:  opts.Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
