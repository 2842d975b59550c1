package app

import (
	"context"
	"fmt"

	"github.com/riskibarqy/draft-combine-pipeline/internal/config"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/blobstore"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/query/duckdb"
)

func newBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return blobstore.NewMemoryStore(), nil
	case config.StorageFilesystem:
		return blobstore.NewFilesystemStore(cfg.StorageRoot)
	case config.StorageMinio:
		return blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:     cfg.StorageEndpoint,
			AccessKey:    cfg.StorageAccessKey,
			SecretKey:    cfg.StorageSecretKey,
			Bucket:       cfg.StorageBucket,
			Region:       cfg.StorageRegion,
			UseSSL:       cfg.StorageUseSSL,
			CreateBucket: cfg.StorageCreateBucket,
		})
	case config.StorageS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:       cfg.StorageBucket,
			Region:       cfg.StorageRegion,
			Endpoint:     cfg.StorageEndpoint,
			UsePathStyle: cfg.StoragePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// duckdbLocation tells DuckDB where the object store keys live.
func duckdbLocation(cfg config.Config, store blob.Store) (string, *duckdb.S3Secret) {
	if fs, ok := store.(*blobstore.FilesystemStore); ok {
		return fs.Root(), nil
	}
	base := "s3://" + cfg.StorageBucket
	if cfg.StorageAccessKey == "" {
		return base, nil
	}
	urlStyle := "vhost"
	if cfg.StorageDriver == config.StorageMinio || cfg.StoragePathStyle {
		urlStyle = "path"
	}
	return base, &duckdb.S3Secret{
		KeyID:    cfg.StorageAccessKey,
		Secret:   cfg.StorageSecretKey,
		Region:   cfg.StorageRegion,
		Endpoint: cfg.StorageEndpoint,
		URLStyle: urlStyle,
		UseSSL:   cfg.StorageUseSSL,
	}
}
