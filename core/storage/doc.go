// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client (AWS S3 or self-hosted MinIO). The application only
// writes: raw upload payloads and generated spreadsheets are archived so that an
// import can be audited after the fact.
//
// # Client Interface
//
// The Client interface abstracts the underlying provider, making it easy to mock
// storage interactions in unit tests (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg)
//	err = storage.EnsureBucket(ctx, client, cfg.Bucket, cfg.Region)
//	_, err = storage.Archive(ctx, client, cfg.Bucket, "uploads/file.txt", data, "text/plain")
package storage
