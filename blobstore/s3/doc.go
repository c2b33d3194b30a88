// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", "models/")
//	if err != nil {
//	    return err
//	}
//
//	err = model.SaveTo(ctx, store, "snapshots/run-00042.ckpt")
//
// An existing client can be injected instead:
//
//	store := s3.NewStore(client, "my-bucket", "models/")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads with CRC32C integrity checksums
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - RegistryStore: atomic latest-snapshot promotion backed by DynamoDB
package s3
