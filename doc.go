// Package gallery provides an image catalog with pluggable metadata stores and
// blob storage backends.
//
// Gallery stores uploaded image bytes in a blob store, keeps one metadata record
// per image in a key-value store, and hands out time-limited signed URLs for
// reading the images back. Records can be listed, searched by title,
// description or tag, and deleted.
//
// # Key Components
//
//   - CatalogService: Main service combining a metadata store and a blob store
//   - MetadataStore: Interface for record persistence (memory, SQLite, PostgreSQL, Badger, Redis)
//   - BlobStore: Interface for image bytes (filesystem, MinIO, S3, Stowry)
//   - Presigner / SignatureVerifier: AWS Signature V4 URLs for the filesystem backend
//
// # Record Layout
//
// Every image is stored under the metadata key "image:<id>". A prefix scan over
// "image:" enumerates the whole catalog. The blob for a record lives under its
// generated Filename, which has the form "<unix-millis>_<uuid>.<ext>".
//
// # Example Usage
//
//	service, err := gallery.NewCatalogService(meta, blobs, gallery.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := service.EnsureStorageReady(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Upload an image
//	record, err := service.Create(ctx, gallery.CreateImage{
//	    OriginalName: "sunset.jpg",
//	    ContentType:  "image/jpeg",
//	    Size:         size,
//	    Tags:         "beach, evening",
//	}, reader)
//
//	// Search the catalog
//	images, err := service.List(ctx, "beach")
//
// See the http package for the REST API, the database package for metadata
// backends and the storage package for blob backends.
package gallery
