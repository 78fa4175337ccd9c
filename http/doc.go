// Package http exposes the image catalog over HTTP.
//
// # Routes
//
//	GET    /health          {"status": "ok"}
//	GET    /images?search=  {"images": [...]}, newest first
//	GET    /images/{id}     {"image": {...}}
//	POST   /upload          multipart form with file, title, description, tags
//	DELETE /images/{id}     {"success": true, "message": "..."}
//	GET    /files/*         signed blob download, local storage only
//	GET    /metrics         Prometheus exposition, when enabled
//
// Every route can be mounted under HandlerConfig.BasePath.
//
// # Errors
//
// Failures are written as {"error": "<code>", "message": "<text>"}. HandleError
// maps the gallery sentinel errors to status codes:
//
//	gallery.ErrInvalidInput  400
//	gallery.ErrUnauthorized  403
//	gallery.ErrNotFound      404
//	gallery.ErrStorage       500
//	gallery.ErrPersistence   500
//
// Uploads larger than HandlerConfig.MaxUploadSize are answered with 413.
//
// # Signed files
//
// When the blob store is a local directory its signed URLs point back at
// /files/. The route checks the signature with AuthMiddleware before the file
// is served:
//
//	store := keybackend.Keyring{"AKIA...": "secret"}
//	verifier := gallery.NewSignatureVerifier("us-east-1", "s3", store)
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Files:        fileStore,
//	    FileVerifier: verifier,
//	}, catalog)
//	http.ListenAndServe(":5708", handler.Router())
package http
