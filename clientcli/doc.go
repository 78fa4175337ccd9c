// Package clientcli provides a client library for talking to a gallery server
// over its JSON API.
//
// It supports upload, list, search, get, download and delete. Downloads go
// through the signed URL the server returns with every record. Profiles in a
// YAML file manage connections to multiple servers.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:5708"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./sunset.jpg",
//		Title:     "Sunset",
//		Tags:      "beach, summer",
//	})
//
// Server errors are returned as *APIError and can be matched with errors.Is:
//
//	if errors.Is(err, clientcli.ErrNotFound) {
//		// no such image
//	}
//
// # Profiles
//
// A profile file maps names to endpoints. Resolve applies the flag, the
// GALLERY_ENDPOINT variable and then the selected profile, in that order:
//
//	file, _ := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	cfg, err := clientcli.Resolve(clientcli.Resolution{
//		EnvEndpoint: os.Getenv(clientcli.EnvEndpoint),
//		Profile:     "production",
//		File:        file,
//	})
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
