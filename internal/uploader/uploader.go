package uploader

import "context"

type UploadRequest struct {
	FilePath string
	Title    string
	Tags     []string
	// Progress receives the uploaded fraction (0..1) after each chunk.
	Progress func(fraction float64)
}

type UploadResponse struct {
	ID       string
	URL      string
	Platform string
}

type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error)
	Platform() string
}
