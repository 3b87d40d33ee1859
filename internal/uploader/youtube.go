package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	shortsTag         = "#Shorts"
	shortsURLPrefix   = "https://youtube.com/shorts/"
	youtubeCategoryID = "22"
	youtubePrivacy    = "public"
	youtubePlatform   = "youtube"
	defaultChunkSize  = googleapi.DefaultUploadChunkSize
	videoMediaType    = "video/mp4"
)

type YouTubeOptions struct {
	ChunkSize int
	// Endpoint overrides the API base URL.
	Endpoint string
}

type YouTubeUploader struct {
	service   *youtube.Service
	chunkSize int
}

func NewYouTubeUploader(ctx context.Context, client *http.Client, opts YouTubeOptions) (*YouTubeUploader, error) {
	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	return &YouTubeUploader{service: service, chunkSize: chunkSize}, nil
}

// ShortsVideo builds the insert payload for a public Short.
func ShortsVideo(title string, tags []string) *youtube.Video {
	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title + " " + shortsTag,
			Description: shortsTag,
			Tags:        tags,
			CategoryId:  youtubeCategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           youtubePrivacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
}

func ShortsURL(id string) string {
	return shortsURLPrefix + id
}

func (u *YouTubeUploader) Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	if req.Title == "" {
		return nil, errors.New("title is required")
	}

	videoFile, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = videoFile.Close() }()

	info, err := videoFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat video file: %w", err)
	}
	size := info.Size()

	slog.Info("Uploading video", "path", req.FilePath, "bytes", size, "chunk_size", u.chunkSize)

	call := u.service.Videos.Insert([]string{"snippet", "status"}, ShortsVideo(req.Title, req.Tags)).
		Context(ctx)
	// Media sends anything that fits in one chunk as a multipart request.
	// Small files still need a resumable session.
	if size <= int64(u.chunkSize) {
		call = call.ResumableMedia(ctx, videoFile, size, videoMediaType)
	} else {
		call = call.Media(videoFile, googleapi.ChunkSize(u.chunkSize))
	}
	call = call.ProgressUpdater(func(current, _ int64) {
		if req.Progress == nil || size <= 0 {
			return
		}
		fraction := float64(current) / float64(size)
		if fraction > 1 {
			fraction = 1
		}
		req.Progress(fraction)
	})

	video, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}
	if video.Id == "" {
		return nil, errors.New("upload response has no video id")
	}

	slog.Debug("Upload finished", "id", video.Id)

	return &UploadResponse{
		ID:       video.Id,
		URL:      ShortsURL(video.Id),
		Platform: youtubePlatform,
	}, nil
}

func (u *YouTubeUploader) Platform() string {
	return youtubePlatform
}
