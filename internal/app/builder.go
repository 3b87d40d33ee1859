package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"reelshorts/internal/auth"
	"reelshorts/internal/fetch"
	"reelshorts/internal/ffmpeg"
	"reelshorts/internal/prompt"
	"reelshorts/internal/storage"
	"reelshorts/internal/uploader"
	"reelshorts/pkg/config"
)

const archiveDownloadTimeout = 10 * time.Minute

func BuildService(cfg *config.Config, in, out *os.File) *Service {
	localStorage := storage.NewLocalStorage(cfg.Download.ScratchDir, cfg.FFmpeg.CacheDir)

	bootstrapper := ffmpeg.NewBootstrapper(ffmpeg.Options{
		Binary:     cfg.FFmpeg.Binary,
		ArchiveURL: cfg.FFmpeg.ArchiveURL,
		Storage:    localStorage,
		Fetcher:    storage.NewFetcher(&http.Client{Timeout: archiveDownloadTimeout}),
		Notify: func(msg string) {
			_, _ = fmt.Fprintln(out, warnStyle.Render(msg))
		},
	})

	extractor := fetch.NewExtractor(fetch.NewYtdlpBackend(), localStorage, cfg.Download.Format)

	var secrets auth.SecretSource = auth.FileSecret{Path: cfg.YouTube.ClientSecretsPath}
	if cfg.YouTube.ClientSecretsSecret != "" {
		secrets = auth.SecretManagerSecret{Name: cfg.YouTube.ClientSecretsSecret}
	}

	manager := auth.NewManager(
		secrets,
		auth.NewTokenCache(cfg.YouTube.TokenPath),
		auth.NewBrowserAuthorizer(cfg.YouTube.CallbackPort, cfg.YouTube.AuthTimeout, out),
	)

	chunkSize := cfg.YouTube.ChunkSize
	newUploader := func(ctx context.Context, client *http.Client) (uploader.Uploader, error) {
		up, err := uploader.NewYouTubeUploader(ctx, client, uploader.YouTubeOptions{ChunkSize: chunkSize})
		if err != nil {
			return nil, err
		}
		return up, nil
	}

	return NewService(ServiceOptions{
		Tools:       bootstrapper,
		Media:       extractor,
		Auth:        manager,
		NewUploader: newUploader,
		Prompter:    prompt.NewConsole(in, out),
		Steps:       prompt.NewSteps(out, prompt.IsTerminal(out)),
		Out:         out,
	})
}
