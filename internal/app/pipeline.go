package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reelshorts/internal/fetch"
	"reelshorts/internal/ffmpeg"
	"reelshorts/internal/uploader"
)

const (
	urlPrompt   = "Enter Instagram Reel URL"
	titlePrompt = "Enter YouTube Shorts title"
)

type Pipeline struct {
	service *Service
}

type Result struct {
	VideoID   string
	URL       string
	Title     string
	Tags      []string
	VideoPath string
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

// Run downloads the video at sourceURL and publishes it as a Short. An empty
// sourceURL is asked for interactively.
func (pipeline *Pipeline) Run(ctx context.Context, sourceURL string) (*Result, error) {
	s := pipeline.service

	sourceURL, err := pipeline.ensureValue(sourceURL, urlPrompt)
	if err != nil {
		return nil, err
	}

	var tool ffmpeg.Resolution
	err = s.steps.Run("Checking ffmpeg", func() error {
		tool = s.tools.Resolve(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("ffmpeg resolved", "source", tool.Source, "path", tool.Path)

	var meta *fetch.Metadata
	err = s.steps.Run("Fetching metadata", func() error {
		var err error
		meta, err = s.media.Metadata(ctx, sourceURL, tool.Dir())
		return err
	})
	if err != nil {
		return nil, err
	}
	pipeline.printMetadata(meta)

	tags := FinalizeTags(meta.Tags)

	title, err := pipeline.ensureValue(meta.Title, titlePrompt)
	if err != nil {
		return nil, err
	}

	var videoPath string
	err = s.steps.Run("Downloading video", func() error {
		var err error
		videoPath, err = s.media.Download(ctx, sourceURL, tool.Dir())
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Video downloaded", "path", videoPath)

	client, err := s.auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	up, err := s.newUploader(ctx, client)
	if err != nil {
		return nil, err
	}

	resp, err := up.Upload(ctx, uploader.UploadRequest{
		FilePath: videoPath,
		Title:    title,
		Tags:     tags,
		Progress: progressPrinter(s.out),
	})
	if err != nil {
		return nil, err
	}

	pipeline.println(successStyle.Render("Upload complete"))
	pipeline.println(resp.URL)
	pipeline.println(infoStyle.Render(fmt.Sprintf("Video saved at %s (scratch directory is not cleaned automatically)", videoPath)))

	slog.Info("Published", "platform", up.Platform(), "id", resp.ID)

	return &Result{
		VideoID:   resp.ID,
		URL:       resp.URL,
		Title:     title,
		Tags:      tags,
		VideoPath: videoPath,
	}, nil
}

// ensureValue returns value unchanged unless it is blank, in which case it
// asks until a non-blank answer arrives.
func (pipeline *Pipeline) ensureValue(value, question string) (string, error) {
	for isBlank(value) {
		if pipeline.service.prompter == nil {
			return "", errors.New(question + ": no input available")
		}
		answer, err := pipeline.service.prompter.Ask(question)
		if err != nil {
			return "", err
		}
		value = answer
	}
	return value, nil
}

func (pipeline *Pipeline) printMetadata(meta *fetch.Metadata) {
	title := meta.Title
	if isBlank(title) {
		title = warnStyle.Render("(no title)")
	}
	pipeline.println(titleStyle.Render("Title: ") + title)
	pipeline.println(titleStyle.Render("Tags: ") + formatTags(meta.Tags))
}

func (pipeline *Pipeline) println(line string) {
	_, _ = fmt.Fprintln(pipeline.service.out, line)
}
