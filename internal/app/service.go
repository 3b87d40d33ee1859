package app

import (
	"context"
	"io"
	"net/http"

	"reelshorts/internal/fetch"
	"reelshorts/internal/ffmpeg"
	"reelshorts/internal/uploader"
)

type ToolResolver interface {
	Resolve(ctx context.Context) ffmpeg.Resolution
}

type MediaSource interface {
	Metadata(ctx context.Context, url, ffmpegDir string) (*fetch.Metadata, error)
	Download(ctx context.Context, url, ffmpegDir string) (string, error)
}

type Authenticator interface {
	Client(ctx context.Context) (*http.Client, error)
}

// UploaderFactory builds an uploader once an authorized client exists.
type UploaderFactory func(ctx context.Context, client *http.Client) (uploader.Uploader, error)

type Prompter interface {
	Ask(title string) (string, error)
}

type StepRunner interface {
	Run(title string, fn func() error) error
}

type Service struct {
	tools       ToolResolver
	media       MediaSource
	auth        Authenticator
	newUploader UploaderFactory
	prompter    Prompter
	steps       StepRunner
	out         io.Writer
}

type ServiceOptions struct {
	Tools       ToolResolver
	Media       MediaSource
	Auth        Authenticator
	NewUploader UploaderFactory
	Prompter    Prompter
	Steps       StepRunner
	Out         io.Writer
}

func NewService(opts ServiceOptions) *Service {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	steps := opts.Steps
	if steps == nil {
		steps = plainSteps{}
	}
	return &Service{
		tools:       opts.Tools,
		media:       opts.Media,
		auth:        opts.Auth,
		newUploader: opts.NewUploader,
		prompter:    opts.Prompter,
		steps:       steps,
		out:         out,
	}
}

type plainSteps struct{}

func (plainSteps) Run(_ string, fn func() error) error { return fn() }
