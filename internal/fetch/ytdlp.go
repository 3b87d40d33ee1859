package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lrstanley/go-ytdlp"
)

const mergeFormat = "mp4"

// YtdlpBackend runs yt-dlp through go-ytdlp. The executable is resolved (and
// downloaded into go-ytdlp's cache if absent) before the first run.
type YtdlpBackend struct {
	installed bool
	// executable overrides the resolved yt-dlp binary when set.
	executable string
}

func NewYtdlpBackend() *YtdlpBackend {
	return &YtdlpBackend{}
}

func (y *YtdlpBackend) DumpJSON(ctx context.Context, url string, opts RunOptions) ([]byte, error) {
	if err := y.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	result, err := y.metadataCommand(opts).Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}
	return []byte(result.Stdout), nil
}

func (y *YtdlpBackend) Download(ctx context.Context, url, output string, opts RunOptions) error {
	if err := y.ensureInstalled(ctx); err != nil {
		return err
	}

	if _, err := y.downloadCommand(output, opts).Run(ctx, url); err != nil {
		return fmt.Errorf("yt-dlp: %w", err)
	}
	return nil
}

// metadataCommand queries the metadata document only; no media bytes are
// fetched.
func (y *YtdlpBackend) metadataCommand(opts RunOptions) *ytdlp.Command {
	return y.newCommand(opts).
		SkipDownload().
		DumpJSON().
		NoPlaylist().
		NoWarnings()
}

func (y *YtdlpBackend) downloadCommand(output string, opts RunOptions) *ytdlp.Command {
	cmd := y.newCommand(opts).
		MergeOutputFormat(mergeFormat).
		NoPlaylist().
		Output(output)
	if opts.Format != "" {
		cmd = cmd.Format(opts.Format)
	}
	return cmd
}

func (y *YtdlpBackend) newCommand(opts RunOptions) *ytdlp.Command {
	cmd := ytdlp.New()
	if y.executable != "" {
		cmd = cmd.SetExecutable(y.executable)
	}
	if opts.FFmpegDir != "" {
		cmd = cmd.FFmpegLocation(opts.FFmpegDir)
	}
	return cmd
}

func (y *YtdlpBackend) ensureInstalled(ctx context.Context) error {
	if y.installed {
		return nil
	}
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	slog.Debug("yt-dlp ready")
	y.installed = true
	return nil
}
