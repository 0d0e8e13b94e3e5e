package config

const (
	defaultBaseDir       = "~/videos"
	defaultLogDir        = "~/.local/share/shelver/logs"
	defaultFFmpegBinary  = "ffmpeg"
	defaultCRF           = 23
	defaultPreset        = "veryfast"
	defaultPreviewWidth  = 640
	defaultGitBinary     = "git"
	defaultCommitMessage = "Add new videos"
	defaultLogFormat     = "auto"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir: defaultBaseDir,
			LogDir:  defaultLogDir,
		},
		Transcode: Transcode{
			FFmpegBinary: defaultFFmpegBinary,
			CRF:          defaultCRF,
			Preset:       defaultPreset,
			PreviewWidth: defaultPreviewWidth,
		},
		Publish: Publish{
			Enabled:       true,
			GitBinary:     defaultGitBinary,
			CommitMessage: defaultCommitMessage,
			Push:          true,
		},
		Catalog: Catalog{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
