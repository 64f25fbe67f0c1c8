package config

const (
	defaultOutputDir          = "~/transcripts"
	defaultWorkDir            = "~/.local/share/ytscribe/work"
	defaultLogDir             = "~/.local/share/ytscribe/logs"
	defaultAPIBind            = "127.0.0.1:7519"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultCaptionTimeout     = 15
	defaultCaptionRequestsMin = 30
	defaultDownloaderBinary   = "yt-dlp"
	defaultAudioFormat        = "bestaudio[ext=m4a]/bestaudio/best"
	defaultDownloadTimeout    = 900
	defaultDownloadRetries    = 3
	defaultWhisperBaseURL     = "https://api.openai.com/v1"
	defaultWhisperModel       = "whisper-1"
	defaultWhisperLocalBinary = "whisper"
	defaultWhisperLocalModel  = "tiny"
	defaultWhisperTimeout     = 1800
	defaultSummaryModel       = "gpt-4o-mini"
	defaultSummaryTimeout     = 120
	defaultFilenameSuffix     = "_transcription"
	defaultPreviewChars       = 300
	defaultNotifyTimeout      = 10
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120

	// EngineAPI selects the OpenAI-compatible transcription endpoint.
	EngineAPI = "api"
	// EngineLocal selects the local whisper CLI.
	EngineLocal = "local"
)

// DefaultCaptionLanguages is the caption language preference order tried when
// the config does not override it.
var DefaultCaptionLanguages = []string{"en", "pt", "es", "fr", "de"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Captions: Captions{
			Enabled:        true,
			Languages:      append([]string{}, DefaultCaptionLanguages...),
			PreferManual:   true,
			AllowGenerated: true,
			RequestTimeout: defaultCaptionTimeout,
			RequestsPerMin: defaultCaptionRequestsMin,
		},
		Downloader: Downloader{
			Binary:          defaultDownloaderBinary,
			AudioFormat:     defaultAudioFormat,
			DownloadTimeout: defaultDownloadTimeout,
			MaxRetries:      defaultDownloadRetries,
		},
		Whisper: Whisper{
			Engine:         EngineAPI,
			BaseURL:        defaultWhisperBaseURL,
			Model:          defaultWhisperModel,
			LocalBinary:    defaultWhisperLocalBinary,
			LocalModel:     defaultWhisperLocalModel,
			TimeoutSeconds: defaultWhisperTimeout,
		},
		Summary: Summary{
			Model:          defaultSummaryModel,
			TimeoutSeconds: defaultSummaryTimeout,
		},
		Output: Output{
			FilenameSuffix: defaultFilenameSuffix,
			WriteSRT:       true,
			PreviewChars:   defaultPreviewChars,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completion:     true,
			Fallback:       true,
			Queue:          true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
