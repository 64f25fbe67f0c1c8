package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCaptions()
	c.normalizeDownloader()
	c.normalizeWhisper()
	c.normalizeSummary()
	c.normalizeOutput()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeCaptions() {
	languages := make([]string, 0, len(c.Captions.Languages))
	seen := make(map[string]struct{}, len(c.Captions.Languages))
	for _, lang := range c.Captions.Languages {
		normalized := strings.ToLower(strings.TrimSpace(lang))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		languages = append(languages, normalized)
	}
	if len(languages) == 0 {
		languages = append(languages, DefaultCaptionLanguages...)
	}
	c.Captions.Languages = languages
	if c.Captions.RequestTimeout <= 0 {
		c.Captions.RequestTimeout = defaultCaptionTimeout
	}
	if c.Captions.RequestsPerMin <= 0 {
		c.Captions.RequestsPerMin = defaultCaptionRequestsMin
	}
}

func (c *Config) normalizeDownloader() {
	c.Downloader.Binary = strings.TrimSpace(c.Downloader.Binary)
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = defaultDownloaderBinary
	}
	c.Downloader.AudioFormat = strings.TrimSpace(c.Downloader.AudioFormat)
	if c.Downloader.AudioFormat == "" {
		c.Downloader.AudioFormat = defaultAudioFormat
	}
	if c.Downloader.DownloadTimeout <= 0 {
		c.Downloader.DownloadTimeout = defaultDownloadTimeout
	}
	if c.Downloader.MaxRetries < 0 {
		c.Downloader.MaxRetries = 0
	}
}

func (c *Config) normalizeWhisper() {
	c.Whisper.Engine = strings.ToLower(strings.TrimSpace(c.Whisper.Engine))
	if c.Whisper.Engine == "" {
		c.Whisper.Engine = EngineAPI
	}
	if c.Whisper.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Whisper.APIKey = value
		}
	}
	c.Whisper.BaseURL = strings.TrimRight(strings.TrimSpace(c.Whisper.BaseURL), "/")
	if c.Whisper.BaseURL == "" {
		c.Whisper.BaseURL = defaultWhisperBaseURL
	}
	if strings.TrimSpace(c.Whisper.Model) == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	if strings.TrimSpace(c.Whisper.LocalBinary) == "" {
		c.Whisper.LocalBinary = defaultWhisperLocalBinary
	}
	if strings.TrimSpace(c.Whisper.LocalModel) == "" {
		c.Whisper.LocalModel = defaultWhisperLocalModel
	}
	if c.Whisper.TimeoutSeconds <= 0 {
		c.Whisper.TimeoutSeconds = defaultWhisperTimeout
	}
}

func (c *Config) normalizeSummary() {
	if c.Summary.APIKey == "" {
		c.Summary.APIKey = c.Whisper.APIKey
	}
	c.Summary.BaseURL = strings.TrimRight(strings.TrimSpace(c.Summary.BaseURL), "/")
	if c.Summary.BaseURL == "" {
		c.Summary.BaseURL = c.Whisper.BaseURL
	}
	if strings.TrimSpace(c.Summary.Model) == "" {
		c.Summary.Model = defaultSummaryModel
	}
	if c.Summary.TimeoutSeconds <= 0 {
		c.Summary.TimeoutSeconds = defaultSummaryTimeout
	}
}

func (c *Config) normalizeOutput() {
	if strings.TrimSpace(c.Output.FilenameSuffix) == "" {
		c.Output.FilenameSuffix = defaultFilenameSuffix
	}
	if c.Output.PreviewChars <= 0 {
		c.Output.PreviewChars = defaultPreviewChars
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
