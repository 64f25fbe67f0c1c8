package whisper

import "ytscribe/internal/config"

func configWhisper(engine, apiKey string) config.Whisper {
	return config.Whisper{
		Engine:      engine,
		APIKey:      apiKey,
		Model:       "whisper-1",
		LocalBinary: "whisper",
		LocalModel:  "base",
	}
}
