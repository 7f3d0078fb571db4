package config

import "time"

// Default returns the configuration used when config.yaml is absent or a
// section is missing. The ASR windowing numbers follow the engine's
// recommended dynamic-batch limits.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8090,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "server.log",
		},
		Web: WebConfig{
			Enabled:   true,
			StaticDir: "web",
			Websocket: "/ws",
		},
		ASR: ASRConfig{
			Provider:        "funasr",
			BaseURL:         "http://127.0.0.1:10095",
			Model:           "iic/SenseVoiceSmall",
			Device:          "auto",
			MinGPUMemoryGB:  4.0,
			VADMaxSegmentMS: 6000000,
			BatchSizeS:      30,
			MergeVAD:        true,
			MergeLengthS:    5,
			UseITN:          true,
			SegmentMinutes:  5,
			ChunkSeconds:    120,
			QueueCapacity:   5,
		},
		Media: MediaConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			TempDir:     "temp_audio",
		},
		Store: StoreConfig{
			Driver: "memory",
			TTL:    24 * time.Hour,
		},
		Translate: TranslateConfig{
			Provider: "ollama",
			BaseURL:  "http://127.0.0.1:11434",
			Model:    "gemma3:12b",
			SystemPrompt: "You are a professional subtitle translator. Translate the " +
				"following text naturally and concisely into Simplified Chinese for video " +
				"subtitles. Return only the translated text with no extra commentary.",
		},
	}
}
