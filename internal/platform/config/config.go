package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Web       WebConfig       `yaml:"web"`
	ASR       ASRConfig       `yaml:"asr"`
	Media     MediaConfig     `yaml:"media"`
	Store     StoreConfig     `yaml:"store"`
	Translate TranslateConfig `yaml:"translate"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	StaticDir string `yaml:"static_dir"`
	Websocket string `yaml:"websocket"`
}

// ASRConfig configures the recognition engine and both pipelines.
type ASRConfig struct {
	Provider        string  `yaml:"provider"`
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	Device          string  `yaml:"device"`
	MinGPUMemoryGB  float64 `yaml:"min_gpu_memory_gb"`
	VADMaxSegmentMS int     `yaml:"vad_max_segment_ms"`
	BatchSizeS      int     `yaml:"batch_size_s"`
	MergeVAD        bool    `yaml:"merge_vad"`
	MergeLengthS    int     `yaml:"merge_length_s"`
	UseITN          bool    `yaml:"use_itn"`
	SegmentMinutes  int     `yaml:"segment_minutes"`
	ChunkSeconds    int     `yaml:"chunk_seconds"`
	QueueCapacity   int     `yaml:"queue_capacity"`
}

type MediaConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	TempDir     string `yaml:"temp_dir"`
}

type StoreConfig struct {
	Driver string             `yaml:"driver"`
	TTL    time.Duration      `yaml:"ttl"`
	Redis  *RedisStoreConfig  `yaml:"redis,omitempty"`
	SQLite *SQLiteStoreConfig `yaml:"sqlite,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SQLiteStoreConfig struct {
	DSN string `yaml:"dsn"`
}

type TranslateConfig struct {
	Provider     string `yaml:"provider"`
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}
