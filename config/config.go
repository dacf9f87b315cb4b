package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode      string          `yaml:"mode"`
	Server    ServerConfig    `yaml:"server"`
	Audio     AudioConfig     `yaml:"audio"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	STT       STTConfig       `yaml:"stt"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	TTS       TTSConfig       `yaml:"tts"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AudioConfig struct {
	FileDir    string `yaml:"file_dir"`
	SampleRate int    `yaml:"sample_rate"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

// STTConfig selects the transcription backend: "whisper" is a one-shot
// upload, "transcribe" stages audio in object storage and polls a job.
type STTConfig struct {
	Provider string `yaml:"provider"`
	Language string `yaml:"language"`
	Region   string `yaml:"region"`
	APIKey   string `yaml:"api_key"`
}

type StorageConfig struct {
	AccessKey string `yaml:"access_key"`
	Secret    string `yaml:"secret"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type TTSConfig struct {
	Voice string `yaml:"voice"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	return &cfg, nil
}

// applyEnvOverrides honors the deployment environment variables that
// predate the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("LLM_MODEL_ID"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("TTS_VOICE_ID"); v != "" {
		c.TTS.Voice = v
	}
	if v := os.Getenv("SERVICE_REGION"); v != "" {
		c.STT.Region = v
		c.Storage.Region = v
	}
}

func (c *Config) setDefaults() {
	if c.Mode == "" {
		c.Mode = "server"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/products.json"
	}
	if c.STT.Provider == "" {
		c.STT.Provider = "whisper"
	}
	if c.STT.Language == "" {
		c.STT.Language = "es-ES"
	}
	if c.STT.Region == "" {
		c.STT.Region = "us-east-1"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "assistant-audio"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "anthropic"
	}
	if c.TTS.Voice == "" {
		c.TTS.Voice = "nova"
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "es"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
