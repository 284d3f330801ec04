package config

const (
	defaultDataDir   = "~/.local/share/catalog"
	defaultLogDir    = "~/.local/share/catalog/logs"
	defaultExportDir = "~/.local/share/catalog/exports"

	defaultWhisperModel         = "large-v3-turbo"
	defaultTranscriptionTimeout = 1800

	defaultLLMBaseURL = "https://api.deepseek.com/chat/completions"
	defaultLLMModel   = "deepseek-chat"
	defaultLLMTimeout = 120

	defaultEmbeddingsBaseURL    = "http://localhost:11434"
	defaultEmbeddingsModel      = "nomic-embed-text"
	defaultEmbeddingsDimensions = 768
	defaultEmbeddingsTimeout    = 60

	defaultFuzzyThreshold  = 0.6
	defaultVectorThreshold = 0.75
	defaultSearchLimit     = 10

	defaultTranscribeConcurrency = 2
	defaultRetryMaxAttempts      = 3
	defaultRetryBaseDelaySeconds = 1
	defaultRetryMaxDelaySeconds  = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Transcription: Transcription{
			Model:          defaultWhisperModel,
			Language:       "en",
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Embeddings: Embeddings{
			BaseURL:        defaultEmbeddingsBaseURL,
			Model:          defaultEmbeddingsModel,
			Dimensions:     defaultEmbeddingsDimensions,
			TimeoutSeconds: defaultEmbeddingsTimeout,
		},
		Search: Search{
			FuzzyThreshold:  defaultFuzzyThreshold,
			VectorThreshold: defaultVectorThreshold,
			DefaultLimit:    defaultSearchLimit,
		},
		Workflow: Workflow{
			TranscribeConcurrency: defaultTranscribeConcurrency,
			RetryMaxAttempts:      defaultRetryMaxAttempts,
			RetryBaseDelaySeconds: defaultRetryBaseDelaySeconds,
			RetryMaxDelaySeconds:  defaultRetryMaxDelaySeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
