package config

// UploadConfig holds settings for text file ingestion.
type UploadConfig struct {
	// DefaultStrategy is used when an upload does not name one.
	DefaultStrategy string `mapstructure:"default_strategy" default:"touch_then_append"`
	// Encodings is the ordered, comma separated decoder fallback list.
	Encodings []string `mapstructure:"encodings" default:"utf-8-sig,latin-1,cp1258"`
	// MaxBytes caps the size of an uploaded file.
	MaxBytes int64 `mapstructure:"max_bytes" default:"10485760"`
}
