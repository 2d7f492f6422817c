package config

import "github.com/spf13/viper"

type Config struct {
	ServerPort         string
	TessdataPrefix     string
	MaxImageSide       int
	ExtractConcurrency int
	ExtractTimeoutSecs int
	LearningDBPath     string
	MaxFileSize        int64
}

// LoadConfig reads configuration from the environment with sane defaults.
func LoadConfig() *Config {
	v := viper.New()

	v.SetDefault("server_port", "8080")
	v.SetDefault("tessdata_prefix", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("max_image_side", 2000)
	v.SetDefault("extract_concurrency", 4)
	v.SetDefault("extract_timeout_secs", 30)
	v.SetDefault("learning_db_path", "ocr_learning.db")
	v.SetDefault("max_file_size", 10*1024*1024)

	v.AutomaticEnv()

	return &Config{
		ServerPort:         v.GetString("server_port"),
		TessdataPrefix:     v.GetString("tessdata_prefix"),
		MaxImageSide:       v.GetInt("max_image_side"),
		ExtractConcurrency: v.GetInt("extract_concurrency"),
		ExtractTimeoutSecs: v.GetInt("extract_timeout_secs"),
		LearningDBPath:     v.GetString("learning_db_path"),
		MaxFileSize:        v.GetInt64("max_file_size"),
	}
}
