package config

import "strings"

func (c *Config) normalize() error {
	c.Paths.DataDir = strings.TrimSpace(c.Paths.DataDir)
	c.Paths.LogDir = strings.TrimSpace(c.Paths.LogDir)
	c.Paths.ExportDir = strings.TrimSpace(c.Paths.ExportDir)

	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return err
	}

	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(strings.TrimSuffix(c.LLM.BaseURL, "/"))
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)

	c.Embeddings.BaseURL = strings.TrimSpace(strings.TrimSuffix(c.Embeddings.BaseURL, "/"))
	c.Embeddings.Model = strings.TrimSpace(c.Embeddings.Model)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}
