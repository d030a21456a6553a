// Package file keeps user-editable state on disk: config.toml through
// ConfigStore and the prompt templates through PromptStore.
package file
