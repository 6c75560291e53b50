// Package file provides filesystem-backed adapters.
//
// Adapters:
//   - PromptStore: user-editable prompt templates, reloaded on change
//   - ProfileStore: the CLI's remote server profile in TOML
package file
