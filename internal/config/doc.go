// Package config loads, normalizes, and validates shortreel configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, loads .env files, and honours environment fallbacks such as
// OPENAI_API_KEY, GEMINI_API_KEY, AI_PROVIDER, SUBTITLE_MODE, and
// WORDS_PER_LINE. Out-of-range values are replaced by defaults rather than
// rejected, so a typo in a ratio or mode never aborts a render.
package config
