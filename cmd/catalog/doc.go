// Command catalog manages a local library of voice recordings and other
// media: import, transcription, post-processing, hybrid search, and
// Markdown export.
package main
