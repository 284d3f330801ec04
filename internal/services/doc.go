// Package services holds the error taxonomy shared by the external backend
// clients (transcription, LLM processing, embeddings) and the helpers the
// lifecycle manager uses to classify their failures.
package services
