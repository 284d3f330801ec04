// Package textutil provides text processing utilities for tokenization,
// similarity scoring, and filename sanitization.
//
// The primary use cases are:
//   - Tokenizing entry text for the keyword inverted index
//   - Term-frequency fingerprints for keyword scoring
//   - Token-set edit-distance similarity for fuzzy matching
//   - Sanitizing filenames for exported Markdown documents
//
// The tokenization process lowercases text, splits on non-alphanumeric
// characters, and filters tokens shorter than 3 characters.
package textutil
