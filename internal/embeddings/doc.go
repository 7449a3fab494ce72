// Package embeddings provides embedding generation via multiple providers.
//
// A Provider maps text to a fixed-dimension float32 vector. Three
// implementations exist, selected by config:
//
//   - gemini (default): Google Generative Language API, the hosted provider
//     the system was built around (text-embedding-004, 768 dimensions).
//   - ollama: a local Ollama server's /api/embed endpoint.
//   - tei: a Hugging Face text-embeddings-inference server.
//
// Identical input yields equivalent vectors within one provider and model;
// vectors from different providers are not comparable, so changing provider
// or model invalidates the stored embeddings.
package embeddings
