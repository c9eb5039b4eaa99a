// Package engine implements the tokenizer the boundary exposes: it loads a
// Hugging Face style tokenizer.json definition and encodes and decodes text
// with it.
//
// # Pipeline
//
// Encoding a text runs these stages in order:
//
//	added tokens   matched in the raw text, never split further
//	normalizer     Lowercase, NFC/NFD/NFKC/NFKD, StripAccents, Strip, Prepend, Replace, BertNormalizer
//	pre-tokenizer  Whitespace, WhitespaceSplit, BertPreTokenizer, Punctuation, Digits, ByteLevel, Metaspace, Split
//	model          WordLevel, WordPiece, BPE, Tiktoken
//	truncation     longest window kept, the rest in Encoding.Overflowing
//	post-processor TemplateProcessing, BertProcessing, RobertaProcessing
//	padding        BatchLongest or Fixed, optionally to a multiple
//
// Every stage keeps an alignment from its output back to the input bytes, so
// offsets always point into the original text. They are byte offsets unless
// EncodeOptions.CharOffsets is set.
//
// Decoding maps ids back to token strings and runs the decoder chain
// (WordPiece, ByteLevel, Metaspace, BPEDecoder, Fuse, Replace, ByteFallback,
// Strip). Without a decoder tokens are joined with a single space.
//
// A Tokenizer is not safe for concurrent use; callers serialize access.
package engine
