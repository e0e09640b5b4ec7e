// Package vvc indexes H.266/VVC Annex B elementary streams. It classifies
// NAL units by their two-byte header, tracks sequence parameter sets, detects
// access unit boundaries and builds a seekable frame index together with a
// per-access-unit bitrate trace.
//
// The central type is [Parser], which is fed one [RawUnit] at a time and
// terminated with [EndOfStream]. Splitting a byte stream into units is left
// to the caller (see package annexb). Nothing here decodes pictures.
package vvc
