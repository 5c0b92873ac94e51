// Package feedfetch retrieves third-party RSS/Atom documents and extracts a
// single item's playable fields.
//
// Upstream feeds are arbitrary, so matching is tolerant: an identifier may
// equal an item's GUID, its enclosure or link URL, or appear only as a
// substring of one of them (for example a URL identifier whose path shows up
// inside a tracking-prefixed enclosure URL). Exact matches always win over
// substring ones.
//
// The fetcher fails closed. Unreachable, oversized or unparsable documents
// produce an error wrapping ErrNotFound and never a panic or partial result.
// Fields missing from the document are left empty.
package feedfetch
