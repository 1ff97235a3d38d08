// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides casement's standard CBOR encoding configuration.
//
// Casement uses two binary formats with a clear boundary:
//
//   - 9P2000 wire messages for everything a client can do: they are
//     hand-laid little-endian structures owned by the ninep package
//     and never touch this package.
//   - CBOR for internal process-to-process messages: the hello
//     handshake a nested instance sends its parent over the update
//     channel.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every casement package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Types serialized through this package carry `cbor` struct tags; they
// never participate in JSON serialization.
package codec
