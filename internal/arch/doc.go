// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package arch provides the image formats the console can load.
//
// Each format is a workspace.Capability that builds an *Architecture: the
// load image (address/byte chunks), the loader's symbol table and the target
// language. Formats are probed in the order returned by Capabilities:
//
//   - xml: a <binaryimage> document of hex bytechunks and symbols
//   - elf: an ELF executable or object (allocated sections, .symtab)
//   - raw: any other regular file, loaded whole at offset 0
//
// # Savefiles
//
// A workspace saves as <FORMAT_savefile name target> holding its language,
// a <loadimage> whose chunks are zstd-compressed and base64 encoded, the
// loader symbols and the published symbols. The blake3 digest of the image
// is stored on <loadimage> and checked on restore.
//
// # Languages
//
// A target other than "default" must name a <language id=...> entry of a
// *.ldefs file found under the search paths.
package arch
