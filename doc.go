// Package entropy8 implements the Entropy8 archive engine: a self-describing
// container that packs files into a single stream with per-entry compression
// and optional password-based encryption of the whole payload.
//
// # Overview
//
// An archive is created on, or opened from, a Stream: a small vtable of
// read/write/seek callbacks plus an optional flush and close. The engine
// never touches a file system itself; adapters wrap absfs files (and
// therefore *os.File) and in-memory buffers.
//
// Each entry is compressed separately through the codec registry; AddAll
// compresses a batch of entries concurrently. Built-in codecs:
//
//   - store (0): verbatim copy
//   - lz4   (1): fast, moderate ratio
//   - lzma  (2): high ratio, slower, 128 MiB decode memory limit
//   - zstd  (3): balanced; the default at level 3
//
// A codec that fails, or fails to shrink its input, silently falls back to
// store. Compression is a best effort, never a correctness risk.
//
// # Encryption
//
// A non-empty password at Create switches the container to its encrypted
// form: the payload, directory included, is buffered in memory and sealed on
// Close as one AES-256-CBC blob keyed by PBKDF2-HMAC-SHA-256 (100,000
// iterations, 16-byte salt). A wrong password at Open is indistinguishable
// from corruption; both report a format failure.
//
// # Basic usage
//
//	f, _ := os.Create("backup.e8")
//	out, _ := entropy8.NewFileStream(f)
//
//	ar, err := entropy8.Create(out, "hunter2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	in, _ := entropy8.NewFileStream(content)
//	ar.Add("docs/readme.md", in, nil)
//	ar.Close() // finalizes the directory and closes the file
//
// Reading mirrors writing: Open, Count, Entry, Extract by index, Close.
//
// # Concurrency
//
// One goroutine per archive handle. Distinct handles over independent
// streams are safe concurrently. The codec registry is initialized once and
// read-only afterwards.
package entropy8
