// Package fetch retrieves photo bytes over HTTP or from local files and
// decodes them into images.
//
// Client satisfies task.Fetcher and ImageDecoder satisfies task.Decoder, so a
// scheduler can be wired with real I/O while tests inject stubs.
package fetch
