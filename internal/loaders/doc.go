// Package loaders provides implementations of the Loader interface for
// the document formats found in a planning corpus. Each loader knows how
// to extract page-level text from one file format.
//
// Loaders are registered with the Registry at startup and selected by
// file extension.
package loaders
