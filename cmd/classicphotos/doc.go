// Package main hosts the classicphotos CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, reads the photo catalog, and
// drives the gallery through a simulated scrolling viewport so the fetch and
// filter pipeline can be exercised from a terminal. Heavy lifting lives in the
// internal packages; commands here only wire them together and render output.
package main
