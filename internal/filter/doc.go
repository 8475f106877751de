// Package filter implements the sepia transform applied to downloaded photos.
package filter
