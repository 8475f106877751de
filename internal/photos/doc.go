// Package photos defines the item record the pipeline works on.
//
// A Record carries a display name, an immutable source URL, the current
// lifecycle state, and the best rendering available for that state. State only
// moves forward (New to Downloaded to Filtered, or New to Failed); the
// transition methods refuse every other edge so a late writer can never revert
// a record.
package photos
