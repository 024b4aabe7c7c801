// Package steps provides the transformation steps the standard asset tasks
// are built from. Every step implements pipeline.Step and leaves the input
// record's contents untouched.
package steps
