// Package watch re-renders a template whenever its directory or one of its
// extra files changes. Passes are serialised through a one-slot queue, and
// writes of the output file itself are ignored.
package watch
