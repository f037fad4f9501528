// Package sanitizer normalizes client-supplied booking input before validation.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. They never fail; input that normalizes to nothing comes
// back empty (or nil for optional fields) and is left for the validator to reject.
//
// Normalization includes:
//   - Names: collapse whitespace, trim, title-case each word ("  mary-jane  o'neil" becomes "Mary-Jane O'Neil")
//   - Emails: trim and lowercase
//   - Notes: trim, drop control characters, collapse runs of blank lines; empty notes become nil
//   - Zone names: trim only, so the timezone converter sees the caller's spelling
package sanitizer
