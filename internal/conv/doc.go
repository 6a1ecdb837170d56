// Package conv provides checked integer conversions between file offsets
// (int64) and the int lengths accepted by the mapping syscalls.
//
// A failed conversion means the value cannot be addressed by a single
// mapping on this platform; callers treat that as "too large to map"
// rather than as a programming error.
package conv
