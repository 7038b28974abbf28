// Package sanitizer normalizes renter-supplied strings before validation and
// storage: display names, free-form notes, and phone numbers.
package sanitizer
