// Package utils provides small helpers shared by the lookup, fetch and
// resolver packages: loose conversion of upstream JSON values, clock-style
// duration parsing ("HH:MM:SS") and URL fragment helpers.
package utils
