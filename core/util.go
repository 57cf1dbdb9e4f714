package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Truncate cuts s down to max runes, appending "..." when something was cut.
func Truncate(s string, max int) string {
	if max < 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

// ParseAddressList parses a comma separated list of e-mail addresses, skipping invalid ones.
func ParseAddressList(s string) []mail.Address {
	var addrs []mail.Address
	for _, part := range strings.Split(s, ",") {
		part = CleanString(part)
		if part == "" {
			continue
		}
		if addr, err := mail.ParseAddress(part); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run,
// so walk up until the module root is found, or fall back to the working directory.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
