// Package proctitle sets the name a process shows in system process listings.
package proctitle

import "strings"

// maxNameLen is the kernel's limit for a thread name, excluding the NUL.
const maxNameLen = 15

// Name builds a display name from a program name and an optional comment,
// e.g. "sock3:ringtosto". The comment leads so it survives the length limit.
func Name(program, comment string) string {
	comment = strings.Join(strings.Fields(comment), "_")
	if comment == "" {
		return truncate(program)
	}
	return truncate(comment + ":" + program)
}

func truncate(s string) string {
	if len(s) > maxNameLen {
		return s[:maxNameLen]
	}
	return s
}
