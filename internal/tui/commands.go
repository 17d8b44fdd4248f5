package tui

import "strings"

// command is a parsed "/name args..." line.
type command struct {
	name string
	args []string
	rest string // everything after the name, trimmed
}

func parseCommand(input string) (command, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return command{}, false
	}
	body := strings.TrimSpace(input[1:])
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return command{}, false
	}
	return command{
		name: strings.ToLower(fields[0]),
		args: fields[1:],
		rest: strings.TrimSpace(strings.TrimPrefix(body, fields[0])),
	}, true
}
