// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/beevik/cmd"
)

func stringToBool(s string) (bool, error) {
	s = strings.ToLower(s)
	switch s {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

// Parse an unsigned number. A leading '$' selects hexadecimal, as does
// a leading "0x".
func parseNumber(s string) (uint64, error) {
	var v uint64
	var err error
	if h, ok := strings.CutPrefix(s, "$"); ok {
		v, err = strconv.ParseUint(h, 16, 32)
	} else {
		v, err = strconv.ParseUint(s, 0, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s'", s)
	}
	return v, nil
}

// Return the text of a line that follows the words naming a command.
func commandText(line string, c *cmd.Command) string {
	words := strings.Fields(line)
	rest := line
	for k := 1; k <= len(words); k++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		rest = strings.TrimLeftFunc(rest[len(words[k-1]):], unicode.IsSpace)
		found, args, err := cmds.LookupCommand(strings.Join(words[:k], " "))
		if err == nil && found == c && len(args) == 0 {
			return rest
		}
	}
	return ""
}
