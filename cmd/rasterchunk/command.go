package main

import (
	"fmt"
	"strconv"
	"strings"
)

// settingKeys are the "<key>=<value>" arguments commands understand.  Any other
// argument is positional.
var settingKeys = map[string]struct{}{
	"band":         {},
	"center":       {},
	"geotransform": {},
	"limit":        {},
}

// Command is a command line split into words.  The first item is the command name;
// the rest are positional arguments or optional settings of the form
// "<key>=<value>".
type Command []string

// String returns a space-separated command line
func (cmd Command) String() string {
	return strings.Join([]string(cmd), " ")
}

// Name returns the first argument which is assumed to be the name of the command.
func (cmd Command) Name() string {
	if len(cmd) == 0 {
		return ""
	}
	return strings.ToLower(cmd[0])
}

// Setting scans a command for any "key=value" argument and returns
// the value of the passed 'key'.
func (cmd Command) Setting(key string) (value string, found bool) {
	if len(cmd) > 1 {
		for _, arg := range cmd[1:] {
			elems := strings.SplitN(arg, "=", 2)
			if len(elems) == 2 && elems[0] == key {
				return elems[1], true
			}
		}
	}
	return
}

// IntSetting returns the integer value of a setting or def if it isn't given.
func (cmd Command) IntSetting(key string, def int) (int, error) {
	s, found := cmd.Setting(key)
	if !found {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("setting %s=%q is not an integer", key, s)
	}
	return v, nil
}

// BoolSetting returns the boolean value of a setting, false if it isn't given.
func (cmd Command) BoolSetting(key string) (bool, error) {
	s, found := cmd.Setting(key)
	if !found {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("setting %s=%q is not a boolean", key, s)
	}
	return v, nil
}

// CommandArgs sets a variadic argument set of string pointers to command
// arguments, ignoring setting arguments of the form "<key>=<value>".
// If there aren't enough arguments to set a target, the target is set to the
// empty string.  It returns an 'overflow' slice that has all arguments
// beyond those needed for targets.
func (cmd Command) CommandArgs(targets ...*string) (overflow []string) {
	for _, target := range targets {
		*target = ""
	}
	if len(cmd) < 2 {
		return
	}
	var curTarget int
	for _, arg := range cmd[1:] {
		elems := strings.SplitN(arg, "=", 2)
		if len(elems) == 2 {
			if _, isSetting := settingKeys[elems[0]]; isSetting {
				continue
			}
		}
		if curTarget < len(targets) {
			*(targets[curTarget]) = arg
		} else {
			overflow = append(overflow, arg)
		}
		curTarget++
	}
	return
}

// parseGeoTransform parses six comma-separated numbers in GDAL ordering.
func parseGeoTransform(s string) (gt [6]float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return gt, fmt.Errorf("geotransform %q needs 6 comma-separated values", s)
	}
	for i, p := range parts {
		if gt[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return gt, fmt.Errorf("bad geotransform value %q: %v", p, err)
		}
	}
	return gt, nil
}
