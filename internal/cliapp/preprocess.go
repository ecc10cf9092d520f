// Package cliapp wires the command surface: a getopt-style set of
// attached short options (-h<host>, -m<service>.<method>) on top of
// urfave/cli's flag parser, which only understands "-h value" or
// "-h=value". splitAttachedShortFlags runs once over os.Args before
// handing them to the app, rewriting each attached short option into two
// tokens so urfave/cli's scaffolding — help text, flag validation, error
// formatting — still does the real work.
package cliapp

import "strings"

// shortFlags are single-letter options that accept an attached value, the
// same set the original getopt optString declared.
var shortFlags = map[byte]bool{
	'h': true, 'p': true, 'm': true, 'a': true,
	'e': true, 't': true, 'c': true, 'n': true,
}

// splitAttachedShortFlags rewrites tokens like "-h10.0.0.1" into ["-h",
// "10.0.0.1"] and leaves long options (--foo), bare short flags (-v) and
// non-flag arguments untouched.
func splitAttachedShortFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if len(a) > 2 && a[0] == '-' && a[1] != '-' && shortFlags[a[1]] {
			out = append(out, a[:2], trimOptValue(a[2:]))
			continue
		}
		out = append(out, a)
	}
	return out
}

// trimOptValue mirrors the original client's trim_opt: strip a leading '='
// and surrounding whitespace some shells leave behind when a value is
// quoted oddly.
func trimOptValue(v string) string {
	v = strings.TrimPrefix(v, "=")
	return strings.TrimSpace(v)
}
