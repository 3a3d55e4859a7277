// Package command parses pictocrab's wire command grammar and
// represents it as a tagged struct, never as reflection or a
// string-keyed dispatch table (spec.md §9).
package command

import (
	"strconv"
	"strings"

	"github.com/RedstoneMedia/pictocrab/internal/errs"
)

// Kind identifies which of the four (plus the supplemental stats)
// commands a Command carries.
type Kind int

const (
	Unknown Kind = iota
	Setup
	ClearCache
	Get
	Gets
	Stats
)

// Command is the parsed form of one `|`-delimited wire command
// (spec.md §4.7, §6.1).
type Command struct {
	Kind Kind
	Raw  string // the original command name, for logging an Unknown command

	// Setup
	DiskCacheDir  string
	WorkingDir    string
	ThreadedReads bool

	// Get / Gets
	Path   string   // Get only
	Paths  []string // Gets only
	Width  int
	Height int
}

// Parse splits text on "|" and builds a Command. Width/height parse
// failures are fatal to the command (spec.md §4.7).
func Parse(text string) (Command, error) {
	fields := strings.Split(text, "|")
	if len(fields) == 0 || fields[0] == "" {
		return Command{}, &errs.ParseError{Msg: "empty command"}
	}
	name := fields[0]
	args := fields[1:]

	switch name {
	case "setup":
		if len(args) != 3 {
			return Command{}, &errs.ParseError{Msg: "setup requires 3 arguments, got " + strconv.Itoa(len(args))}
		}
		return Command{
			Kind:          Setup,
			Raw:           name,
			DiskCacheDir:  args[0],
			WorkingDir:    args[1],
			ThreadedReads: args[2] == "true",
		}, nil

	case "clear_cache":
		return Command{Kind: ClearCache, Raw: name}, nil

	case "stats":
		return Command{Kind: Stats, Raw: name}, nil

	case "get":
		if len(args) != 3 {
			return Command{}, &errs.ParseError{Msg: "get requires 3 arguments, got " + strconv.Itoa(len(args))}
		}
		w, err := strconv.Atoi(args[1])
		if err != nil {
			return Command{}, &errs.ParseError{Msg: "get: bad width: " + err.Error()}
		}
		h, err := strconv.Atoi(args[2])
		if err != nil {
			return Command{}, &errs.ParseError{Msg: "get: bad height: " + err.Error()}
		}
		return Command{Kind: Get, Raw: name, Path: args[0], Width: w, Height: h}, nil

	case "gets":
		if len(args) < 3 {
			return Command{}, &errs.ParseError{Msg: "gets requires width, height, and at least one path"}
		}
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, &errs.ParseError{Msg: "gets: bad width: " + err.Error()}
		}
		h, err := strconv.Atoi(args[1])
		if err != nil {
			return Command{}, &errs.ParseError{Msg: "gets: bad height: " + err.Error()}
		}
		return Command{Kind: Gets, Raw: name, Width: w, Height: h, Paths: args[2:]}, nil

	default:
		return Command{Kind: Unknown, Raw: name}, nil
	}
}
