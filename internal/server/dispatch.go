package server

import (
	"fmt"

	"github.com/RedstoneMedia/pictocrab/internal/command"
	"github.com/RedstoneMedia/pictocrab/internal/errs"
	"github.com/RedstoneMedia/pictocrab/internal/wire"
)

// Dispatch executes one parsed command against this connection's stream,
// implementing spec.md §4.7's four commands plus the supplemental
// `stats` command from SPEC_FULL.md §4.7. Unknown commands are logged
// here and produce no response frame (spec.md §4.7).
func (c *Conn) Dispatch(cmd command.Command) error {
	switch cmd.Kind {
	case command.Setup:
		if !c.Config.IsSet() {
			c.logf("setup: disk_cache_dir=%s working_dir=%s threaded_reads=%v",
				cmd.DiskCacheDir, cmd.WorkingDir, cmd.ThreadedReads)
		}
		return c.Config.Setup(cmd.DiskCacheDir, cmd.WorkingDir, cmd.ThreadedReads)

	case command.ClearCache:
		return c.Cache.Clear()

	case command.Stats:
		hits, misses, diskEntries, memEntries := c.Cache.Stats()
		line := fmt.Sprintf("%d|%d|%d|%d", hits, misses, diskEntries, memEntries)
		return wire.WriteFrame(c.Stream, []byte(line))

	case command.Get:
		if !c.Config.IsSet() {
			return &errs.ConfigError{Msg: "get before setup"}
		}
		return c.Pipeline.Get(c.Stream, cmd.Path, cmd.Width, cmd.Height)

	case command.Gets:
		if !c.Config.IsSet() {
			return &errs.ConfigError{Msg: "gets before setup"}
		}
		return c.Pool.Gets(c.Stream, c.Pipeline, cmd.Width, cmd.Height, cmd.Paths)

	case command.Unknown:
		c.logf("unknown command: %q", cmd.Raw)
		return nil

	default:
		return &errs.ParseError{Msg: "unhandled command kind"}
	}
}
