// Command silentcut removes long silences from video files.
//
//	silentcut process talk.mp4 -o talk_cut.mp4 --threshold-db -35
//	silentcut analyze talk.mp4 --json
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
