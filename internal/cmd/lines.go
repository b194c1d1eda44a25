package cmd

import (
	"regexp"
	"strconv"

	"github.com/Iron-Ham/stagewatch/internal/progress"
)

// stepPrefix matches the "[step/total] message" form written by pipelines
// that still count their own steps.
var stepPrefix = regexp.MustCompile(`^\[(\d+)/(\d+)\]\s*(.*)$`)

// parseLine splits an optional step prefix off a log line and returns the
// message with the matching update options.
func parseLine(line string) (string, []progress.UpdateOption) {
	m := stepPrefix.FindStringSubmatch(line)
	if m == nil {
		return line, nil
	}

	step, err := strconv.Atoi(m[1])
	if err != nil {
		return line, nil
	}
	total, err := strconv.Atoi(m[2])
	if err != nil {
		return line, nil
	}

	return m[3], []progress.UpdateOption{progress.WithStep(step), progress.WithTotalSteps(total)}
}
