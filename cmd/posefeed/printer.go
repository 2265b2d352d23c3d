package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/bft-labs/posefeed/pkg/posefeed"
)

// posePrinter collects the entities updated during a tick and prints their
// latest pose once the tick's notifications are drained.
type posePrinter struct {
	posefeed.BaseEventHandler

	out     io.Writer
	updated map[string]struct{}
	lost    string
}

func newPosePrinter(out io.Writer) *posePrinter {
	return &posePrinter{out: out, updated: make(map[string]struct{})}
}

func (p *posePrinter) OnConnected() {
	fmt.Fprintln(p.out, "# connected")
}

func (p *posePrinter) OnConnectionLost(reason string) {
	fmt.Fprintf(p.out, "# connection lost: %s\n", reason)
	p.lost = reason
}

func (p *posePrinter) OnSampleUpdated(s posefeed.PoseSample) {
	p.updated[s.EntityID] = struct{}{}
}

// latestSource is the part of the client the printer reads from.
type latestSource interface {
	Latest(entityID string) (posefeed.PoseSample, bool)
}

func (p *posePrinter) flush(src latestSource) {
	if len(p.updated) == 0 {
		return
	}
	ids := make([]string, 0, len(p.updated))
	for id := range p.updated {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s, ok := src.Latest(id)
		if !ok {
			continue
		}
		fmt.Fprintln(p.out, formatPose(s))
	}
	clear(p.updated)
}

func formatPose(s posefeed.PoseSample) string {
	return fmt.Sprintf("%.6f %s pos=(%.4f, %.4f, %.4f) rot=(%.4f, %.4f, %.4f, %.4f)",
		s.Timestamp, s.EntityID,
		s.Position[0], s.Position[1], s.Position[2],
		s.Rotation[0], s.Rotation[1], s.Rotation[2], s.Rotation[3])
}
