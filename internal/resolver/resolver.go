// Package resolver turns capcodes into display fragments using the capcode
// directory.
package resolver

import (
	"fmt"

	"p2000-receiver/internal/models"
)

// Directory looks up capcodes.
type Directory interface {
	Receiver(capcode string) (models.ReceiverRecord, bool)
}

// Resolution is the per-capcode metadata merged into a message.
type Resolution struct {
	Capcode    string
	Receiver   string
	Discipline string
	Region     string
	Location   string
	Remark     string
	Known      bool
}

// Resolver maps capcodes to receiver metadata.
type Resolver struct {
	dir Directory
}

// New creates a Resolver.
func New(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the metadata for one capcode. Unknown capcodes resolve to
// themselves with empty metadata.
func (r *Resolver) Resolve(capcode string) Resolution {
	rec, ok := r.dir.Receiver(capcode)
	if !ok {
		return Resolution{Capcode: capcode, Receiver: capcode}
	}
	return Resolution{
		Capcode:    capcode,
		Receiver:   fmt.Sprintf("%s (%s)", rec.Description, capcode),
		Discipline: rec.Discipline,
		Region:     rec.Region,
		Location:   rec.Location,
		Remark:     rec.Remark,
		Known:      true,
	}
}

// ResolveAll resolves capcodes in order.
func (r *Resolver) ResolveAll(capcodes []string) []Resolution {
	out := make([]Resolution, 0, len(capcodes))
	for _, c := range capcodes {
		out = append(out, r.Resolve(c))
	}
	return out
}
