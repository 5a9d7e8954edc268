package resolver

import (
	"testing"

	"p2000-receiver/internal/models"
	"p2000-receiver/internal/refdata"

	"github.com/stretchr/testify/assert"
)

func TestResolver(t *testing.T) {
	tables := refdata.NewTables([]models.ReceiverRecord{
		{Capcode: "001420059", Discipline: "Brandweer", Region: "Kennemerland", Location: "Haarlem", Description: "BRW Haarlem", Remark: "TS"},
	}, nil, nil)
	r := New(tables)

	got := r.ResolveAll([]string{"001420059", "000999999"})

	assert.Equal(t, []Resolution{
		{
			Capcode:    "001420059",
			Receiver:   "BRW Haarlem (001420059)",
			Discipline: "Brandweer",
			Region:     "Kennemerland",
			Location:   "Haarlem",
			Remark:     "TS",
			Known:      true,
		},
		{Capcode: "000999999", Receiver: "000999999"},
	}, got)
}
