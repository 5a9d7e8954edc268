// Package aggregator folds decoder lines that describe the same event into a
// single message and keeps the most recent messages for the dispatcher.
package aggregator

import (
	"sync"
	"time"

	"p2000-receiver/internal/extractor"
	"p2000-receiver/internal/models"
	"p2000-receiver/internal/resolver"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of messages kept in the recent buffer.
const DefaultCapacity = 100

// Line is one enriched decoder line.
type Line struct {
	Raw            models.RawLine
	LocalTimestamp string
	Priority       int
	Extract        extractor.Result
	Receivers      []resolver.Resolution

	// AwaitGeo holds a newly created message back from Claim until SetGeo
	// has stored its geocoding outcome.
	AwaitGeo bool
}

// Outcome tells the caller what Add did with a line.
type Outcome int

const (
	// Created means a new message was inserted at the front.
	Created Outcome = iota
	// Merged means the line was folded into the front message.
	Merged
	// Absorbed means the front message had already been posted; the line was dropped.
	Absorbed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "new"
	case Merged:
		return "merged"
	default:
		return "absorbed"
	}
}

// Buffer is the bounded recent-message buffer, newest first.
// All access goes through its methods.
type Buffer struct {
	mu       sync.Mutex
	messages []*models.Message
	capacity int
	now      func() time.Time

	geoPending map[string]struct{}
}

// NewBuffer creates a Buffer; capacity <= 0 selects DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		messages:   make([]*models.Message, 0, capacity),
		capacity:   capacity,
		now:        time.Now,
		geoPending: make(map[string]struct{}),
	}
}

// Add folds line into the buffer. Only the front message is considered for a
// merge. The returned message is a copy.
func (b *Buffer) Add(line Line) (models.Message, Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	body := line.Extract.Body
	if len(b.messages) > 0 && b.messages[0].Body == body && b.messages[0].Posted {
		return b.messages[0].Clone(), Absorbed
	}

	outcome := Merged
	for _, res := range line.Receivers {
		front := b.front()
		if front == nil || front.Body != body {
			b.insert(newMessage(line, res, b.now()), line.AwaitGeo)
			outcome = Created
			continue
		}
		merge(front, line, res, b.now())
	}

	if len(line.Receivers) == 0 {
		// a line without capcodes still yields a message
		front := b.front()
		if front == nil || front.Body != body {
			b.insert(newMessage(line, resolver.Resolution{}, b.now()), line.AwaitGeo)
			outcome = Created
		} else {
			front.ReceivedAt = b.now()
		}
	}

	return b.messages[0].Clone(), outcome
}

// Claim marks every unposted message whose last arrival is at least settle
// ago as posted and returns copies, oldest first. Messages still waiting for
// SetGeo are skipped.
func (b *Buffer) Claim(settle time.Duration) []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	var out []models.Message
	for i := len(b.messages) - 1; i >= 0; i-- {
		m := b.messages[i]
		if m.Posted || now.Sub(m.ReceivedAt) < settle {
			continue
		}
		if _, pending := b.geoPending[m.ID]; pending {
			continue
		}
		m.Posted = true
		out = append(out, m.Clone())
	}
	return out
}

// SetGeo stores a geocoding outcome on the message with the given id and
// restarts its settle timer. It reports false when the message is no longer
// buffered.
func (b *Buffer) SetGeo(id string, lat, lng *float64, mapURL string, status models.GeoStatus, info string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, m := range b.messages {
		if m.ID != id {
			continue
		}
		m.Latitude = lat
		m.Longitude = lng
		m.MapURL = mapURL
		m.GeoStatus = status
		m.GeoInfo = info
		if _, pending := b.geoPending[id]; pending {
			delete(b.geoPending, id)
			m.ReceivedAt = b.now()
		}
		return true
	}
	return false
}

// Snapshot returns copies of all buffered messages, newest first.
func (b *Buffer) Snapshot() []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Message, 0, len(b.messages))
	for _, m := range b.messages {
		out = append(out, m.Clone())
	}
	return out
}

// Len returns the number of buffered messages.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

func (b *Buffer) front() *models.Message {
	if len(b.messages) == 0 {
		return nil
	}
	return b.messages[0]
}

func (b *Buffer) insert(m *models.Message, awaitGeo bool) {
	if len(b.messages) >= b.capacity {
		for _, evicted := range b.messages[b.capacity-1:] {
			delete(b.geoPending, evicted.ID)
		}
		b.messages = b.messages[:b.capacity-1]
	}
	if awaitGeo {
		b.geoPending[m.ID] = struct{}{}
	}
	b.messages = append(b.messages, nil)
	copy(b.messages[1:], b.messages)
	b.messages[0] = m
}

func newMessage(line Line, res resolver.Resolution, now time.Time) *models.Message {
	m := &models.Message{
		ID:             uuid.New().String(),
		ReceivedAt:     now,
		LocalTimestamp: line.LocalTimestamp,
		GroupID:        line.Raw.GroupID,
		Receivers:      res.Receiver,
		Disciplines:    res.Discipline,
		Remarks:        res.Remark,
		Body:           line.Extract.Body,
		Raw:            line.Raw.Raw,
		Priority:       line.Priority,
		Region:         res.Region,
		GeoStatus:      models.GeoNotAttempted,
	}
	if res.Capcode != "" {
		m.Capcodes = []string{res.Capcode}
	}
	setPosition(m, line, res)
	return m
}

func merge(m *models.Message, line Line, res resolver.Resolution, now time.Time) {
	m.ReceivedAt = now
	if contains(m.Capcodes, res.Capcode) {
		return
	}
	m.Capcodes = append(m.Capcodes, res.Capcode)
	m.Receivers = appendFragment(m.Receivers, res.Receiver)
	m.Disciplines = appendFragment(m.Disciplines, res.Discipline)
	m.Remarks = appendFragment(m.Remarks, res.Remark)
	if m.Region == "" {
		m.Region = res.Region
	}
	setPosition(m, line, res)
}

// setPosition overwrites the positional fields, last line wins.
func setPosition(m *models.Message, line Line, res resolver.Resolution) {
	m.Location = res.Location
	m.PostalCode = line.Extract.PostalCode
	m.City = line.Extract.City
	m.Street = line.Extract.Street
	m.Address = line.Extract.Address
}

func appendFragment(aggregate, fragment string) string {
	if fragment == "" || aggregate == fragment {
		return aggregate
	}
	if aggregate == "" {
		return fragment
	}
	return aggregate + ", " + fragment
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
