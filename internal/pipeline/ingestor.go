// Package pipeline turns decoder lines into buffered messages and hands
// settled messages to the dispatcher.
package pipeline

import (
	"context"
	"time"

	"p2000-receiver/internal/aggregator"
	"p2000-receiver/internal/extractor"
	"p2000-receiver/internal/geo"
	"p2000-receiver/internal/metrics"
	"p2000-receiver/internal/models"
	"p2000-receiver/internal/parser"
	"p2000-receiver/internal/resolver"

	"go.uber.org/zap"
)

// Line results counted in metrics.
const (
	LineParsed   = "parsed"
	LineRejected = "rejected"
	LineFiltered = "filtered"
)

// LineFilter decides whether a parsed line is processed.
type LineFilter interface {
	Allow(line models.RawLine) bool
}

// Geocoder resolves a message address.
type Geocoder interface {
	Resolve(ctx context.Context, address string) geo.Result
}

// Ingestor runs parse, filter, enrich and aggregate for one line at a time.
type Ingestor struct {
	filter    LineFilter
	extractor *extractor.Extractor
	receivers *resolver.Resolver
	buffer    *aggregator.Buffer
	geocoder  Geocoder
	metrics   *metrics.Metrics
	logger    *zap.Logger
	location  *time.Location
}

// NewIngestor creates an Ingestor. m may be nil.
func NewIngestor(
	filter LineFilter,
	ex *extractor.Extractor,
	receivers *resolver.Resolver,
	buffer *aggregator.Buffer,
	geocoder Geocoder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		filter:    filter,
		extractor: ex,
		receivers: receivers,
		buffer:    buffer,
		geocoder:  geocoder,
		metrics:   m,
		logger:    logger,
		location:  time.Local,
	}
}

// HandleLine processes one decoder line. It never fails; problems are logged.
func (i *Ingestor) HandleLine(ctx context.Context, text string) {
	raw, ok := parser.ParseLine(text)
	if !ok {
		i.metrics.Line(LineRejected)
		i.logger.Debug("Skipping decoder line", zap.String("line", text))
		return
	}

	if !i.filter.Allow(raw) {
		i.metrics.Line(LineFiltered)
		return
	}
	i.metrics.Line(LineParsed)

	line := aggregator.Line{
		Raw:            raw,
		LocalTimestamp: parser.LocalTimestamp(raw.Timestamp, i.location),
		Priority:       parser.Classify(raw.Body),
		Extract:        i.extractor.Extract(raw.Body),
		Receivers:      i.receivers.ResolveAll(raw.Capcodes),
		AwaitGeo:       true,
	}

	msg, outcome := i.buffer.Add(line)
	i.metrics.Message(outcome.String())
	i.logger.Debug("Line aggregated",
		zap.String("message_id", msg.ID),
		zap.String("outcome", outcome.String()),
		zap.Strings("capcodes", raw.Capcodes),
		zap.String("address", msg.Address),
	)
	if outcome != aggregator.Created {
		return
	}

	res := i.geocoder.Resolve(ctx, msg.Address)
	i.metrics.GeocodeStatus(string(res.Status))
	if !i.buffer.SetGeo(msg.ID, res.Latitude, res.Longitude, res.MapURL, res.Status, res.Info) {
		i.logger.Debug("Message left the buffer before geocoding finished", zap.String("message_id", msg.ID))
	}
}
