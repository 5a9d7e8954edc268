package dispatcher

import (
	"p2000-receiver/internal/models"
	"p2000-receiver/internal/router"
)

// BuildPayload assembles the sink payload for one posted (message, sensor) pair.
func BuildPayload(msg models.Message, sensor models.SensorConfig, d router.Decision) models.Payload {
	friendly := sensor.FriendlyName
	if friendly == "" {
		friendly = models.DefaultFriendlyName
	}

	return models.Payload{
		State: msg.Body,
		Attributes: models.Attributes{
			MessageID:    msg.ID,
			TimeReceived: msg.LocalTimestamp,
			GroupID:      msg.GroupID,
			Receivers:    msg.Receivers,
			Capcodes:     append([]string(nil), msg.Capcodes...),
			Priority:     msg.Priority,
			Disciplines:  msg.Disciplines,
			RawMessage:   msg.Raw,
			Region:       msg.Region,
			Location:     msg.Location,
			PostalCode:   msg.PostalCode,
			City:         msg.City,
			Address:      msg.Address,
			Street:       msg.Street,
			Remarks:      msg.Remarks,
			Longitude:    msg.Longitude,
			Latitude:     msg.Latitude,
			OpenCage:     msg.GeoInfo,
			GeoStatus:    msg.GeoStatus,
			MapURL:       msg.MapURL,
			Distance:     d.DistanceKm,
			FriendlyName: friendly,
		},
	}
}
