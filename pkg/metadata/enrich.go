package metadata

import (
	"context"

	"github.com/staynest/booking-coordinator/pkg/models"
)

// EnrichedProperty pairs an on-chain property with its resolved off-chain
// document.
type EnrichedProperty struct {
	models.Property
	Metadata *PropertyMetadata `json:"metadata"`
}

// EnrichProperties resolves metadata for a batch of properties. An entity
// whose document cannot be resolved is dropped from the result instead of
// failing the batch.
func (c *Client) EnrichProperties(ctx context.Context, properties []*models.Property) []EnrichedProperty {
	enriched := make([]EnrichedProperty, 0, len(properties))
	for _, property := range properties {
		meta, err := c.Resolve(ctx, property.MetadataRef)
		if err != nil {
			c.Log.Warn("dropping property with unresolvable metadata",
				"property_id", property.ID, "ref", property.MetadataRef, "error", err)
			continue
		}
		enriched = append(enriched, EnrichedProperty{Property: *property, Metadata: meta})
	}
	return enriched
}
