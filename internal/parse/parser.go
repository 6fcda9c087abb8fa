// internal/parse/parser.go

// Package parse normalizes raw automation output into SessionResults.
package parse

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/compare"
	"droid-orchestrator/internal/models"
)

// Defaults for fields the automation run omitted. The sentinel price keeps a
// priceless item comparable but effectively never the winner.
const (
	defaultPrice  = "999999"
	defaultRating = "0"
)

// itemListSchema is advisory: violations are logged, never rejected. The
// tolerant coercion path below already handles every shape the schema would
// flag.
const itemListSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"title":  {"type": ["string", "number"]},
			"price":  {"type": ["string", "number"]},
			"rating": {"type": ["string", "number"]}
		},
		"required": ["title"]
	}
}`

var compiledItemListSchema, _ = gojsonschema.NewSchema(gojsonschema.NewStringLoader(itemListSchema))

// ParseSessionOutput turns the raw textual output of one automation session
// into a normalized SessionResult. The result status reflects only whether
// the payload decoded into the expected shape; an empty list still counts as
// success. Parsing never returns an error to the caller.
func ParseSessionOutput(platform, raw string, log logger.Logger) *models.SessionResult {
	result := &models.SessionResult{
		Platform:    platform,
		Status:      models.StatusFailed,
		Items:       []models.Item{},
		RawResponse: raw,
	}

	cleaned := StripFences(raw)

	records, err := decodeRecords(cleaned)
	if err != nil {
		log.Warn("Failed to decode automation output", map[string]interface{}{
			"platform": platform,
			"error":    err.Error(),
		})
		result.Error = err.Error()
		return result
	}

	validateAdvisory(cleaned, platform, log)

	items := make([]models.Item, 0, len(records))
	for _, rec := range records {
		it := normalizeRecord(rec)
		// Items whose price parses to zero or negative are extraction noise.
		if it.NumericPrice <= 0 {
			continue
		}
		items = append(items, it)
	}

	result.Status = models.StatusSuccess
	result.Items = compare.Rank(items)
	result.BestItem = compare.Best(items)
	result.Error = ""
	return result
}

// decodeRecords accepts either a JSON array of objects or a single object,
// which is promoted to a one-element list.
func decodeRecords(cleaned string) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &records); err == nil {
		return records, nil
	}

	var single map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil {
		return []map[string]interface{}{single}, nil
	}

	return nil, fmt.Errorf("output is neither a JSON list nor a JSON object")
}

// normalizeRecord coerces one decoded record into an Item. String and number
// field values are both accepted; missing fields take defaults.
func normalizeRecord(rec map[string]interface{}) models.Item {
	title := fieldString(rec, "title", "")
	price := fieldString(rec, "price", defaultPrice)
	rating := fieldString(rec, "rating", defaultRating)

	return models.Item{
		Title:         title,
		Price:         price,
		Rating:        rating,
		NumericPrice:  ExtractPrice(price),
		NumericRating: ExtractRating(rating),
	}
}

func fieldString(rec map[string]interface{}, key, fallback string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return fallback
	}
	return fmt.Sprintf("%v", v)
}

func validateAdvisory(cleaned, platform string, log logger.Logger) {
	if compiledItemListSchema == nil {
		return
	}
	res, err := compiledItemListSchema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil || res.Valid() {
		return
	}
	for _, desc := range res.Errors() {
		log.Debug("Automation output deviates from expected schema", map[string]interface{}{
			"platform": platform,
			"issue":    desc.String(),
		})
	}
}
