// internal/common/validation/schemas.go
package validation

// PoiResponseSchema is the reply contract for generative candidate providers.
// Extra top-level keys are tolerated; every item needs a non-empty name.
const PoiResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["pois"],
  "properties": {
    "pois": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string"}
        }
      }
    }
  }
}`

// TripRequestSchema checks plan-trip job variables before they are decoded.
const TripRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["city", "days"],
  "properties": {
    "city": {"type": "string", "minLength": 1},
    "days": {"type": "integer", "minimum": 1, "maximum": 30},
    "startDate": {"type": "string"},
    "budget": {"type": "number", "minimum": 0},
    "preferences": {"type": "array", "items": {"type": "string"}},
    "currency": {"type": "string", "pattern": "^[A-Za-z]{3}$"}
  }
}`

// BookingIntentSchema checks hotel-booking-intent job variables.
const BookingIntentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["city", "checkin"],
  "properties": {
    "city": {"type": "string", "minLength": 1},
    "checkin": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "nights": {"type": "integer", "minimum": 1}
  }
}`

var (
	PoiResponse   = MustCompile(PoiResponseSchema)
	TripRequest   = MustCompile(TripRequestSchema)
	BookingIntent = MustCompile(BookingIntentSchema)
)
