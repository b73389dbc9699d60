package validators

import "go.mongodb.org/mongo-driver/bson"

// The event id from the billing processor is the document id, so replayed
// deliveries collide on insert.
var ProcessedBillingEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_type",
			"processed_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"event_type": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"tenant_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"processed_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
