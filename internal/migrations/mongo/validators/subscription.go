package validators

import "go.mongodb.org/mongo-driver/bson"

var SubscriptionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"status",
			"trial_ends_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"tenant_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"status": bson.M{
				"enum": []string{"trialing", "active", "past_due", "canceled"},
			},

			"trial_ends_at": bson.M{
				"bsonType": "date",
			},

			"ends_at": bson.M{
				"bsonType": []string{"date", "null"},
			},

			"external_customer_id": bson.M{
				"bsonType": "string",
			},

			"external_subscription_id": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
