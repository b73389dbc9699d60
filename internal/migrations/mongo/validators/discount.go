package validators

import "go.mongodb.org/mongo-driver/bson"

var DiscountValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"code",
			"type",
			"value",
			"status",
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

			"code": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"type": bson.M{
				"enum": []string{"percentage", "fixed_amount"},
			},

			"value": bson.M{
				"bsonType": "string",
				"pattern":  `^\d+(\.\d{1,2})?$`,
			},

			"status": bson.M{
				"enum": []string{"active", "inactive"},
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"usage_limit": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"times_used": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
