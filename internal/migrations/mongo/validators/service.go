package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"name",
			"base_price",
			"duration_minutes",
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

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"base_price": bson.M{
				"bsonType": "string",
				"pattern":  `^\d+(\.\d{1,2})?$`,
			},

			"duration_minutes": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  1440,
			},

			"options": bson.M{
				"bsonType": "array",
				"maxItems": 20,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"name"},
					"properties": bson.M{
						"name": bson.M{
							"bsonType":  "string",
							"minLength": 1,
							"maxLength": 100,
						},
						"impact_type": bson.M{
							"enum": []string{"fixed", "percentage"},
						},
						"impact_value": bson.M{
							"bsonType": "string",
							"pattern":  `^\d+(\.\d{1,2})?$`,
						},
					},
				},
			},

			"discounts_disabled": bson.M{
				"bsonType": "bool",
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
