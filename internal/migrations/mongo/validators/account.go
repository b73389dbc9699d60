package validators

import "go.mongodb.org/mongo-driver/bson"

var AccountValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		// role is not required: revocation unsets it while the row survives.
		"required": []string{
			"email",
			"name",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"password_hash": bson.M{
				"bsonType": "string",
			},

			"role": bson.M{
				"enum": []string{"owner", "staff", "staff_assigned_only"},
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
