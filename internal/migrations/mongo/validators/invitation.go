package validators

import "go.mongodb.org/mongo-driver/bson"

var InvitationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"email",
			"role",
			"expires_at",
			"redeemed",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"tenant_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"role": bson.M{
				"enum": []string{"staff", "staff_assigned_only"},
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"redeemed": bson.M{
				"bsonType": "bool",
			},

			"redeemed_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
