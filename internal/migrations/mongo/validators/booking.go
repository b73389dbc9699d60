package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"booking_reference",
			"customer_name",
			"customer_email",
			"line_items",
			"status",
			"start_time",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"booking_reference": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"customer_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"customer_email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"customer_phone": bson.M{
				"bsonType": "string",
			},

			"customer_address": bson.M{
				"bsonType":  "string",
				"maxLength": 300,
			},

			"line_items": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 20,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"service_id", "service_name", "base_price", "line_total"},
					"properties": bson.M{
						"service_id": bson.M{
							"bsonType":  "string",
							"minLength": 24,
							"maxLength": 24,
						},
						"service_name": bson.M{
							"bsonType": "string",
						},
						"base_price": bson.M{
							"bsonType": "string",
							"pattern":  `^\d+(\.\d{1,2})?$`,
						},
						"selected_options": bson.M{
							"bsonType": "array",
							"maxItems": 20,
						},
						"line_total": bson.M{
							"bsonType": "string",
							"pattern":  `^\d+(\.\d{1,2})?$`,
						},
					},
				},
			},

			"subtotal": bson.M{
				"bsonType": "string",
				"pattern":  `^\d+(\.\d{1,2})?$`,
			},

			"discount_code": bson.M{
				"bsonType": "string",
			},

			"discount_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"discount_amount": bson.M{
				"bsonType": "string",
				"pattern":  `^\d+(\.\d{1,2})?$`,
			},

			"total": bson.M{
				"bsonType": "string",
				"pattern":  `^\d+(\.\d{1,2})?$`,
			},

			"status": bson.M{
				"enum": []string{"pending", "confirmed", "completed", "cancelled"},
			},

			"assigned_staff_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"cancel_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
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
