package validators

import "go.mongodb.org/mongo-driver/bson"

var RentalValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"cart_id",
			"renter_name",
			"phone",
			"holes",
			"start_time",
			"play_end",
			"block_end",
			"price",
			"status",
			"notification_method",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"cart_id": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"renter_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{7,14}$`,
			},

			"email": bson.M{
				"bsonType": "string",
			},

			"is_member": bson.M{
				"bsonType": "bool",
			},

			"membership_number": bson.M{
				"bsonType":  "string",
				"maxLength": 30,
			},

			"has_doctors_note": bson.M{
				"bsonType": "bool",
			},

			"holes": bson.M{
				"enum": []int{9, 18},
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"play_end": bson.M{
				"bsonType": "date",
			},

			"block_end": bson.M{
				"bsonType": "date",
			},

			"price": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"status": bson.M{
				"enum": []string{"confirmed", "cancelled"},
			},

			"notification_method": bson.M{
				"enum": []string{"email", "sms"},
			},

			"contact_info": bson.M{
				"bsonType":  "string",
				"maxLength": 150,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"metadata": bson.M{
				"bsonType": "object",
				"additionalProperties": bson.M{
					"bsonType": "string",
				},
			},

			"reminder_sent": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
