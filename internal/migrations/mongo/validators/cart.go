package validators

import "go.mongodb.org/mongo-driver/bson"

var CartValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"status": bson.M{
				"enum": []string{"available", "rented", "out_of_order"},
			},

			"current_rental_id": bson.M{
				"bsonType": "string",
			},
		},
	},
}
