package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomInstanceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_type_id",
			"occupied",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"room_type_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"label": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"occupied": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"start", "end"},
					"properties": bson.M{
						"start": bson.M{"bsonType": "date"},
						"end":   bson.M{"bsonType": "date"},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
