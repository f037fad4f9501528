package validators

import "go.mongodb.org/mongo-driver/bson"

// FitnessClassValidator also pins 0 <= booked_slots <= max_slots, the
// invariant the mongo slot ledger's conditional $inc relies on.
var FitnessClassValidator = bson.M{
	"$and": bson.A{
		bson.M{"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{
				"_id",
				"name",
				"instructor",
				"class_datetime",
				"duration_minutes",
				"max_slots",
				"booked_slots",
				"is_active",
			},
			"additionalProperties": true,

			"properties": bson.M{
				"_id": bson.M{"bsonType": integer, "minimum": 1},

				"name": bson.M{
					"bsonType":  "string",
					"minLength": 2,
					"maxLength": 100,
				},

				"description": bson.M{
					"bsonType":  "string",
					"maxLength": 500,
				},

				"instructor": bson.M{
					"bsonType":  "string",
					"minLength": 2,
					"maxLength": 100,
				},

				"class_datetime": bson.M{"bsonType": "date"},

				"duration_minutes": bson.M{
					"bsonType": integer,
					"minimum":  15,
					"maximum":  180,
				},

				"max_slots": bson.M{
					"bsonType": integer,
					"minimum":  1,
					"maximum":  50,
				},

				"booked_slots": bson.M{
					"bsonType": integer,
					"minimum":  0,
				},

				"is_active":  bson.M{"bsonType": "bool"},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		}},
		bson.M{"$expr": bson.M{"$lte": bson.A{"$booked_slots", "$max_slots"}}},
	},
}
