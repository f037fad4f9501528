package validators

import "go.mongodb.org/mongo-driver/bson"

// integer accepts both widths; the driver writes small Go ints as int32.
var integer = bson.A{"int", "long"}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"class_id",
			"client_name",
			"client_email",
			"booking_reference",
			"booking_status",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"class_id": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"client_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"client_email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
				"pattern":   `^[^@\s]+@[^@\s]+$`,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"booking_reference": bson.M{
				"bsonType": "string",
				"pattern":  `^FB[A-Z0-9]{8}$`,
			},

			"booking_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
				},
			},

			"created_at":   bson.M{"bsonType": "date"},
			"updated_at":   bson.M{"bsonType": "date"},
			"cancelled_at": bson.M{"bsonType": "date"},
		},
	},
}
