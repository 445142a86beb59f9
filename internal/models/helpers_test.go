package models

import "go.mongodb.org/mongo-driver/bson/primitive"

func newID(n byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = n
	return id
}

func ptrID(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}
