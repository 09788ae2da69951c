package repository

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Documents written by other services use either native ObjectIDs or plain
// strings as _id, so lookups match both encodings.

func idCandidates(id string) []any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return []any{oid, id}
	}
	return []any{id}
}

func idFilter(id string) bson.M {
	return bson.M{"_id": bson.M{"$in": idCandidates(id)}}
}

func idsFilter(ids []string) bson.M {
	var all []any
	for _, id := range ids {
		all = append(all, idCandidates(id)...)
	}
	return bson.M{"_id": bson.M{"$in": all}}
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// NewOrderID allocates an order id before the order is written.
func NewOrderID() string {
	return primitive.NewObjectID().Hex()
}

// storedID is the native encoding used for ids this service writes.
func storedID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
