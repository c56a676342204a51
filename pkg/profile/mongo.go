package profile

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoCollection is the default collection name used by MongoDirectory.
const MongoCollection = "users"

type mongoUser struct {
	ID              string    `bson:"_id"`
	Email           string    `bson:"email"`
	FirstName       string    `bson:"firstName"`
	LastName        string    `bson:"lastName"`
	UnsafeMetadata  bson.M    `bson:"unsafeMetadata,omitempty"`
	PrivateMetadata bson.M    `bson:"privateMetadata,omitempty"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

// MongoDirectory keeps users in a MongoDB collection.
type MongoDirectory struct {
	coll *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	if db == nil {
		panic("profile: mongo database is required")
	}
	return &MongoDirectory{coll: db.Collection(MongoCollection)}
}

func (d *MongoDirectory) GetUser(ctx context.Context, userID string) (*User, error) {
	var doc mongoUser
	if err := d.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &User{
		ID:              doc.ID,
		Email:           doc.Email,
		FirstName:       doc.FirstName,
		LastName:        doc.LastName,
		UnsafeMetadata:  map[string]any(doc.UnsafeMetadata),
		PrivateMetadata: map[string]any(doc.PrivateMetadata),
	}, nil
}

func (d *MongoDirectory) UpdateUser(ctx context.Context, userID string, upd UserUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{}

	if upd.FirstName != nil {
		set["firstName"] = *upd.FirstName
	}
	if upd.LastName != nil {
		set["lastName"] = *upd.LastName
	}
	applyPatch(set, unset, "unsafeMetadata", upd.UnsafeMetadata)
	applyPatch(set, unset, "privateMetadata", upd.PrivateMetadata)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := d.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (d *MongoDirectory) ListSubscribed(ctx context.Context, afterUserID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	subField := "unsafeMetadata." + KeySubscriptionID
	filter := bson.M{
		"_id":    bson.M{"$gt": afterUserID},
		subField: bson.M{"$exists": true, "$ne": ""},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"_id": 1})

	cur, err := d.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func applyPatch(set, unset bson.M, field string, patch map[string]any) {
	for k, v := range patch {
		if v == nil {
			unset[field+"."+k] = ""
			continue
		}
		set[field+"."+k] = v
	}
}
