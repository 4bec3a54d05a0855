// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/taibuivan/aula/internal/platform/apperr"
	"github.com/taibuivan/aula/internal/platform/constants"
	"github.com/taibuivan/aula/internal/platform/sec"
)

// # Document Mapping

// userDocument mirrors an entry of the "usuarios" collection.
type userDocument struct {
	ID           any       `bson:"_id"`
	Username     string    `bson:"usuario"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	Role         string    `bson:"rol"`
	LastAccessAt time.Time `bson:"ultimo_acceso,omitempty"`
}

func (document *userDocument) toUser() *User {
	return &User{
		ID:           documentID(document.ID),
		Username:     document.Username,
		Email:        document.Email,
		PasswordHash: document.PasswordHash,
		Role:         sec.UserRole(document.Role),
		LastAccessAt: document.LastAccessAt,
	}
}

// documentID renders an _id as the string identity used by sessions.
func documentID(raw any) string {
	switch id := raw.(type) {
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

// documentFilterID reverses [documentID]: hex ids address ObjectIDs, anything else a string _id.
func documentFilterID(userID string) any {
	if objectID, err := primitive.ObjectIDFromHex(userID); err == nil {
		return objectID
	}
	return userID
}

// # User Directory

// MongoUserDirectory implements [UserDirectory] over the "usuarios" collection.
type MongoUserDirectory struct {
	database   *mongo.Database
	collection *mongo.Collection
}

// NewMongoUserDirectory binds the directory to a database handle.
func NewMongoUserDirectory(database *mongo.Database) *MongoUserDirectory {
	return &MongoUserDirectory{
		database:   database,
		collection: database.Collection(constants.CollectionUsers),
	}
}

/*
FindByIdentifier fetches the account whose "email" or "usuario" equals identifier.

Returns:
  - *User: Hydrated entity
  - error: apperr.NotFound if no document matches
*/
func (repository *MongoUserDirectory) FindByIdentifier(context context.Context, identifier string) (*User, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"email": identifier},
			bson.M{"usuario": identifier},
		},
	}

	var document userDocument
	err := repository.collection.FindOne(context, filter).Decode(&document)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("mongo_user_directory_find_failed: %w", err)
	}

	return document.toUser(), nil
}

// TouchLastAccess sets "ultimo_acceso" on the account document.
func (repository *MongoUserDirectory) TouchLastAccess(context context.Context, userID string, at time.Time) error {
	filter := bson.M{"_id": documentFilterID(userID)}
	update := bson.M{"$set": bson.M{"ultimo_acceso": at.UTC()}}

	result, err := repository.collection.UpdateOne(context, filter, update)
	if err != nil {
		return fmt.Errorf("mongo_user_directory_touch_failed: %w", err)
	}

	if result.MatchedCount == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// Ping checks the primary of the deployment.
func (repository *MongoUserDirectory) Ping(context context.Context) error {
	if err := repository.database.Client().Ping(context, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo_user_directory_ping_failed: %w", err)
	}
	return nil
}
