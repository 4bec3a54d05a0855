// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/taibuivan/aula/internal/platform/apperr"
	"github.com/taibuivan/aula/internal/platform/sec"
	"github.com/taibuivan/aula/internal/users/auth"
)

const usersNamespace = "aula.usuarios"

/*
TestMongoUserDirectory_FindByIdentifier drives the directory against a mock deployment.
*/
func TestMongoUserDirectory_FindByIdentifier(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("object id document", func(mt *mtest.T) {
		objectID := primitive.NewObjectID()
		lastAccess := epoch.Add(-time.Hour)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNamespace, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: objectID},
			{Key: "usuario", Value: "ana"},
			{Key: "email", Value: "ana@aula.edu"},
			{Key: "password", Value: "$2a$12$digest"},
			{Key: "rol", Value: "PROFESOR"},
			{Key: "ultimo_acceso", Value: lastAccess},
		}))

		user, err := auth.NewMongoUserDirectory(mt.DB).FindByIdentifier(context.Background(), "ana@aula.edu")
		require.NoError(mt, err)

		assert.Equal(mt, objectID.Hex(), user.ID)
		assert.Equal(mt, "ana", user.Username)
		assert.Equal(mt, "ana@aula.edu", user.Email)
		assert.Equal(mt, "$2a$12$digest", user.PasswordHash)
		assert.Equal(mt, sec.RoleTeacher, user.Role)
		assert.True(mt, lastAccess.Equal(user.LastAccessAt))
	})

	mt.Run("string id document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNamespace, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "legacy-7"},
			{Key: "usuario", Value: "root"},
			{Key: "email", Value: "root@aula.edu"},
			{Key: "password", Value: "$2a$12$digest"},
			{Key: "rol", Value: "ADMINISTRADOR"},
		}))

		user, err := auth.NewMongoUserDirectory(mt.DB).FindByIdentifier(context.Background(), "root")
		require.NoError(mt, err)

		assert.Equal(mt, "legacy-7", user.ID)
		assert.Equal(mt, sec.RoleAdmin, user.Role)
		assert.True(mt, user.LastAccessAt.IsZero())
	})

	mt.Run("no documents", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNamespace, mtest.FirstBatch))

		_, err := auth.NewMongoUserDirectory(mt.DB).FindByIdentifier(context.Background(), "ghost")
		require.Error(mt, err)
		assert.True(mt, apperr.HasCode(err, apperr.CodeNotFound))
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11600,
			Message: "interrupted at shutdown",
			Name:    "InterruptedAtShutdown",
		}))

		_, err := auth.NewMongoUserDirectory(mt.DB).FindByIdentifier(context.Background(), "ana")
		require.Error(mt, err)
		assert.False(mt, apperr.HasCode(err, apperr.CodeNotFound))
		assert.Contains(mt, err.Error(), "mongo_user_directory_find_failed")
	})
}

/*
TestMongoUserDirectory_TouchLastAccess covers matched and unmatched updates.
*/
func TestMongoUserDirectory_TouchLastAccess(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := auth.NewMongoUserDirectory(mt.DB).TouchLastAccess(context.Background(), primitive.NewObjectID().Hex(), epoch)
		assert.NoError(mt, err)
	})

	mt.Run("unmatched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := auth.NewMongoUserDirectory(mt.DB).TouchLastAccess(context.Background(), "legacy-7", epoch)
		require.Error(mt, err)
		assert.True(mt, apperr.HasCode(err, apperr.CodeNotFound))
	})
}

/*
TestMongoUserDirectory_Ping verifies the readiness probe against the mock primary.
*/
func TestMongoUserDirectory_Ping(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reachable", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, auth.NewMongoUserDirectory(mt.DB).Ping(context.Background()))
	})
}
